package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/rafa-porto/MovieSwipe/internal/config"
)

// NewPostgres creates a new PostgreSQL connection and runs migrations.
func NewPostgres(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	slog.Info("connected to PostgreSQL", "db", cfg.DBName)

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username VARCHAR(100) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movies (
			id INTEGER PRIMARY KEY,
			seq SERIAL,
			title VARCHAR(500) NOT NULL,
			overview TEXT DEFAULT '',
			poster_path VARCHAR(500) DEFAULT '',
			backdrop_path VARCHAR(500) DEFAULT '',
			release_date VARCHAR(20) DEFAULT '',
			vote_average DOUBLE PRECISION DEFAULT 0,
			runtime INTEGER DEFAULT 0,
			genres JSONB NOT NULL DEFAULT '[]',
			mood VARCHAR(50) DEFAULT '',
			streaming_services JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			id SERIAL PRIMARY KEY,
			user_id INTEGER UNIQUE NOT NULL,
			liked_genres JSONB NOT NULL DEFAULT '{}',
			liked_movies JSONB NOT NULL DEFAULT '[]',
			disliked_movies JSONB NOT NULL DEFAULT '[]',
			streaming_services JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS user_activity (
			id BIGINT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			movie_id INTEGER NOT NULL,
			action VARCHAR(20) NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_seq ON movies(seq)`,
		`CREATE INDEX IF NOT EXISTS idx_user_activity_user ON user_activity(user_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed")
	return nil
}
