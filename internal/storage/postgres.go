package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/rafa-porto/MovieSwipe/internal/models"
)

// PostgresStore implements Store on PostgreSQL. It exists so the in-memory
// backend can be swapped for a durable one without touching the engine or
// the services; select it with STORAGE_BACKEND=postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetUser(id int) (*models.User, bool, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, username FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}
	return &u, true, nil
}

func (s *PostgresStore) CreateUser(user models.User) (*models.User, error) {
	err := s.db.QueryRow(`
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id
	`, user.ID, user.Username).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) GetMovie(id int) (*models.Movie, bool, error) {
	m, err := scanMovie(s.db.QueryRow(`
		SELECT id, title, overview, poster_path, backdrop_path, release_date,
			vote_average, runtime, genres, mood, streaming_services
		FROM movies WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get movie: %w", err)
	}
	return m, true, nil
}

func (s *PostgresStore) UpsertMovie(movie models.Movie) error {
	genres, err := json.Marshal(orEmpty(movie.Genres))
	if err != nil {
		return fmt.Errorf("marshal genres: %w", err)
	}
	services, err := json.Marshal(orEmpty(movie.StreamingServices))
	if err != nil {
		return fmt.Errorf("marshal streaming services: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO movies (id, title, overview, poster_path, backdrop_path,
			release_date, vote_average, runtime, genres, mood, streaming_services)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			overview = EXCLUDED.overview,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path,
			release_date = EXCLUDED.release_date,
			vote_average = EXCLUDED.vote_average,
			runtime = EXCLUDED.runtime,
			genres = EXCLUDED.genres,
			mood = EXCLUDED.mood,
			streaming_services = EXCLUDED.streaming_services
	`, movie.ID, movie.Title, movie.Overview, movie.PosterPath, movie.BackdropPath,
		movie.ReleaseDate, movie.VoteAverage, movie.Runtime, genres, movie.Mood, services)
	if err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}
	return nil
}

func (s *PostgresStore) QueryMovies(opts QueryOptions) ([]models.Movie, error) {
	query := `
		SELECT id, title, overview, poster_path, backdrop_path, release_date,
			vote_average, runtime, genres, mood, streaming_services
		FROM movies m WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	f := opts.Filters

	if len(f.ExcludeIDs) > 0 {
		query += fmt.Sprintf(" AND NOT (m.id = ANY($%d))", argIdx)
		args = append(args, pq.Array(f.ExcludeIDs))
		argIdx++
	}
	if len(f.Genres) > 0 {
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(m.genres) g
			WHERE g.value ILIKE ANY($%d))`, argIdx)
		args = append(args, pq.Array(patterns(f.Genres)))
		argIdx++
	}
	if len(f.Moods) > 0 {
		query += fmt.Sprintf(" AND m.mood ILIKE ANY($%d)", argIdx)
		args = append(args, pq.Array(patterns(f.Moods)))
		argIdx++
	}
	if len(f.StreamingServices) > 0 {
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(m.streaming_services) sv
			WHERE sv.value ILIKE ANY($%d))`, argIdx)
		args = append(args, pq.Array(patterns(f.StreamingServices)))
		argIdx++
	}

	// Insertion order, like the memory backend
	query += " ORDER BY m.seq"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

// patterns wraps each term for ILIKE substring matching.
func patterns(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = "%" + t + "%"
	}
	return out
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var m models.Movie
	var genres, services []byte
	err := row.Scan(&m.ID, &m.Title, &m.Overview, &m.PosterPath, &m.BackdropPath,
		&m.ReleaseDate, &m.VoteAverage, &m.Runtime, &genres, &m.Mood, &services)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(genres, &m.Genres); err != nil {
		return nil, fmt.Errorf("unmarshal genres: %w", err)
	}
	if err := json.Unmarshal(services, &m.StreamingServices); err != nil {
		return nil, fmt.Errorf("unmarshal streaming services: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) GetPreferences(userID int) (*models.UserPreference, bool, error) {
	p, err := s.getPreferences(s.db, userID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

type queryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func (s *PostgresStore) getPreferences(q queryRower, userID int) (*models.UserPreference, error) {
	var p models.UserPreference
	var likedGenres, likedMovies, dislikedMovies, services []byte
	err := q.QueryRow(`
		SELECT id, user_id, liked_genres, liked_movies, disliked_movies, streaming_services
		FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &likedGenres, &likedMovies, &dislikedMovies, &services)
	if err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		data []byte
		dst  interface{}
	}{
		{likedGenres, &p.LikedGenres},
		{likedMovies, &p.LikedMovies},
		{dislikedMovies, &p.DislikedMovies},
		{services, &p.StreamingServices},
	} {
		if err := json.Unmarshal(pair.data, pair.dst); err != nil {
			return nil, fmt.Errorf("unmarshal preferences: %w", err)
		}
	}
	return &p, nil
}

func (s *PostgresStore) CreatePreferences(pref models.UserPreference) (*models.UserPreference, error) {
	normalizePreference(&pref)
	likedGenres, _ := json.Marshal(pref.LikedGenres)
	likedMovies, _ := json.Marshal(pref.LikedMovies)
	dislikedMovies, _ := json.Marshal(pref.DislikedMovies)
	services, _ := json.Marshal(pref.StreamingServices)

	err := s.db.QueryRow(`
		INSERT INTO user_preferences (user_id, liked_genres, liked_movies, disliked_movies, streaming_services)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			liked_genres = EXCLUDED.liked_genres,
			liked_movies = EXCLUDED.liked_movies,
			disliked_movies = EXCLUDED.disliked_movies,
			streaming_services = EXCLUDED.streaming_services
		RETURNING id
	`, pref.UserID, likedGenres, likedMovies, dislikedMovies, services).Scan(&pref.ID)
	if err != nil {
		return nil, fmt.Errorf("create preferences: %w", err)
	}
	return &pref, nil
}

func (s *PostgresStore) UpdatePreferences(userID int, update models.PreferenceUpdate) (*models.UserPreference, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	current, err := s.getPreferences(tx, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if update.LikedGenres != nil {
		current.LikedGenres = update.LikedGenres
	}
	if update.LikedMovies != nil {
		current.LikedMovies = update.LikedMovies
	}
	if update.DislikedMovies != nil {
		current.DislikedMovies = update.DislikedMovies
	}
	if update.StreamingServices != nil {
		current.StreamingServices = update.StreamingServices
	}

	likedGenres, _ := json.Marshal(current.LikedGenres)
	likedMovies, _ := json.Marshal(current.LikedMovies)
	dislikedMovies, _ := json.Marshal(current.DislikedMovies)
	services, _ := json.Marshal(current.StreamingServices)

	_, err = tx.Exec(`
		UPDATE user_preferences
		SET liked_genres = $2, liked_movies = $3, disliked_movies = $4, streaming_services = $5
		WHERE user_id = $1
	`, userID, likedGenres, likedMovies, dislikedMovies, services)
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return current, nil
}

func (s *PostgresStore) AppendActivity(activity models.UserActivity) (*models.UserActivity, error) {
	if activity.ID == 0 {
		activity.ID = time.Now().UnixNano()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO user_activity (id, user_id, movie_id, action, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, activity.ID, activity.UserID, activity.MovieID, activity.Action, activity.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("append activity: %w", err)
	}
	return &activity, nil
}

func (s *PostgresStore) GetActivity(userID int) ([]models.UserActivity, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, movie_id, action, timestamp
		FROM user_activity WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	defer rows.Close()

	out := []models.UserActivity{}
	for rows.Next() {
		var a models.UserActivity
		if err := rows.Scan(&a.ID, &a.UserID, &a.MovieID, &a.Action, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
