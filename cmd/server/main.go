package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rafa-porto/MovieSwipe/internal/config"
	"github.com/rafa-porto/MovieSwipe/internal/database"
	"github.com/rafa-porto/MovieSwipe/internal/handler"
	"github.com/rafa-porto/MovieSwipe/internal/middleware"
	"github.com/rafa-porto/MovieSwipe/internal/recommend"
	"github.com/rafa-porto/MovieSwipe/internal/service"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
	"github.com/rafa-porto/MovieSwipe/internal/tmdb"
)

func main() {
	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Pick the storage backend: in-memory by default, Postgres when configured
	var store storage.Store
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(cfg.DB)
		if err != nil {
			slog.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = storage.NewPostgresStore(db)
	default:
		slog.Info("using in-memory storage, state resets on restart")
		store = storage.NewMemoryStore()
	}

	// Connect to Redis (non-fatal if unavailable)
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache and rate limiting", "error", err)
	}

	// Initialize TMDB client
	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL)

	// Initialize layers
	catalog := service.NewCatalogService(store, tmdbClient, rdb)
	users := service.NewUserService(store)
	engine := recommend.NewEngine(store)
	movieHandler := handler.NewMovieHandler(catalog)
	userHandler := handler.NewUserHandler(users, engine)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MovieSwipe",
		ServerHeader: "MovieSwipe",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "error", err, "status", code)
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	if rdb != nil {
		rl := middleware.NewRateLimiter(rdb, cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSec)
		app.Use(rl.Handler())
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/health", movieHandler.Health)
	api.Get("/init", userHandler.Init)
	api.Get("/movies", movieHandler.ListMovies)
	api.Get("/movies/:id", movieHandler.GetMovie)
	api.Get("/movies/:id/details", movieHandler.GetMovieDetails)
	api.Post("/movies/:id/interact", userHandler.Interact)
	api.Get("/users/:id/liked", userHandler.LikedMovies)
	api.Get("/users/:id/stats", userHandler.Stats)
	api.Get("/users/:id/recommendations", userHandler.Recommendations)
	api.Post("/admin/sync", movieHandler.SyncMovies)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting server", "addr", addr, "backend", cfg.StorageBackend)
	if err := app.Listen(addr); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
