package handler

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/rafa-porto/MovieSwipe/internal/service"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
)

// MovieHandler handles HTTP requests for the movie catalog.
type MovieHandler struct {
	catalog *service.CatalogService
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(catalog *service.CatalogService) *MovieHandler {
	return &MovieHandler{catalog: catalog}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MovieHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "movieswipe",
	})
}

// ListMovies returns a filtered, paginated list of movies, populating the
// catalog from the provider on first miss.
// @Summary List movies
// @Tags movies
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param genres query string false "Comma-separated genre filters"
// @Param moods query string false "Comma-separated mood filters"
// @Param streamingServices query string false "Comma-separated service filters"
// @Success 200 {object} models.MovieListResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies [get]
func (h *MovieHandler) ListMovies(c fiber.Ctx) error {
	page := fiber.Query(c, "page", 1)
	limit := fiber.Query(c, "limit", 10)

	filters := storage.MovieFilters{
		Genres:            splitParam(c.Query("genres")),
		Moods:             splitParam(c.Query("moods")),
		StreamingServices: splitParam(c.Query("streamingServices")),
	}

	result, err := h.catalog.ListMovies(page, limit, filters)
	if err != nil {
		slog.Error("failed to list movies", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to retrieve movies",
		})
	}
	return c.JSON(result)
}

// GetMovie returns a single movie, fetch-and-cache on miss.
// @Summary Get movie
// @Tags movies
// @Produce json
// @Param id path int true "Movie ID"
// @Success 200 {object} models.Movie
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies/{id} [get]
func (h *MovieHandler) GetMovie(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid movie ID"})
	}

	movie, err := h.catalog.GetMovie(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "movie not found"})
		}
		slog.Error("failed to get movie", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to retrieve movie",
		})
	}
	return c.JSON(movie)
}

// GetMovieDetails returns the movie merged with extended provider data.
// Extended fetch failures degrade to placeholders, never a 5xx.
// @Summary Get extended movie details
// @Tags movies
// @Produce json
// @Param id path int true "Movie ID"
// @Success 200 {object} models.MovieDetailResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies/{id}/details [get]
func (h *MovieHandler) GetMovieDetails(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid movie ID"})
	}

	details, err := h.catalog.GetMovieDetails(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "movie not found"})
		}
		slog.Error("failed to get movie details", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to retrieve movie details",
		})
	}
	return c.JSON(details)
}

// SyncMovies triggers a bulk import from the provider.
// @Summary Sync movies from the metadata provider
// @Tags admin
// @Produce json
// @Param pages query int false "Number of pages to sync" default(5)
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /admin/sync [post]
func (h *MovieHandler) SyncMovies(c fiber.Ctx) error {
	pages := fiber.Query(c, "pages", 5)
	if pages < 1 {
		pages = 1
	}
	if pages > 50 {
		pages = 50
	}

	count, err := h.catalog.SyncMovies(pages)
	if err != nil {
		slog.Error("sync failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "sync failed: " + err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":       "sync completed",
		"movies_synced": count,
		"pages":         pages,
	})
}

// splitParam parses a comma-separated query value, dropping empty entries.
func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
