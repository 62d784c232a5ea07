package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/rafa-porto/MovieSwipe/internal/models"
	"github.com/rafa-porto/MovieSwipe/internal/recommend"
	"github.com/rafa-porto/MovieSwipe/internal/service"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
)

// UserHandler handles HTTP requests for users: bootstrap, interactions,
// favorites, statistics and recommendations.
type UserHandler struct {
	users  *service.UserService
	engine *recommend.Engine
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, engine *recommend.Engine) *UserHandler {
	return &UserHandler{users: users, engine: engine}
}

// Init bootstraps the default demo user and empty preferences. Idempotent.
// @Summary Initialize default user
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /init [get]
func (h *UserHandler) Init(c fiber.Ctx) error {
	if err := h.users.Init(); err != nil {
		slog.Error("failed to initialize default user", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to initialize default user",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Default user initialized",
	})
}

// Interact records a like or dislike for a movie.
// @Summary Like or dislike a movie
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "Movie ID"
// @Param body body models.InteractionRequest true "Interaction"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies/{id}/interact [post]
func (h *UserHandler) Interact(c fiber.Ctx) error {
	movieID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid movie ID"})
	}

	var req models.InteractionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	userID := req.UserID
	if userID == 0 {
		userID = service.DefaultUserID
	}

	if err := h.users.Interact(userID, movieID, req.Action); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAction):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		case errors.Is(err, storage.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "movie not found"})
		default:
			slog.Error("failed to record interaction", "user_id", userID, "movie_id", movieID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error: "failed to record interaction",
			})
		}
	}
	return c.JSON(fiber.Map{"message": "Preference updated"})
}

// LikedMovies returns the user's liked movies, skipping stale references.
// @Summary Get liked movies
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Movie
// @Failure 500 {object} ErrorResponse
// @Router /users/{id}/liked [get]
func (h *UserHandler) LikedMovies(c fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}

	movies, err := h.users.LikedMovies(userID)
	if err != nil {
		slog.Error("failed to get liked movies", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to retrieve liked movies",
		})
	}
	return c.JSON(movies)
}

// Stats returns the user's summary statistics.
// @Summary Get user statistics
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.StatsResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{id}/stats [get]
func (h *UserHandler) Stats(c fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}

	stats, err := h.users.Stats(userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "user preferences not found"})
		}
		slog.Error("failed to get stats", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to retrieve statistics",
		})
	}
	return c.JSON(stats)
}

// Recommendations returns a personalized ranked slate of unseen movies.
// @Summary Get recommendations
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Requested slate size" default(10)
// @Success 200 {array} models.Movie
// @Failure 500 {object} ErrorResponse
// @Router /users/{id}/recommendations [get]
func (h *UserHandler) Recommendations(c fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}
	limit := fiber.Query(c, "limit", 10)

	movies, err := h.engine.Recommend(userID, limit)
	if err != nil {
		slog.Error("failed to generate recommendations", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to generate recommendations",
		})
	}
	return c.JSON(movies)
}
