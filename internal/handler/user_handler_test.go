package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/rafa-porto/MovieSwipe/internal/models"
	"github.com/rafa-porto/MovieSwipe/internal/recommend"
	"github.com/rafa-porto/MovieSwipe/internal/service"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
)

func newTestApp(t *testing.T) (*fiber.App, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	for _, m := range []models.Movie{
		{ID: 10, Title: "Night Harbor", Genres: []string{"Thriller"}, VoteAverage: 7.4, StreamingServices: []string{"Netflix"}},
		{ID: 11, Title: "Paper Crowns", Genres: []string{"Drama"}, VoteAverage: 8.2, StreamingServices: []string{"Prime"}},
	} {
		if err := store.UpsertMovie(m); err != nil {
			t.Fatalf("UpsertMovie(%d): %v", m.ID, err)
		}
	}

	users := service.NewUserService(store)
	engine := recommend.NewEngine(store)
	userHandler := NewUserHandler(users, engine)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Get("/init", userHandler.Init)
	api.Post("/movies/:id/interact", userHandler.Interact)
	api.Get("/users/:id/liked", userHandler.LikedMovies)
	api.Get("/users/:id/stats", userHandler.Stats)
	api.Get("/users/:id/recommendations", userHandler.Recommendations)
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestInteract_InvalidAction(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/movies/10/interact", `{"action":"meh"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body ErrorResponse
	decodeBody(t, resp, &body)
	if body.Error == "" {
		t.Error("error body is empty")
	}
}

func TestInteract_UnknownMovie(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/movies/999/interact", `{"action":"liked"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestInteract_BadMovieID(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/movies/abc/interact", `{"action":"liked"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInteract_DefaultsUserAndRecordsLike(t *testing.T) {
	app, _ := newTestApp(t)

	// No userId in the body: the default user is used
	resp := doJSON(t, app, http.MethodPost, "/api/v1/movies/10/interact", `{"action":"liked"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/users/1/liked", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("liked status = %d, want 200", resp.StatusCode)
	}
	var liked []models.Movie
	decodeBody(t, resp, &liked)
	if len(liked) != 1 || liked[0].ID != 10 {
		t.Errorf("liked = %+v, want the single liked movie", liked)
	}
}

func TestStats_UnknownUser(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/users/42/stats", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStats_AfterInteractions(t *testing.T) {
	app, _ := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/api/v1/movies/10/interact", `{"action":"liked"}`).Body.Close()
	doJSON(t, app, http.MethodPost, "/api/v1/movies/11/interact", `{"action":"disliked"}`).Body.Close()

	resp := doJSON(t, app, http.MethodGet, "/api/v1/users/1/stats", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var stats models.StatsResponse
	decodeBody(t, resp, &stats)
	if stats.MoviesViewed != 2 || stats.Favorites != 1 {
		t.Errorf("stats = %+v, want 2 viewed / 1 favorite", stats)
	}
	if stats.LikeRate != 50 {
		t.Errorf("likeRate = %d, want 50", stats.LikeRate)
	}
}

func TestInit_Idempotent(t *testing.T) {
	app, store := newTestApp(t)

	for i := 0; i < 2; i++ {
		resp := doJSON(t, app, http.MethodGet, "/api/v1/init", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("init #%d status = %d, want 200", i+1, resp.StatusCode)
		}
		resp.Body.Close()
	}

	if _, ok, err := store.GetUser(service.DefaultUserID); err != nil || !ok {
		t.Fatalf("default user missing after init: ok=%v err=%v", ok, err)
	}
}

func TestRecommendations_FreshUser(t *testing.T) {
	app, _ := newTestApp(t)

	doJSON(t, app, http.MethodGet, "/api/v1/init", "").Body.Close()

	resp := doJSON(t, app, http.MethodGet, "/api/v1/users/1/recommendations?limit=2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var movies []models.Movie
	decodeBody(t, resp, &movies)
	if len(movies) != 2 {
		t.Errorf("got %d recommendations, want 2", len(movies))
	}
}
