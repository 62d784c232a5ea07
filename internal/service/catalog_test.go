package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rafa-porto/MovieSwipe/internal/models"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
)

// fakeProvider is a scripted MetadataProvider.
type fakeProvider struct {
	pages         map[int][]models.Movie
	details       map[int]models.Movie
	extended      map[int]models.ExtendedDetails
	discoverCalls int
	failDiscover  bool
}

func (f *fakeProvider) DiscoverMovies(page int) ([]models.Movie, error) {
	f.discoverCalls++
	if f.failDiscover {
		return nil, errors.New("provider down")
	}
	return f.pages[page], nil
}

func (f *fakeProvider) GetMovieDetails(movieID int) (*models.Movie, error) {
	m, ok := f.details[movieID]
	if !ok {
		return nil, fmt.Errorf("movie %d not found upstream", movieID)
	}
	return &m, nil
}

func (f *fakeProvider) ExtendedDetails(movieID int) models.ExtendedDetails {
	if d, ok := f.extended[movieID]; ok {
		return d
	}
	// Same defaults the real client degrades to
	return models.ExtendedDetails{
		Cast:              []models.CastMember{},
		Director:          "Not available",
		Runtime:           120,
		Genres:            []string{},
		StreamingServices: []string{"Netflix"},
	}
}

func TestListMovies_FetchesOnEmptyCatalog(t *testing.T) {
	store := storage.NewMemoryStore()
	provider := &fakeProvider{
		pages: map[int][]models.Movie{
			1: {
				{ID: 1, Title: "First Light", Genres: []string{"Drama"}},
				{ID: 2, Title: "Second Sun", Genres: []string{"Sci-Fi"}},
			},
		},
	}
	svc := NewCatalogService(store, provider, nil)

	result, err := svc.ListMovies(1, 10, storage.MovieFilters{})
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	if provider.discoverCalls != 1 {
		t.Errorf("discover calls = %d, want 1", provider.discoverCalls)
	}
	if len(result.Movies) != 2 {
		t.Fatalf("movies = %d, want 2", len(result.Movies))
	}
	if result.Pagination.Page != 1 || result.Pagination.Total != 2 {
		t.Errorf("pagination = %+v", result.Pagination)
	}

	// Fetched movies are now in the store; no second provider call
	if _, err := svc.ListMovies(1, 10, storage.MovieFilters{}); err != nil {
		t.Fatalf("second ListMovies: %v", err)
	}
	if provider.discoverCalls != 1 {
		t.Errorf("discover calls after warm catalog = %d, want 1", provider.discoverCalls)
	}
}

func TestListMovies_ProviderFailureIsSoft(t *testing.T) {
	store := storage.NewMemoryStore()
	provider := &fakeProvider{failDiscover: true}
	svc := NewCatalogService(store, provider, nil)

	result, err := svc.ListMovies(1, 10, storage.MovieFilters{})
	if err != nil {
		t.Fatalf("ListMovies must not propagate provider failure, got %v", err)
	}
	if len(result.Movies) != 0 {
		t.Errorf("movies = %d, want 0", len(result.Movies))
	}
}

func TestGetMovie_FetchAndCacheOnMiss(t *testing.T) {
	store := storage.NewMemoryStore()
	provider := &fakeProvider{
		details: map[int]models.Movie{
			42: {ID: 42, Title: "The Answer", Genres: []string{"Documentary"}},
		},
	}
	svc := NewCatalogService(store, provider, nil)

	movie, err := svc.GetMovie(42)
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if movie.Title != "The Answer" {
		t.Errorf("title = %q", movie.Title)
	}

	// The miss populated the store
	if _, ok, _ := store.GetMovie(42); !ok {
		t.Error("movie was not cached in the store")
	}
}

func TestGetMovie_NotFoundAnywhere(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewCatalogService(store, &fakeProvider{}, nil)

	if _, err := svc.GetMovie(7); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetMovieDetails_MergesExtendedData(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.UpsertMovie(models.Movie{
		ID: 5, Title: "Harborline", Runtime: 95,
		Genres:            []string{"Thriller"},
		StreamingServices: []string{"Hulu"},
	}); err != nil {
		t.Fatalf("UpsertMovie: %v", err)
	}
	provider := &fakeProvider{
		extended: map[int]models.ExtendedDetails{
			5: {
				Cast:              []models.CastMember{{Name: "Ada Vale", Character: "Captain"}},
				Director:          "R. Moreno",
				TrailerURL:        "https://www.youtube.com/embed/abc123",
				Runtime:           112,
				Genres:            []string{"Thriller", "Mystery"},
				StreamingServices: []string{"Netflix", "Prime"},
			},
		},
	}
	svc := NewCatalogService(store, provider, nil)

	details, err := svc.GetMovieDetails(5)
	if err != nil {
		t.Fatalf("GetMovieDetails: %v", err)
	}
	if details.Director != "R. Moreno" || len(details.Cast) != 1 {
		t.Errorf("credits not merged: %+v", details)
	}
	if details.Runtime != 112 {
		t.Errorf("runtime = %d, want extended 112", details.Runtime)
	}
	if len(details.Genres) != 2 {
		t.Errorf("genres = %v, want extended pair", details.Genres)
	}
}

func TestGetMovieDetails_ExtendedFailureDegrades(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.UpsertMovie(models.Movie{
		ID: 6, Title: "Low Tide", Genres: []string{"Drama"},
	}); err != nil {
		t.Fatalf("UpsertMovie: %v", err)
	}
	svc := NewCatalogService(store, &fakeProvider{}, nil)

	details, err := svc.GetMovieDetails(6)
	if err != nil {
		t.Fatalf("GetMovieDetails must degrade, got %v", err)
	}
	if details.Director != "Not available" {
		t.Errorf("director = %q, want placeholder", details.Director)
	}
	if details.Runtime != 120 {
		t.Errorf("runtime = %d, want default 120", details.Runtime)
	}
	if len(details.Genres) != 1 || details.Genres[0] != "Drama" {
		t.Errorf("genres = %v, want the base record's", details.Genres)
	}
}

func TestSyncMovies_CountsUpserts(t *testing.T) {
	store := storage.NewMemoryStore()
	provider := &fakeProvider{
		pages: map[int][]models.Movie{
			1: {{ID: 1, Title: "A"}, {ID: 2, Title: "B"}},
			2: {{ID: 3, Title: "C"}},
		},
	}
	svc := NewCatalogService(store, provider, nil)

	count, err := svc.SyncMovies(2)
	if err != nil {
		t.Fatalf("SyncMovies: %v", err)
	}
	if count != 3 {
		t.Errorf("synced = %d, want 3", count)
	}
	if ids := mustQueryIDs(t, store); len(ids) != 3 {
		t.Errorf("store holds %d movies, want 3", len(ids))
	}
}

func mustQueryIDs(t *testing.T, store storage.Store) []int {
	t.Helper()
	movies, err := store.QueryMovies(storage.QueryOptions{})
	if err != nil {
		t.Fatalf("QueryMovies: %v", err)
	}
	ids := make([]int, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	return ids
}
