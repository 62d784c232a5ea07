package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rafa-porto/MovieSwipe/internal/models"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
)

const (
	movieListCacheTTL   = 5 * time.Minute
	movieDetailCacheTTL = 30 * time.Minute
)

// MetadataProvider is the external movie-metadata boundary. Every call is
// independently failable; callers treat failures as soft.
type MetadataProvider interface {
	DiscoverMovies(page int) ([]models.Movie, error)
	GetMovieDetails(movieID int) (*models.Movie, error)
	ExtendedDetails(movieID int) models.ExtendedDetails
}

// CatalogService serves catalog reads, populating the store lazily from the
// metadata provider on cache miss.
type CatalogService struct {
	store    storage.Store
	provider MetadataProvider
	redis    *redis.Client
}

// NewCatalogService creates a new CatalogService. rdb may be nil; the service
// then runs without response caching.
func NewCatalogService(store storage.Store, provider MetadataProvider, rdb *redis.Client) *CatalogService {
	return &CatalogService{
		store:    store,
		provider: provider,
		redis:    rdb,
	}
}

// ListMovies returns a filtered page of the catalog. An empty result on first
// query means the catalog has not been populated yet, so a provider page is
// fetched and cached before re-querying.
func (s *CatalogService) ListMovies(page, limit int, filters storage.MovieFilters) (*models.MovieListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	cacheKey := listCacheKey(page, limit, filters)
	if cached, err := s.getFromCache(cacheKey); err == nil {
		var result models.MovieListResponse
		if json.Unmarshal([]byte(cached), &result) == nil {
			slog.Debug("cache hit", "key", cacheKey)
			return &result, nil
		}
	}

	opts := storage.QueryOptions{Limit: limit, Offset: offset, Filters: filters}
	movies, err := s.store.QueryMovies(opts)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}

	if len(movies) == 0 {
		fetched, err := s.provider.DiscoverMovies(page)
		if err != nil {
			// Provider unavailability is a soft failure; the caller gets
			// whatever the store holds.
			slog.Warn("provider discover failed", "page", page, "error", err)
		}
		for _, m := range fetched {
			if err := s.store.UpsertMovie(m); err != nil {
				slog.Error("failed to store movie", "id", m.ID, "error", err)
			}
		}
		movies, err = s.store.QueryMovies(opts)
		if err != nil {
			return nil, fmt.Errorf("query movies after fetch: %w", err)
		}
	}

	result := &models.MovieListResponse{
		Movies: movies,
		Pagination: models.Pagination{
			Page:  page,
			Limit: limit,
			Total: len(movies),
		},
	}

	if data, err := json.Marshal(result); err == nil {
		s.setCache(cacheKey, string(data), movieListCacheTTL)
	}
	return result, nil
}

// GetMovie returns a single movie, fetching from the provider and caching on
// store miss. Returns storage.ErrNotFound when the provider has nothing
// either.
func (s *CatalogService) GetMovie(movieID int) (*models.Movie, error) {
	cacheKey := fmt.Sprintf("movie:detail:%d", movieID)
	if cached, err := s.getFromCache(cacheKey); err == nil {
		var m models.Movie
		if json.Unmarshal([]byte(cached), &m) == nil {
			slog.Debug("cache hit", "key", cacheKey)
			return &m, nil
		}
	}

	movie, ok, err := s.store.GetMovie(movieID)
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	if !ok {
		fetched, err := s.provider.GetMovieDetails(movieID)
		if err != nil || fetched == nil {
			if err != nil {
				slog.Warn("provider detail fetch failed", "movie_id", movieID, "error", err)
			}
			return nil, storage.ErrNotFound
		}
		if err := s.store.UpsertMovie(*fetched); err != nil {
			return nil, fmt.Errorf("store movie: %w", err)
		}
		movie = fetched
	}

	if data, err := json.Marshal(movie); err == nil {
		s.setCache(cacheKey, string(data), movieDetailCacheTTL)
	}
	return movie, nil
}

// GetMovieDetails merges the catalog record with extended provider data. The
// extended fetch degrades to placeholders internally, so this only fails when
// the base movie cannot be resolved at all.
func (s *CatalogService) GetMovieDetails(movieID int) (*models.MovieDetailResponse, error) {
	movie, err := s.GetMovie(movieID)
	if err != nil {
		return nil, err
	}

	details := s.provider.ExtendedDetails(movieID)

	resp := &models.MovieDetailResponse{
		Movie:      *movie,
		Cast:       details.Cast,
		Director:   details.Director,
		TrailerURL: details.TrailerURL,
	}
	resp.Runtime = details.Runtime
	resp.StreamingServices = details.StreamingServices
	if len(details.Genres) > 0 {
		resp.Genres = details.Genres
	}
	return resp, nil
}

// SyncMovies bulk-imports pages from the provider into the store.
func (s *CatalogService) SyncMovies(pages int) (int, error) {
	slog.Info("starting provider sync", "pages", pages)

	totalSynced := 0
	for page := 1; page <= pages; page++ {
		movies, err := s.provider.DiscoverMovies(page)
		if err != nil {
			slog.Error("failed to fetch provider page", "page", page, "error", err)
			continue
		}
		for _, m := range movies {
			if err := s.store.UpsertMovie(m); err != nil {
				slog.Error("failed to upsert movie", "title", m.Title, "error", err)
				continue
			}
			totalSynced++
		}
		slog.Info("synced page", "page", page, "movies", len(movies))
	}

	s.invalidateCache()

	slog.Info("provider sync completed", "total_synced", totalSynced)
	return totalSynced, nil
}

func listCacheKey(page, limit int, f storage.MovieFilters) string {
	return fmt.Sprintf("movies:list:%d:%d:%s:%s:%s",
		page, limit,
		strings.Join(f.Genres, ","),
		strings.Join(f.Moods, ","),
		strings.Join(f.StreamingServices, ","))
}

// ---- Redis Helpers ----

func (s *CatalogService) getFromCache(key string) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("redis not available")
	}
	return s.redis.Get(context.Background(), key).Result()
}

func (s *CatalogService) setCache(key, value string, ttl time.Duration) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(context.Background(), key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}

func (s *CatalogService) invalidateCache() {
	if s.redis == nil {
		return
	}
	ctx := context.Background()
	for _, pattern := range []string{"movies:*", "movie:*"} {
		iter := s.redis.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			s.redis.Del(ctx, iter.Val())
		}
	}
	slog.Info("cache invalidated")
}
