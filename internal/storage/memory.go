package storage

import (
	"strings"
	"sync"
	"time"

	"github.com/rafa-porto/MovieSwipe/internal/models"
)

// MemoryStore keeps all state in process memory. It is the default backend:
// nothing survives a restart. Fiber handlers run on parallel goroutines, so
// every method takes the mutex.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[int]models.User
	movies     map[int]models.Movie
	movieOrder []int
	prefs      map[int]models.UserPreference
	activities []models.UserActivity
	nextUserID int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int]models.User),
		movies:     make(map[int]models.Movie),
		prefs:      make(map[int]models.UserPreference),
		nextUserID: 1,
	}
}

func (s *MemoryStore) GetUser(id int) (*models.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (s *MemoryStore) CreateUser(user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		user.ID = s.nextUserID
	}
	if user.ID >= s.nextUserID {
		s.nextUserID = user.ID + 1
	}
	s.users[user.ID] = user
	return &user, nil
}

func (s *MemoryStore) GetMovie(id int) (*models.Movie, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[id]
	if !ok {
		return nil, false, nil
	}
	return &m, true, nil
}

// UpsertMovie inserts or overwrites by ID. Insertion order is preserved for
// queries; an overwrite keeps the original position.
func (s *MemoryStore) UpsertMovie(movie models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if movie.Genres == nil {
		movie.Genres = []string{}
	}
	if movie.StreamingServices == nil {
		movie.StreamingServices = []string{}
	}
	if _, exists := s.movies[movie.ID]; !exists {
		s.movieOrder = append(s.movieOrder, movie.ID)
	}
	s.movies[movie.ID] = movie
	return nil
}

func (s *MemoryStore) QueryMovies(opts QueryOptions) ([]models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movies := make([]models.Movie, 0, len(s.movieOrder))
	for _, id := range s.movieOrder {
		movies = append(movies, s.movies[id])
	}

	f := opts.Filters

	if len(f.ExcludeIDs) > 0 {
		excluded := make(map[int]bool, len(f.ExcludeIDs))
		for _, id := range f.ExcludeIDs {
			excluded[id] = true
		}
		movies = keep(movies, func(m models.Movie) bool {
			return !excluded[m.ID]
		})
	}

	if len(f.Genres) > 0 {
		movies = keep(movies, func(m models.Movie) bool {
			return anyContains(m.Genres, f.Genres)
		})
	}

	if len(f.Moods) > 0 {
		movies = keep(movies, func(m models.Movie) bool {
			return m.Mood != "" && containsAny(m.Mood, f.Moods)
		})
	}

	if len(f.StreamingServices) > 0 {
		movies = keep(movies, func(m models.Movie) bool {
			return anyContains(m.StreamingServices, f.StreamingServices)
		})
	}

	// Pagination after all filters
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(movies) {
		return []models.Movie{}, nil
	}
	movies = movies[offset:]

	if opts.Limit > 0 && opts.Limit < len(movies) {
		movies = movies[:opts.Limit]
	}
	return movies, nil
}

func keep(movies []models.Movie, pred func(models.Movie) bool) []models.Movie {
	out := movies[:0:0]
	for _, m := range movies {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

// containsAny reports whether value contains any of the wanted terms,
// case-insensitively. Substring match is deliberate: "Sci" matches "Sci-Fi".
func containsAny(value string, wanted []string) bool {
	lower := strings.ToLower(value)
	for _, w := range wanted {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func anyContains(values, wanted []string) bool {
	for _, v := range values {
		if containsAny(v, wanted) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) GetPreferences(userID int) (*models.UserPreference, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

// CreatePreferences stores the record keyed by user ID, overwriting any
// existing one. Callers are expected to check existence first.
func (s *MemoryStore) CreatePreferences(pref models.UserPreference) (*models.UserPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pref.ID == 0 {
		pref.ID = int(time.Now().UnixMilli())
	}
	normalizePreference(&pref)
	s.prefs[pref.UserID] = pref
	return &pref, nil
}

func (s *MemoryStore) UpdatePreferences(userID int, update models.PreferenceUpdate) (*models.UserPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.prefs[userID]
	if !ok {
		return nil, ErrNotFound
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

	s.prefs[userID] = current
	return &current, nil
}

func normalizePreference(p *models.UserPreference) {
	if p.LikedGenres == nil {
		p.LikedGenres = map[string]int{}
	}
	if p.LikedMovies == nil {
		p.LikedMovies = []int{}
	}
	if p.DislikedMovies == nil {
		p.DislikedMovies = []int{}
	}
	if p.StreamingServices == nil {
		p.StreamingServices = map[string]int{}
	}
}

func (s *MemoryStore) AppendActivity(activity models.UserActivity) (*models.UserActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if activity.ID == 0 {
		activity.ID = time.Now().UnixNano()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now()
	}
	s.activities = append(s.activities, activity)
	return &activity, nil
}

// GetActivity returns the user's activity records in append order. Callers
// sort as needed.
func (s *MemoryStore) GetActivity(userID int) ([]models.UserActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.UserActivity{}
	for _, a := range s.activities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}
