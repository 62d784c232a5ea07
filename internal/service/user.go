package service

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/rafa-porto/MovieSwipe/internal/models"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
)

// DefaultUserID is the single demo user.
const DefaultUserID = 1

// ErrInvalidAction is returned for interaction actions outside the
// liked/disliked enum.
var ErrInvalidAction = fmt.Errorf("action must be %q or %q", models.ActionLiked, models.ActionDisliked)

// UserService handles preference mutations, activity and user statistics.
type UserService struct {
	store storage.Store
}

// NewUserService creates a new UserService.
func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// Init ensures the default demo user and an empty preference record exist.
// Idempotent.
func (s *UserService) Init() error {
	_, ok, err := s.store.GetUser(DefaultUserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !ok {
		if _, err := s.store.CreateUser(models.User{ID: DefaultUserID, Username: "demo_user"}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
	}

	_, ok, err = s.store.GetPreferences(DefaultUserID)
	if err != nil {
		return fmt.Errorf("get preferences: %w", err)
	}
	if !ok {
		if _, err := s.store.CreatePreferences(emptyPreferences(DefaultUserID)); err != nil {
			return fmt.Errorf("create preferences: %w", err)
		}
	}
	return nil
}

// Interact records a like/dislike for a movie. Movie actions are exclusive:
// an action removes the movie from the opposite list and keeps the genre and
// service counters in sync with the current liked set. Repeating the same
// action is a no-op on the preference record; the activity log always gets an
// entry.
func (s *UserService) Interact(userID, movieID int, action string) error {
	if !models.ValidActions[action] {
		return ErrInvalidAction
	}

	movie, ok, err := s.store.GetMovie(movieID)
	if err != nil {
		return fmt.Errorf("get movie: %w", err)
	}
	if !ok {
		return storage.ErrNotFound
	}

	prefs, ok, err := s.store.GetPreferences(userID)
	if err != nil {
		return fmt.Errorf("get preferences: %w", err)
	}
	if !ok {
		prefs, err = s.store.CreatePreferences(emptyPreferences(userID))
		if err != nil {
			return fmt.Errorf("create preferences: %w", err)
		}
	}

	update, changed := applyInteraction(prefs, movie, action)
	if changed {
		if _, err := s.store.UpdatePreferences(userID, update); err != nil {
			return fmt.Errorf("update preferences: %w", err)
		}
	}

	if _, err := s.store.AppendActivity(models.UserActivity{
		UserID:  userID,
		MovieID: movieID,
		Action:  action,
	}); err != nil {
		slog.Error("failed to record activity", "user_id", userID, "movie_id", movieID, "error", err)
	}
	return nil
}

// applyInteraction computes the preference update for one interaction.
// Returns changed=false when the action is a repeat and nothing moves.
func applyInteraction(prefs *models.UserPreference, movie *models.Movie, action string) (models.PreferenceUpdate, bool) {
	liked := append([]int{}, prefs.LikedMovies...)
	disliked := append([]int{}, prefs.DislikedMovies...)
	genres := copyCounts(prefs.LikedGenres)
	services := copyCounts(prefs.StreamingServices)

	if action == models.ActionLiked {
		if containsInt(liked, movie.ID) {
			return models.PreferenceUpdate{}, false
		}
		liked = append(liked, movie.ID)
		disliked = removeInt(disliked, movie.ID)
		for _, g := range movie.Genres {
			genres[g]++
		}
		for _, sv := range movie.StreamingServices {
			services[sv]++
		}
	} else {
		if containsInt(disliked, movie.ID) {
			return models.PreferenceUpdate{}, false
		}
		disliked = append(disliked, movie.ID)
		if containsInt(liked, movie.ID) {
			// Withdraw the earlier like and the counters it contributed.
			liked = removeInt(liked, movie.ID)
			for _, g := range movie.Genres {
				decrement(genres, g)
			}
			for _, sv := range movie.StreamingServices {
				decrement(services, sv)
			}
		}
	}

	return models.PreferenceUpdate{
		LikedMovies:       liked,
		DislikedMovies:    disliked,
		LikedGenres:       genres,
		StreamingServices: services,
	}, true
}

// LikedMovies resolves the user's liked IDs to movie records, skipping any
// stale reference.
func (s *UserService) LikedMovies(userID int) ([]models.Movie, error) {
	prefs, ok, err := s.store.GetPreferences(userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	if !ok {
		return []models.Movie{}, nil
	}

	movies := []models.Movie{}
	for _, id := range prefs.LikedMovies {
		m, ok, err := s.store.GetMovie(id)
		if err != nil {
			return nil, fmt.Errorf("get movie: %w", err)
		}
		if ok {
			movies = append(movies, *m)
		}
	}
	return movies, nil
}

// Stats derives the user's summary statistics. Returns storage.ErrNotFound
// when no preference record exists.
func (s *UserService) Stats(userID int) (*models.StatsResponse, error) {
	prefs, ok, err := s.store.GetPreferences(userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	if !ok {
		return nil, storage.ErrNotFound
	}

	activities, err := s.store.GetActivity(userID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}

	likedCount := len(prefs.LikedMovies)
	dislikedCount := len(prefs.DislikedMovies)
	totalMovies := likedCount + dislikedCount

	likeRate := 0
	if totalMovies > 0 {
		likeRate = int(float64(likedCount)/float64(totalMovies)*100 + 0.5)
	}

	var totalRating float64
	ratedMovies := 0
	for _, id := range prefs.LikedMovies {
		m, ok, err := s.store.GetMovie(id)
		if err != nil {
			return nil, fmt.Errorf("get movie: %w", err)
		}
		if ok && m.VoteAverage > 0 {
			totalRating += m.VoteAverage
			ratedMovies++
		}
	}
	avgRating := "0.0"
	if ratedMovies > 0 {
		avgRating = fmt.Sprintf("%.1f", totalRating/float64(ratedMovies))
	}

	topGenres := topCounts(prefs.LikedGenres, 3)
	genreStats := make([]models.GenreStat, 0, len(topGenres))
	for _, entry := range topGenres {
		percentage := 0
		if totalMovies > 0 {
			percentage = int(float64(entry.count)/float64(totalMovies)*100 + 0.5)
		}
		genreStats = append(genreStats, models.GenreStat{
			Genre:      entry.name,
			Count:      entry.count,
			Percentage: percentage,
		})
	}

	serviceStats := []models.ServiceStat{}
	for _, entry := range topCounts(prefs.StreamingServices, 0) {
		serviceStats = append(serviceStats, models.ServiceStat{
			Service: entry.name,
			Count:   entry.count,
		})
	}

	// Most recent first, top 5, with resolved titles.
	sort.Slice(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > 5 {
		activities = activities[:5]
	}
	recent := make([]models.ActivityStat, 0, len(activities))
	for _, a := range activities {
		title := "Unknown Movie"
		if m, ok, err := s.store.GetMovie(a.MovieID); err == nil && ok {
			title = m.Title
		}
		recent = append(recent, models.ActivityStat{
			Action:     a.Action,
			MovieTitle: title,
			Timestamp:  a.Timestamp,
		})
	}

	return &models.StatsResponse{
		MoviesViewed:      totalMovies,
		Favorites:         likedCount,
		LikeRate:          likeRate,
		AvgRating:         avgRating,
		TopGenres:         genreStats,
		StreamingServices: serviceStats,
		RecentActivity:    recent,
	}, nil
}

func emptyPreferences(userID int) models.UserPreference {
	return models.UserPreference{
		UserID:            userID,
		LikedGenres:       map[string]int{},
		LikedMovies:       []int{},
		DislikedMovies:    []int{},
		StreamingServices: map[string]int{},
	}
}

type countEntry struct {
	name  string
	count int
}

// topCounts sorts a counter map by count descending (name ascending on ties)
// and keeps the first n entries; n <= 0 keeps all.
func topCounts(counts map[string]int, n int) []countEntry {
	entries := make([]countEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, countEntry{name: name, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func copyCounts(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func decrement(counts map[string]int, key string) {
	if counts[key] <= 1 {
		delete(counts, key)
		return
	}
	counts[key]--
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeInt(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
