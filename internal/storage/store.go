package storage

import (
	"errors"

	"github.com/rafa-porto/MovieSwipe/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// MovieFilters narrows a catalog query. Dimensions are conjunctive with each
// other; values within a dimension are disjunctive. Genre, mood and service
// matching is case-insensitive substring containment, not exact equality.
type MovieFilters struct {
	Genres            []string
	Moods             []string
	StreamingServices []string
	ExcludeIDs        []int
}

// QueryOptions controls pagination of a catalog query. Pagination is applied
// after all filters. Limit <= 0 means no limit.
type QueryOptions struct {
	Limit   int
	Offset  int
	Filters MovieFilters
}

// Store is the repository boundary for all application state. The default
// implementation is in-memory; a Postgres-backed one can be substituted
// without touching the recommendation engine.
type Store interface {
	// Users
	GetUser(id int) (*models.User, bool, error)
	CreateUser(user models.User) (*models.User, error)

	// Movies
	GetMovie(id int) (*models.Movie, bool, error)
	UpsertMovie(movie models.Movie) error
	QueryMovies(opts QueryOptions) ([]models.Movie, error)

	// Preferences
	GetPreferences(userID int) (*models.UserPreference, bool, error)
	CreatePreferences(pref models.UserPreference) (*models.UserPreference, error)
	// UpdatePreferences shallow-merges the non-nil fields of the update over
	// the existing record. Returns ErrNotFound if no record exists.
	UpdatePreferences(userID int, update models.PreferenceUpdate) (*models.UserPreference, error)

	// Activity
	AppendActivity(activity models.UserActivity) (*models.UserActivity, error)
	GetActivity(userID int) ([]models.UserActivity, error)
}
