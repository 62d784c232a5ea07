package models

import "time"

// User represents a registered user. Single demo user in practice.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Interaction actions.
const (
	ActionLiked    = "liked"
	ActionDisliked = "disliked"
)

// ValidActions enumerates the accepted interaction actions.
var ValidActions = map[string]bool{
	ActionLiked:    true,
	ActionDisliked: true,
}

// UserPreference aggregates a user's accumulated taste signals. LikedMovies
// and DislikedMovies preserve insertion order and are kept disjoint: an
// interaction removes the movie from the opposite list, and the counter maps
// always equal the sums over the current liked set.
type UserPreference struct {
	ID                int            `json:"id"`
	UserID            int            `json:"user_id"`
	LikedGenres       map[string]int `json:"liked_genres"`
	LikedMovies       []int          `json:"liked_movies"`
	DislikedMovies    []int          `json:"disliked_movies"`
	StreamingServices map[string]int `json:"streaming_services"`
}

// PreferenceUpdate is a partial update applied over an existing preference
// record. Nil fields are left untouched; map fields are replaced wholesale,
// so callers must read-modify-write the whole map.
type PreferenceUpdate struct {
	LikedGenres       map[string]int
	LikedMovies       []int
	DislikedMovies    []int
	StreamingServices map[string]int
}

// UserActivity is one append-only interaction record.
type UserActivity struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"user_id"`
	MovieID   int       `json:"movie_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// InteractionRequest is the request body for POST /movies/:id/interact.
type InteractionRequest struct {
	Action string `json:"action"`
	UserID int    `json:"userId"`
}

// GenreStat is one entry of the top-genres stats block.
type GenreStat struct {
	Genre      string `json:"genre"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// ServiceStat is one entry of the streaming-services stats block.
type ServiceStat struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
}

// ActivityStat is one resolved entry of the recent-activity stats block.
type ActivityStat struct {
	Action     string    `json:"action"`
	MovieTitle string    `json:"movieTitle"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatsResponse is the user statistics summary.
type StatsResponse struct {
	MoviesViewed      int            `json:"moviesViewed"`
	Favorites         int            `json:"favorites"`
	LikeRate          int            `json:"likeRate"`
	AvgRating         string         `json:"avgRating"`
	TopGenres         []GenreStat    `json:"topGenres"`
	StreamingServices []ServiceStat  `json:"streamingServices"`
	RecentActivity    []ActivityStat `json:"recentActivity"`
}
