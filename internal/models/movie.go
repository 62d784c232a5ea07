package models

// Movie represents a movie in the catalog. The ID is the TMDB ID and doubles
// as the primary key.
type Movie struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	Overview          string   `json:"overview"`
	PosterPath        string   `json:"poster_path"`
	BackdropPath      string   `json:"backdrop_path"`
	ReleaseDate       string   `json:"release_date"`
	VoteAverage       float64  `json:"vote_average"`
	Runtime           int      `json:"runtime"`
	Genres            []string `json:"genres"`
	Mood              string   `json:"mood,omitempty"`
	StreamingServices []string `json:"streaming_services"`
}

// CastMember is an actor credit on a movie.
type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// ExtendedDetails holds the extra movie data fetched on demand for the
// detail view. Every field has a safe default so a provider failure never
// voids the response.
type ExtendedDetails struct {
	Cast              []CastMember `json:"cast"`
	Director          string       `json:"director"`
	TrailerURL        string       `json:"trailer_url"`
	Runtime           int          `json:"runtime"`
	Genres            []string     `json:"genres"`
	StreamingServices []string     `json:"streaming_services"`
}

// MovieDetailResponse merges a catalog movie with its extended details.
type MovieDetailResponse struct {
	Movie
	Cast       []CastMember `json:"cast"`
	Director   string       `json:"director"`
	TrailerURL string       `json:"trailer_url"`
}

// Pagination describes the page window of a movie listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// MovieListResponse is the paginated movie listing response.
type MovieListResponse struct {
	Movies     []Movie    `json:"movies"`
	Pagination Pagination `json:"pagination"`
}
