package tmdb

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/rafa-porto/MovieSwipe/internal/models"
)

const (
	posterBaseURL  = "https://image.tmdb.org/t/p/w500"
	profileBaseURL = "https://image.tmdb.org/t/p/w200"
)

// Client is the TMDB API client.
type Client struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	randFloat func() float64
}

// NewClient creates a new TMDB API client.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		randFloat: rand.Float64,
	}
}

// ---- TMDB Response Types (internal, not exposed to consumers) ----

type discoverResponse struct {
	Page         int         `json:"page"`
	Results      []tmdbMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type tmdbMovie struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	Overview     string      `json:"overview"`
	ReleaseDate  string      `json:"release_date"`
	VoteAverage  float64     `json:"vote_average"`
	PosterPath   string      `json:"poster_path"`
	BackdropPath string      `json:"backdrop_path"`
	GenreIDs     []int       `json:"genre_ids"`
	Genres       []tmdbGenre `json:"genres"`
	Runtime      int         `json:"runtime"`
}

type tmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreListResponse struct {
	Genres []tmdbGenre `json:"genres"`
}

type creditsResponse struct {
	Cast []struct {
		Name        string `json:"name"`
		Character   string `json:"character"`
		ProfilePath string `json:"profile_path"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

type videosResponse struct {
	Results []tmdbVideo `json:"results"`
}

type tmdbVideo struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// ---- Client Methods ----

// DiscoverMovies fetches a page of popular movies and transforms them into
// catalog records.
func (c *Client) DiscoverMovies(page int) ([]models.Movie, error) {
	url := fmt.Sprintf(
		"%s/discover/movie?api_key=%s&language=en-US&sort_by=popularity.desc&include_adult=false&include_video=false&page=%d",
		c.baseURL, c.apiKey, page,
	)

	slog.Debug("fetching TMDB discover", "page", page)
	resp, err := c.doGet(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result discoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode discover response: %w", err)
	}

	genres := c.genreTaxonomy()
	movies := make([]models.Movie, 0, len(result.Results))
	for _, m := range result.Results {
		movies = append(movies, c.transformMovie(m, genres))
	}
	return movies, nil
}

// GetMovieDetails fetches a single movie by TMDB ID.
func (c *Client) GetMovieDetails(movieID int) (*models.Movie, error) {
	url := fmt.Sprintf("%s/movie/%d?api_key=%s&language=en-US", c.baseURL, movieID, c.apiKey)

	slog.Debug("fetching TMDB movie detail", "movie_id", movieID)
	resp, err := c.doGet(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result tmdbMovie
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode movie detail response: %w", err)
	}

	movie := c.transformMovie(result, c.genreTaxonomy())
	return &movie, nil
}

// genreTaxonomy fetches the TMDB genre list, falling back to the static map
// when the provider is unavailable.
func (c *Client) genreTaxonomy() map[int]string {
	url := fmt.Sprintf("%s/genre/movie/list?api_key=%s&language=en-US", c.baseURL, c.apiKey)

	resp, err := c.doGet(url)
	if err != nil {
		slog.Warn("genre taxonomy fetch failed, using defaults", "error", err)
		return defaultGenreMap
	}
	defer resp.Body.Close()

	var result genreListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Warn("genre taxonomy decode failed, using defaults", "error", err)
		return defaultGenreMap
	}

	taxonomy := make(map[int]string, len(result.Genres))
	for _, g := range result.Genres {
		taxonomy[g.ID] = g.Name
	}
	return taxonomy
}

func (c *Client) getCredits(movieID int) (*creditsResponse, error) {
	url := fmt.Sprintf("%s/movie/%d/credits?api_key=%s&language=en-US", c.baseURL, movieID, c.apiKey)

	resp, err := c.doGet(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result creditsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode credits response: %w", err)
	}
	return &result, nil
}

func (c *Client) getVideos(movieID int, language string) ([]tmdbVideo, error) {
	url := fmt.Sprintf("%s/movie/%d/videos?api_key=%s&language=%s", c.baseURL, movieID, c.apiKey, language)

	resp, err := c.doGet(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode videos response: %w", err)
	}
	return result.Results, nil
}

// ExtendedDetails fetches cast, director, trailer and runtime for a movie.
// Each upstream call is independently fallible and degrades to its own
// default, so a credits failure never voids a successful trailer fetch.
// This method never returns an error.
func (c *Client) ExtendedDetails(movieID int) models.ExtendedDetails {
	details := models.ExtendedDetails{
		Cast:              []models.CastMember{},
		Director:          "Not available",
		TrailerURL:        "",
		Runtime:           120,
		Genres:            []string{},
		StreamingServices: []string{"Netflix"},
	}

	// Step 1: base detail (runtime, genres)
	if detail, err := c.fetchRawDetail(movieID); err != nil {
		slog.Warn("extended details: detail fetch failed", "movie_id", movieID, "error", err)
	} else {
		if detail.Runtime > 0 {
			details.Runtime = detail.Runtime
		}
		genres := make([]string, 0, len(detail.Genres))
		for _, g := range detail.Genres {
			genres = append(genres, g.Name)
		}
		details.Genres = genres
		details.StreamingServices = c.randomServices(3)
	}

	// Step 2: credits (cast + director)
	if credits, err := c.getCredits(movieID); err != nil {
		slog.Warn("extended details: credits fetch failed", "movie_id", movieID, "error", err)
	} else {
		cast := credits.Cast
		if len(cast) > 10 {
			cast = cast[:10]
		}
		for _, person := range cast {
			member := models.CastMember{Name: person.Name, Character: person.Character}
			if person.ProfilePath != "" {
				member.ProfilePath = profileBaseURL + person.ProfilePath
			}
			details.Cast = append(details.Cast, member)
		}
		for _, person := range credits.Crew {
			if person.Job == "Director" {
				details.Director = person.Name
				break
			}
		}
	}

	// Step 3: videos, primary language first then fallback
	videos, err := c.getVideos(movieID, "en-US")
	if err != nil {
		slog.Warn("extended details: videos fetch failed", "movie_id", movieID, "error", err)
	}
	if len(videos) == 0 {
		if fallback, err := c.getVideos(movieID, "pt-BR"); err == nil {
			videos = fallback
		}
	}
	if trailer := pickTrailer(videos); trailer != nil {
		details.TrailerURL = "https://www.youtube.com/embed/" + trailer.Key
	}

	return details
}

// pickTrailer prefers official YouTube trailers, then any YouTube trailer,
// then any YouTube video.
func pickTrailer(videos []tmdbVideo) *tmdbVideo {
	var anyTrailer, anyVideo *tmdbVideo
	for i := range videos {
		v := &videos[i]
		if v.Site != "YouTube" {
			continue
		}
		if anyVideo == nil {
			anyVideo = v
		}
		if v.Type == "Trailer" {
			if anyTrailer == nil {
				anyTrailer = v
			}
			name := strings.ToLower(v.Name)
			if strings.Contains(name, "official") || strings.Contains(name, "oficial") {
				return v
			}
		}
	}
	if anyTrailer != nil {
		return anyTrailer
	}
	return anyVideo
}

func (c *Client) fetchRawDetail(movieID int) (*tmdbMovie, error) {
	url := fmt.Sprintf("%s/movie/%d?api_key=%s&language=en-US", c.baseURL, movieID, c.apiKey)

	resp, err := c.doGet(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result tmdbMovie
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode movie detail response: %w", err)
	}
	return &result, nil
}

func (c *Client) doGet(url string) (*http.Response, error) {
	resp, err := c.http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("TMDB API returned status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}
