package tmdb

import "github.com/rafa-porto/MovieSwipe/internal/models"

// defaultGenreMap is the static TMDB genre taxonomy used when the provider's
// genre list cannot be fetched.
var defaultGenreMap = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Sci-Fi",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// moodMap derives a single mood label from a movie's primary genre.
var moodMap = map[string]string{
	"Action":      "Exciting",
	"Adventure":   "Exciting",
	"Animation":   "Uplifting",
	"Comedy":      "Relaxing",
	"Crime":       "Intense",
	"Documentary": "Thoughtful",
	"Drama":       "Thoughtful",
	"Family":      "Uplifting",
	"Fantasy":     "Uplifting",
	"History":     "Thoughtful",
	"Horror":      "Intense",
	"Music":       "Relaxing",
	"Mystery":     "Intense",
	"Romance":     "Relaxing",
	"Sci-Fi":      "Exciting",
	"TV Movie":    "Relaxing",
	"Thriller":    "Intense",
	"War":         "Intense",
	"Western":     "Exciting",
}

// Streaming service availability is not part of the TMDB data; the demo
// assigns services at random, like the reference app.
var streamingServices = []string{"Netflix", "Prime", "Disney+", "Hulu"}

// transformMovie maps a raw TMDB movie into a catalog record.
func (c *Client) transformMovie(m tmdbMovie, taxonomy map[int]string) models.Movie {
	genreIDs := m.GenreIDs
	if len(genreIDs) == 0 {
		for _, g := range m.Genres {
			genreIDs = append(genreIDs, g.ID)
		}
	}

	genres := make([]string, 0, len(genreIDs))
	for _, id := range genreIDs {
		name, ok := taxonomy[id]
		if !ok {
			// Unknown genre IDs fall back to Action
			name = taxonomy[28]
		}
		if name != "" {
			genres = append(genres, name)
		}
	}

	primaryGenre := "Action"
	if len(genres) > 0 {
		primaryGenre = genres[0]
	}
	mood, ok := moodMap[primaryGenre]
	if !ok {
		mood = "Exciting"
	}

	runtime := m.Runtime
	if runtime == 0 {
		// 90-149 minutes when TMDB has no runtime
		runtime = int(c.randFloat()*60) + 90
	}

	poster := ""
	if m.PosterPath != "" {
		poster = posterBaseURL + m.PosterPath
	}
	backdrop := ""
	if m.BackdropPath != "" {
		backdrop = posterBaseURL + m.BackdropPath
	}

	return models.Movie{
		ID:                m.ID,
		Title:             m.Title,
		Overview:          m.Overview,
		PosterPath:        poster,
		BackdropPath:      backdrop,
		ReleaseDate:       m.ReleaseDate,
		VoteAverage:       m.VoteAverage,
		Runtime:           runtime,
		Genres:            genres,
		Mood:              mood,
		StreamingServices: c.randomServices(2),
	}
}

// randomServices picks 1..max distinct services at random.
func (c *Client) randomServices(max int) []string {
	count := int(c.randFloat()*float64(max)) + 1
	assigned := []string{}
	for i := 0; i < count; i++ {
		service := streamingServices[int(c.randFloat()*float64(len(streamingServices)))]
		if !sliceContains(assigned, service) {
			assigned = append(assigned, service)
		}
	}
	return assigned
}

func sliceContains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
