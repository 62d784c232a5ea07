package recommend

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rafa-porto/MovieSwipe/internal/models"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
)

func zeroRand() float64 { return 0 }

func newStore(t *testing.T, movies []models.Movie, pref *models.UserPreference) *storage.MemoryStore {
	t.Helper()
	s := storage.NewMemoryStore()
	for _, m := range movies {
		if err := s.UpsertMovie(m); err != nil {
			t.Fatalf("UpsertMovie(%d): %v", m.ID, err)
		}
	}
	if pref != nil {
		if _, err := s.CreatePreferences(*pref); err != nil {
			t.Fatalf("CreatePreferences: %v", err)
		}
	}
	return s
}

// nMovies generates a catalog of n plain movies with sequential IDs starting
// at 1. Old release dates keep the recency boost out of the picture.
func nMovies(n int) []models.Movie {
	movies := make([]models.Movie, n)
	for i := range movies {
		movies[i] = models.Movie{
			ID:          i + 1,
			Title:       fmt.Sprintf("Movie %d", i+1),
			ReleaseDate: "1994-01-01",
			VoteAverage: 6,
			Genres:      []string{"Drama"},
		}
	}
	return movies
}

func TestRecommend_NoPreferenceRecord(t *testing.T) {
	s := newStore(t, nMovies(5), nil)
	e := NewEngineWithRandom(s, zeroRand)

	out, err := e.Recommend(1, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d movies without a preference record, want 0", len(out))
	}
}

func TestRecommend_EmptyCatalog(t *testing.T) {
	s := newStore(t, nil, &models.UserPreference{UserID: 1})
	e := NewEngineWithRandom(s, zeroRand)

	out, err := e.Recommend(1, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d movies from an empty catalog, want 0", len(out))
	}
}

func TestRecommend_FreshUserSmallCatalog(t *testing.T) {
	s := newStore(t, nMovies(5), &models.UserPreference{UserID: 1})
	e := NewEngineWithRandom(s, zeroRand)

	out, err := e.Recommend(1, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// 5 unseen >= limit 3, so no synthesis; the slate is capped at 2*limit
	if len(out) != 5 {
		t.Errorf("got %d movies, want all 5 (under the 2x cap of 6)", len(out))
	}
}

func TestRecommend_NeverReturnsSeen(t *testing.T) {
	pref := &models.UserPreference{
		UserID:         1,
		LikedMovies:    []int{1, 2, 3},
		DislikedMovies: []int{4, 5},
		LikedGenres:    map[string]int{"Drama": 3},
	}
	s := newStore(t, nMovies(30), pref)
	e := NewEngine(s)

	seen := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for trial := 0; trial < 50; trial++ {
		out, err := e.Recommend(1, 5)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		for _, m := range out {
			if seen[m.ID] {
				t.Fatalf("trial %d: recommended seen movie %d", trial, m.ID)
			}
		}
	}
}

func TestRecommend_SynthesisUniqueness(t *testing.T) {
	// 5 catalog movies, 2 of them already rated: 3 unseen < limit 10 forces
	// the synthesis top-up.
	pref := &models.UserPreference{
		UserID:         1,
		LikedMovies:    []int{1},
		DislikedMovies: []int{2},
	}
	s := newStore(t, nMovies(5), pref)
	e := NewEngineWithRandom(s, zeroRand)

	out, err := e.Recommend(1, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected a non-empty slate after synthesis")
	}

	ids := map[int]bool{}
	for _, m := range out {
		if ids[m.ID] {
			t.Errorf("duplicate ID %d in slate", m.ID)
		}
		ids[m.ID] = true
		if m.ID == 1 || m.ID == 2 {
			t.Errorf("rated movie %d leaked into the slate", m.ID)
		}
	}

	// 3 unseen + 5 synthesized clones
	if len(out) != 8 {
		t.Errorf("slate size = %d, want 8", len(out))
	}
	for _, m := range out {
		if m.ID >= syntheticIDBase && m.ID%5 == 0 && !strings.HasSuffix(m.Title, "(New)") {
			t.Errorf("synthesized movie %d missing title marker: %q", m.ID, m.Title)
		}
	}
}

func TestRecommend_SynthesisAvoidsUsedIDs(t *testing.T) {
	// Occupy the base of the synthetic ID range; minting must scan past it.
	movies := nMovies(3)
	movies = append(movies, models.Movie{ID: syntheticIDBase, Title: "Squatter", ReleaseDate: "1994-01-01", Genres: []string{"Drama"}})
	pref := &models.UserPreference{UserID: 1, LikedMovies: []int{syntheticIDBase}}
	s := newStore(t, movies, pref)
	e := NewEngineWithRandom(s, zeroRand)

	out, err := e.Recommend(1, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	ids := map[int]bool{}
	for _, m := range out {
		if ids[m.ID] {
			t.Errorf("duplicate ID %d", m.ID)
		}
		ids[m.ID] = true
		if m.ID == syntheticIDBase {
			t.Errorf("synthesized clone collided with occupied ID %d", syntheticIDBase)
		}
	}
}

func TestScore_GenreAffinityMonotonic(t *testing.T) {
	s := storage.NewMemoryStore()
	e := NewEngineWithRandom(s, zeroRand)

	pref := &models.UserPreference{
		UserID:            1,
		LikedGenres:       map[string]int{"Action": 3, "Comedy": 1},
		StreamingServices: map[string]int{},
	}

	strong := models.Movie{ID: 1, Genres: []string{"Action", "Comedy"}, ReleaseDate: "1994-01-01", VoteAverage: 5}
	weak := models.Movie{ID: 2, Genres: []string{"Comedy"}, ReleaseDate: "1994-01-01", VoteAverage: 5}
	none := models.Movie{ID: 3, Genres: []string{"Horror"}, ReleaseDate: "1994-01-01", VoteAverage: 5}

	strongScore := e.score(strong, pref, nil)
	weakScore := e.score(weak, pref, nil)
	noneScore := e.score(none, pref, nil)

	// count*2 per matched genre: 3*2 + 1*2 = 8, 1*2 = 2, diversity floor 0.5
	if strongScore != 8 {
		t.Errorf("strong score = %v, want 8", strongScore)
	}
	if weakScore != 2 {
		t.Errorf("weak score = %v, want 2", weakScore)
	}
	if noneScore != 0.5 {
		t.Errorf("unmatched genre score = %v, want 0.5", noneScore)
	}
	if !(strongScore > weakScore && weakScore > noneScore) {
		t.Error("genre affinity is not monotonic in like-counts")
	}
}

func TestScore_ComponentWeights(t *testing.T) {
	s := storage.NewMemoryStore()
	e := NewEngineWithRandom(s, zeroRand)
	currentYear := time.Now().Year()

	pref := &models.UserPreference{
		UserID:            1,
		LikedGenres:       map[string]int{"Exciting": 1, "Action": 2},
		StreamingServices: map[string]int{"Netflix": 3},
	}

	candidate := models.Movie{
		ID:                1,
		Genres:            []string{"Action"},
		Mood:              "Exciting",
		StreamingServices: []string{"Netflix", "Hulu"},
		ReleaseDate:       fmt.Sprintf("%d-03-01", currentYear),
		VoteAverage:       8.5,
	}

	// genre 2*2 + service 3 + recency 1 + quality 1.5 + mood-in-genre-map 2
	got := e.score(candidate, pref, nil)
	if got != 11.5 {
		t.Errorf("score = %v, want 11.5", got)
	}
}

func TestSimilarity(t *testing.T) {
	liked := models.Movie{Genres: []string{"Action", "Sci-Fi"}, VoteAverage: 8.0, ReleaseDate: "2015-05-01"}

	tests := []struct {
		name      string
		candidate models.Movie
		want      float64
	}{
		{
			name:      "full overlap close rating same era",
			candidate: models.Movie{Genres: []string{"Action", "Sci-Fi"}, VoteAverage: 8.4, ReleaseDate: "2016-01-01"},
			// 2/2*5 + 3 + 1
			want: 9,
		},
		{
			name:      "half overlap mid rating far year",
			candidate: models.Movie{Genres: []string{"Action"}, VoteAverage: 6.5, ReleaseDate: "2001-01-01"},
			// 1/2*5 + 2
			want: 4.5,
		},
		{
			name:      "no overlap far rating",
			candidate: models.Movie{Genres: []string{"Romance"}, VoteAverage: 4.0, ReleaseDate: "2015-01-01"},
			// 0 + 0 + 1
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := similarity(liked, tt.candidate, time.Now); got != tt.want {
				t.Errorf("similarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilarity_ZeroGenreGuard(t *testing.T) {
	liked := models.Movie{Genres: []string{}, VoteAverage: 7.0, ReleaseDate: "2015-01-01"}
	candidate := models.Movie{Genres: []string{"Action"}, VoteAverage: 7.0, ReleaseDate: "2015-01-01"}

	// Empty liked-genre list must not divide by zero: rating +3, year +1
	if got := similarity(liked, candidate, time.Now); got != 4 {
		t.Errorf("similarity = %v, want 4", got)
	}
}

func TestRecommend_QualityBoostDominatesJitter(t *testing.T) {
	// Two candidates identical except for rating; over many trials the
	// higher-rated one must come out on top well above chance.
	movies := []models.Movie{
		{ID: 1, Title: "Acclaimed", Genres: []string{"Drama"}, ReleaseDate: "1994-01-01", VoteAverage: 9.5},
		{ID: 2, Title: "Mediocre", Genres: []string{"Drama"}, ReleaseDate: "1994-01-01", VoteAverage: 6.9},
	}
	s := newStore(t, movies, &models.UserPreference{UserID: 1})

	rng := rand.New(rand.NewSource(1))
	e := NewEngineWithRandom(s, rng.Float64)

	const trials = 1000
	wins := 0
	for i := 0; i < trials; i++ {
		out, err := e.Recommend(1, 1)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if len(out) == 0 {
			t.Fatal("empty slate")
		}
		if out[0].ID == 1 {
			wins++
		}
	}

	if wins <= trials*7/10 {
		t.Errorf("high-rated movie won %d/%d trials, want > 70%%", wins, trials)
	}
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2023-07-15", 2023},
		{"1999", 1999},
		{"", 0},
		{"bad", 0},
	}
	for _, tt := range tests {
		if got := releaseYear(tt.date); got != tt.want {
			t.Errorf("releaseYear(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}
