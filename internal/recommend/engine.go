package recommend

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/rafa-porto/MovieSwipe/internal/models"
	"github.com/rafa-porto/MovieSwipe/internal/storage"
)

const (
	// syntheticIDBase is where freshly minted candidate IDs start when the
	// catalog runs dry. High enough to stay clear of real TMDB IDs in a
	// demo-sized catalog.
	syntheticIDBase = 90000

	// maxSynthesized caps how many near-duplicate candidates are minted per
	// request.
	maxSynthesized = 20

	defaultLimit = 10
)

// Engine ranks unseen catalog movies against a user's accumulated preference
// signals. Scoring blends content-based affinity (genres, streaming services)
// with an item-to-item similarity proxy over the user's liked movies, plus two
// random jitter passes so consecutive calls produce varied slates.
type Engine struct {
	store     storage.Store
	randFloat func() float64
	now       func() time.Time
}

// NewEngine creates an engine backed by a real entropy source.
func NewEngine(store storage.Store) *Engine {
	return &Engine{
		store:     store,
		randFloat: rand.Float64,
		now:       time.Now,
	}
}

// NewEngineWithRandom creates an engine with an injected random source.
// Deterministic tests pin randFloat to a known sequence.
func NewEngineWithRandom(store storage.Store, randFloat func() float64) *Engine {
	return &Engine{
		store:     store,
		randFloat: randFloat,
		now:       time.Now,
	}
}

type scoredMovie struct {
	movie models.Movie
	score float64
}

// Recommend returns a ranked slate of up to 2*limit unseen movies for the
// user. It soft-fails to an empty slice when the user has no preference
// record or no candidates exist.
func (e *Engine) Recommend(userID, limit int) ([]models.Movie, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	pref, ok, err := e.store.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Movie{}, nil
	}

	allMovies, err := e.store.QueryMovies(storage.QueryOptions{})
	if err != nil {
		return nil, err
	}

	liked := toSet(pref.LikedMovies)
	disliked := toSet(pref.DislikedMovies)

	unseen := []models.Movie{}
	for _, m := range allMovies {
		if !liked[m.ID] && !disliked[m.ID] {
			unseen = append(unseen, m)
		}
	}

	// Catalog ran dry: backfill with near-duplicates under fresh IDs.
	if len(unseen) < limit {
		unseen = append(unseen, synthesize(allMovies, pref, unseen)...)
	}
	if len(unseen) == 0 {
		return []models.Movie{}, nil
	}

	// Resolve liked IDs to records, tolerating stale references.
	likedMovies := []models.Movie{}
	for _, id := range pref.LikedMovies {
		if m, ok, err := e.store.GetMovie(id); err == nil && ok {
			likedMovies = append(likedMovies, *m)
		}
	}

	scored := make([]scoredMovie, 0, len(unseen))
	for _, m := range unseen {
		scored = append(scored, scoredMovie{movie: m, score: e.score(m, pref, likedMovies)})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	// Diversity pass: re-jitter the top 3*limit and re-rank, so a static
	// preference state does not yield the same slate on every call.
	top := scored
	if len(top) > 3*limit {
		top = top[:3*limit]
	}
	for i := range top {
		top[i].score += e.randFloat() * 5
	}
	sort.Slice(top, func(i, j int) bool {
		return top[i].score > top[j].score
	})

	// Over-return 2x the limit; the client dedupes and trims.
	n := 2 * limit
	if n > len(top) {
		n = len(top)
	}
	out := make([]models.Movie, 0, n)
	for _, sm := range top[:n] {
		out = append(out, sm.movie)
	}
	return out, nil
}

// score accumulates the candidate's signals additively, starting from a
// uniform [0,4) jitter.
func (e *Engine) score(m models.Movie, pref *models.UserPreference, likedMovies []models.Movie) float64 {
	score := e.randFloat() * 4

	// Genre affinity, weighted most heavily; unknown genres still earn a
	// small diversity reward.
	for _, genre := range m.Genres {
		if count, ok := pref.LikedGenres[genre]; ok {
			score += float64(count) * 2
		} else {
			score += 0.5
		}
	}

	// Streaming service affinity.
	for _, service := range m.StreamingServices {
		if count, ok := pref.StreamingServices[service]; ok {
			score += float64(count)
		}
	}

	// Item-to-item similarity proxy: average similarity to the liked set.
	if len(likedMovies) > 0 {
		var total float64
		for _, lm := range likedMovies {
			total += similarity(lm, m, e.now)
		}
		score += total / float64(len(likedMovies))
	}

	// Recency boost for movies released within the last 2 years.
	if year := releaseYear(m.ReleaseDate); year > 0 && year >= e.now().Year()-2 {
		score++
	}

	// Quality boost: up to +3 at rating 10.
	if m.VoteAverage > 7 {
		score += m.VoteAverage - 7
	}

	// Mood cross-reference against the genre-like counters.
	if m.Mood != "" {
		if _, ok := pref.LikedGenres[m.Mood]; ok {
			score += 2
		}
	}

	return score
}

// similarity measures how close a candidate is to one liked movie.
func similarity(liked, candidate models.Movie, now func() time.Time) float64 {
	var sim float64

	if len(liked.Genres) > 0 {
		overlap := 0
		for _, g := range liked.Genres {
			if containsString(candidate.Genres, g) {
				overlap++
			}
		}
		sim += float64(overlap) / float64(len(liked.Genres)) * 5
	}

	diff := math.Abs(liked.VoteAverage - candidate.VoteAverage)
	switch {
	case diff < 1:
		sim += 3
	case diff < 2:
		sim += 2
	case diff < 3:
		sim++
	}

	likedYear := releaseYear(liked.ReleaseDate)
	candidateYear := releaseYear(candidate.ReleaseDate)
	if likedYear > 0 && candidateYear > 0 && absInt(likedYear-candidateYear) < 5 {
		sim++
	}

	return sim
}

// synthesize clones up to maxSynthesized catalog movies under fresh IDs,
// scanning upward from syntheticIDBase past any ID already in play. IDs
// divisible by 5 get a title marker.
func synthesize(allMovies []models.Movie, pref *models.UserPreference, unseen []models.Movie) []models.Movie {
	used := toSet(pref.LikedMovies)
	for _, id := range pref.DislikedMovies {
		used[id] = true
	}
	for _, m := range unseen {
		used[m.ID] = true
	}

	source := allMovies
	if len(source) > maxSynthesized {
		source = source[:maxSynthesized]
	}

	newID := syntheticIDBase
	extra := make([]models.Movie, 0, len(source))
	for _, m := range source {
		for used[newID] {
			newID++
		}
		clone := m
		clone.ID = newID
		if newID%5 == 0 {
			clone.Title = m.Title + " (New)"
		}
		extra = append(extra, clone)
		used[newID] = true
		newID++
	}
	return extra
}

// releaseYear extracts the year from a YYYY-MM-DD date, 0 when unparseable.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func toSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
