package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickmn/go-cache"
	tmdb "github.com/ryanbradynd05/go-tmdb"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/media"
)

// fakeClient is a scriptable TMDBClient.
type fakeClient struct {
	movieResults   *tmdb.MovieSearchResults
	tvResults      *tmdb.TvSearchResults
	episode        *tmdb.TvEpisode
	err            error
	failuresBefore int32 // fail this many calls before succeeding

	movieCalls   atomic.Int32
	tvCalls      atomic.Int32
	episodeCalls atomic.Int32
}

func (f *fakeClient) maybeFail(calls int32) error {
	if f.err == nil {
		return nil
	}
	if f.failuresBefore == 0 || calls <= f.failuresBefore {
		return f.err
	}
	return nil
}

func (f *fakeClient) SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error) {
	calls := f.movieCalls.Add(1)
	if err := f.maybeFail(calls); err != nil {
		return nil, err
	}
	return f.movieResults, nil
}

func (f *fakeClient) SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error) {
	calls := f.tvCalls.Add(1)
	if err := f.maybeFail(calls); err != nil {
		return nil, err
	}
	return f.tvResults, nil
}

func (f *fakeClient) GetTvEpisodeInfo(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error) {
	calls := f.episodeCalls.Add(1)
	if err := f.maybeFail(calls); err != nil {
		return nil, err
	}
	return f.episode, nil
}

func newTestTMDB(client TMDBClient, retries int) *TMDB {
	return &TMDB{
		client:     client,
		cache:      cache.New(time.Minute, time.Minute),
		limiter:    newRateLimiter(time.Microsecond),
		language:   "en-US",
		retries:    retries,
		retryDelay: time.Millisecond,
		log:        logging.Nop().Component("tmdb"),
	}
}

func TestEnrichMovie(t *testing.T) {
	client := &fakeClient{
		movieResults: &tmdb.MovieSearchResults{
			Results: []tmdb.MovieShort{
				{ID: 693134, Title: "Dune: Part Two", ReleaseDate: "2024-02-27"},
			},
		},
	}
	p := newTestTMDB(client, 0)

	rec, err := p.Enrich(context.Background(), media.Movie{
		Title: "Dune Part Two", Year: "2024", SceneTags: "2160p.REMUX",
	})
	require.NoError(t, err)

	movie := rec.(media.Movie)
	assert.Equal(t, "Dune: Part Two", movie.Title)
	assert.Equal(t, "2024", movie.Year)
	assert.Equal(t, 693134, movie.TMDBID)
	assert.Equal(t, "2160p.REMUX", movie.SceneTags, "scene tags survive enrichment")
}

func TestEnrichMovieCaches(t *testing.T) {
	client := &fakeClient{
		movieResults: &tmdb.MovieSearchResults{
			Results: []tmdb.MovieShort{{ID: 1, Title: "The Matrix", ReleaseDate: "1999-03-31"}},
		},
	}
	p := newTestTMDB(client, 0)

	in := media.Movie{Title: "The Matrix", Year: "1999"}
	_, err := p.Enrich(context.Background(), in)
	require.NoError(t, err)
	_, err = p.Enrich(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, int32(1), client.movieCalls.Load(), "second lookup served from cache")
}

func TestEnrichMovieNoResults(t *testing.T) {
	client := &fakeClient{movieResults: &tmdb.MovieSearchResults{}}
	p := newTestTMDB(client, 0)

	in := media.Movie{Title: "Nonexistent Film"}
	rec, err := p.Enrich(context.Background(), in)
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, in, rec, "failed lookup returns the guessed record")
}

func TestEnrichSeriesWithEpisodeTitle(t *testing.T) {
	client := &fakeClient{
		tvResults: &tmdb.TvSearchResults{
			Results: []struct {
				BackdropPath  string `json:"backdrop_path"`
				ID            int
				OriginalName  string   `json:"original_name"`
				FirstAirDate  string   `json:"first_air_date"`
				OriginCountry []string `json:"origin_country"`
				PosterPath    string   `json:"poster_path"`
				Popularity    float32
				Name          string
				VoteAverage   float32 `json:"vote_average"`
				VoteCount     uint32  `json:"vote_count"`
			}{
				{ID: 125988, Name: "Silo", FirstAirDate: "2023-05-04"},
			},
		},
		episode: &tmdb.TvEpisode{Name: "Order"},
	}
	p := newTestTMDB(client, 0)

	rec, err := p.Enrich(context.Background(), media.Series{
		Title: "Silo", Season: 2, Episodes: []int{2},
	})
	require.NoError(t, err)

	series := rec.(media.Series)
	assert.Equal(t, "Silo", series.Title)
	assert.Equal(t, "2023", series.Year)
	assert.Equal(t, 125988, series.TMDBID)
	assert.Equal(t, "Order", series.EpisodeTitle)
}

func TestEnrichUnknownPassesThrough(t *testing.T) {
	p := newTestTMDB(&fakeClient{}, 0)
	rec, err := p.Enrich(context.Background(), media.Unknown{})
	require.NoError(t, err)
	assert.Equal(t, media.Unknown{}, rec)
}

func TestWithRetryRecovers(t *testing.T) {
	client := &fakeClient{
		err:            errors.New("temporarily unavailable"),
		failuresBefore: 2,
		movieResults: &tmdb.MovieSearchResults{
			Results: []tmdb.MovieShort{{ID: 1, Title: "Heat", ReleaseDate: "1995-12-15"}},
		},
	}
	p := newTestTMDB(client, 3)

	rec, err := p.Enrich(context.Background(), media.Movie{Title: "Heat"})
	require.NoError(t, err)
	assert.Equal(t, "Heat", rec.(media.Movie).Title)
	assert.Equal(t, int32(3), client.movieCalls.Load())
}

func TestWithRetryExhausted(t *testing.T) {
	client := &fakeClient{err: errors.New("down")}
	p := newTestTMDB(client, 2)

	_, err := p.Enrich(context.Background(), media.Movie{Title: "Heat"})
	require.Error(t, err)
	assert.Equal(t, int32(3), client.movieCalls.Load(), "initial attempt plus two retries")
}

func TestFetchAllDegradesToGuess(t *testing.T) {
	client := &fakeClient{err: errors.New("down")}
	p := newTestTMDB(client, 0)

	records := []media.Record{
		media.Movie{Title: "Heat", Year: "1995"},
		media.Series{Title: "Silo", Season: 1, Episodes: []int{1}},
		media.Unknown{},
	}

	out := FetchAll(context.Background(), p, records, 2)
	require.Len(t, out, 3)
	assert.Equal(t, records[0], out[0], "failed lookups keep the guessed record")
	assert.Equal(t, records[1], out[1])
	assert.Equal(t, records[2], out[2])
}

func TestRateLimiterHonorsContext(t *testing.T) {
	rl := newRateLimiter(time.Hour)
	require.NoError(t, rl.wait(context.Background()), "first slot is immediate")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := rl.wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterSpacesCalls(t *testing.T) {
	rl := newRateLimiter(20 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.wait(context.Background()))
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond,
		"three calls need at least two intervals")
}
