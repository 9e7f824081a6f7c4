package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/media"
	"github.com/patrickmn/go-cache"
	tmdb "github.com/ryanbradynd05/go-tmdb"
)

// TMDBClient is the subset of *tmdb.TMDb the provider calls, extracted for
// testing.
type TMDBClient interface {
	SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error)
	SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error)
	GetTvEpisodeInfo(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error)
}

// TMDB is the TMDB-backed Provider.
type TMDB struct {
	client     TMDBClient
	cache      *cache.Cache
	limiter    *rateLimiter
	language   string
	retries    int
	retryDelay time.Duration
	log        *logging.ComponentLogger
}

// NewTMDB builds a TMDB provider from configuration.
func NewTMDB(apiKey string, cfg config.MetadataConfig, logger *logging.Logger) (*TMDB, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}

	perTen := cfg.RateLimitPer10s
	if perTen <= 0 {
		perTen = 35
	}

	client := tmdb.Init(tmdb.Config{APIKey: apiKey})

	return &TMDB{
		client:     client,
		cache:      cache.New(ttl, 10*time.Minute),
		limiter:    newRateLimiter(10 * time.Second / time.Duration(perTen)),
		language:   language,
		retries:    cfg.RetryAttempts,
		retryDelay: time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		log:        logger.Component("tmdb"),
	}, nil
}

// Enrich resolves the record's canonical title and year, plus the episode
// title for series. Unknown records pass through unchanged.
func (t *TMDB) Enrich(ctx context.Context, rec media.Record) (media.Record, error) {
	switch r := rec.(type) {
	case media.Series:
		return t.enrichSeries(ctx, r)
	case media.Movie:
		return t.enrichMovie(ctx, r)
	default:
		return rec, nil
	}
}

func (t *TMDB) enrichMovie(ctx context.Context, m media.Movie) (media.Record, error) {
	cacheKey := fmt.Sprintf("movie:%s:%s:%s", m.Title, m.Year, t.language)
	if cached, found := t.cache.Get(cacheKey); found {
		if hit, ok := cached.(media.Movie); ok {
			hit.SceneTags = m.SceneTags
			return hit, nil
		}
	}

	options := map[string]string{"language": t.language}
	if m.Year != "" {
		options["year"] = m.Year
	}

	var results *tmdb.MovieSearchResults
	err := t.withRetry(ctx, func() error {
		var err error
		results, err = t.client.SearchMovie(m.Title, options)
		return err
	})
	if err != nil {
		return m, err
	}
	if results == nil || len(results.Results) == 0 {
		return m, ErrNoResults
	}

	best := results.Results[0]
	enriched := media.Movie{
		Title:     best.Title,
		Year:      m.Year,
		SceneTags: m.SceneTags,
		TMDBID:    best.ID,
	}
	if y := yearOf(best.ReleaseDate); y != "" {
		enriched.Year = y
	}

	t.cache.Set(cacheKey, enriched, cache.DefaultExpiration)
	return enriched, nil
}

func (t *TMDB) enrichSeries(ctx context.Context, s media.Series) (media.Record, error) {
	cacheKey := fmt.Sprintf("tv:%s:%s", s.Title, t.language)

	var showTitle, showYear string
	var showID int

	if cached, found := t.cache.Get(cacheKey); found {
		if hit, ok := cached.(media.Series); ok {
			showTitle, showYear, showID = hit.Title, hit.Year, hit.TMDBID
		}
	}

	if showID == 0 {
		options := map[string]string{"language": t.language}

		var results *tmdb.TvSearchResults
		err := t.withRetry(ctx, func() error {
			var err error
			results, err = t.client.SearchTv(s.Title, options)
			return err
		})
		if err != nil {
			return s, err
		}
		if results == nil || len(results.Results) == 0 {
			return s, ErrNoResults
		}

		best := results.Results[0]
		showTitle, showID = best.Name, best.ID
		showYear = s.Year
		if y := yearOf(best.FirstAirDate); y != "" {
			showYear = y
		}

		t.cache.Set(cacheKey, media.Series{
			Title: showTitle, Year: showYear, TMDBID: showID,
		}, cache.DefaultExpiration)
	}

	enriched := s
	enriched.Title = showTitle
	enriched.Year = showYear
	enriched.TMDBID = showID

	// Episode title only makes sense for single-episode files
	if len(s.Episodes) == 1 {
		if title, err := t.episodeTitle(ctx, showID, s.Season, s.Episodes[0]); err == nil {
			enriched.EpisodeTitle = title
		}
	}

	return enriched, nil
}

func (t *TMDB) episodeTitle(ctx context.Context, showID, season, episode int) (string, error) {
	cacheKey := fmt.Sprintf("ep:%d:%d:%d:%s", showID, season, episode, t.language)
	if cached, found := t.cache.Get(cacheKey); found {
		if title, ok := cached.(string); ok {
			return title, nil
		}
	}

	options := map[string]string{"language": t.language}

	var ep *tmdb.TvEpisode
	err := t.withRetry(ctx, func() error {
		var err error
		ep, err = t.client.GetTvEpisodeInfo(showID, season, episode, options)
		return err
	})
	if err != nil {
		return "", err
	}
	if ep == nil || ep.Name == "" {
		return "", ErrNoResults
	}

	t.cache.Set(cacheKey, ep.Name, cache.DefaultExpiration)
	return ep.Name, nil
}

// withRetry runs fn behind the shared rate limiter with fixed-backoff
// retries.
func (t *TMDB) withRetry(ctx context.Context, fn func() error) error {
	attempts := t.retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := t.limiter.wait(ctx); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		t.log.Debug("lookup attempt failed",
			logging.F("attempt", attempt), logging.F("error", lastErr))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.retryDelay):
			}
		}
	}
	return lastErr
}
