// Package provider enriches guessed media records with metadata fetched
// from TMDB. Lookups run through a shared rate limiter with fixed-backoff
// retries and a TTL response cache; a failed lookup degrades to the guessed
// record instead of aborting the run.
package provider

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/Nomadcxx/jellyrename/internal/media"
)

var (
	ErrNoResults     = errors.New("no results found")
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// Provider fills in canonical titles, years, and episode names.
type Provider interface {
	Enrich(ctx context.Context, rec media.Record) (media.Record, error)
}

// FetchAll enriches a slice of records concurrently, bounded by
// maxParallel. Records whose lookup fails keep their guessed values; the
// output order matches the input.
func FetchAll(ctx context.Context, p Provider, records []media.Record, maxParallel int) []media.Record {
	if maxParallel <= 0 {
		maxParallel = 4
	}

	out := make([]media.Record, len(records))
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec media.Record) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			enriched, err := p.Enrich(ctx, rec)
			if err != nil {
				out[i] = rec
				return
			}
			out[i] = enriched
		}(i, rec)
	}

	wg.Wait()
	return out
}

// yearOf extracts the year from a TMDB date string like "2019-11-01".
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}
