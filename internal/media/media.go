// Package media defines the typed media record produced by filename guessing
// and optionally enriched with fetched metadata. A record is one of Series,
// Movie, or Unknown; downstream code switches on Kind instead of threading an
// open-ended key-value bag around.
package media

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates record variants
type Kind int

const (
	KindUnknown Kind = iota
	KindSeries
	KindMovie
)

func (k Kind) String() string {
	switch k {
	case KindSeries:
		return "series"
	case KindMovie:
		return "movie"
	default:
		return "unknown"
	}
}

// Record is the tagged media record consumed by the planner.
// Fields returns the template placeholder values for the record.
type Record interface {
	Kind() Kind
	Fields() map[string]string
}

// Series is a TV episode file, possibly spanning multiple episodes.
type Series struct {
	Title        string
	Year         string
	Season       int
	Episodes     []int // sorted; one entry for single-episode files
	EpisodeTitle string
	SceneTags    string
	TMDBID       int
}

func (s Series) Kind() Kind { return KindSeries }

// Fields exposes the placeholders available to the episode template.
// Multi-episode files get an {episodes} range like "01-03" and {episode}
// resolves to the first episode.
func (s Series) Fields() map[string]string {
	eps := append([]int(nil), s.Episodes...)
	sort.Ints(eps)

	first := 0
	if len(eps) > 0 {
		first = eps[0]
	}

	f := map[string]string{
		"show_title":    s.Title,
		"title":         s.Title,
		"year":          s.Year,
		"season":        strconv.Itoa(s.Season),
		"episode":       strconv.Itoa(first),
		"episode_title": s.EpisodeTitle,
		"scene_tags":    s.SceneTags,
	}

	if len(eps) > 1 {
		f["episodes"] = fmt.Sprintf("%02d-%02d", eps[0], eps[len(eps)-1])
	} else {
		f["episodes"] = fmt.Sprintf("%02d", first)
	}

	return f
}

// Movie is a feature film file.
type Movie struct {
	Title     string
	Year      string
	SceneTags string
	TMDBID    int
}

func (m Movie) Kind() Kind { return KindMovie }

func (m Movie) Fields() map[string]string {
	return map[string]string{
		"movie_title": m.Title,
		"title":       m.Title,
		"year":        m.Year,
		"scene_tags":  m.SceneTags,
	}
}

// Unknown is returned when guessing failed; the planner falls back to the
// original stem.
type Unknown struct{}

func (Unknown) Kind() Kind                { return KindUnknown }
func (Unknown) Fields() map[string]string { return map[string]string{} }
