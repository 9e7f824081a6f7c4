// Package guess extracts structured media information from release-style
// filenames. It is the default implementation of the planner's media-info
// collaborator; callers that already have richer metadata can skip it.
package guess

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/media"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	yearRegex        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	yearParenRegex   = regexp.MustCompile(`\((\d{4})\)`)
	episodeSERegex   = regexp.MustCompile(`[Ss](\d{1,2})[Ee](\d{1,3})`)
	episodeSpanRegex = regexp.MustCompile(`[Ss](\d{1,2})[Ee](\d{1,3})(?:[-.]?[Ee](\d{1,3}))+`)
	episodeXRegex    = regexp.MustCompile(`\b(\d{1,2})x(\d{1,3})\b`)
	multiEpERegex    = regexp.MustCompile(`[Ee](\d{1,3})`)
	titleCaser       = cases.Title(language.English)
	releasePatterns  []*regexp.Regexp
)

func init() {
	patterns := []string{
		`\b\d{3,4}[pi]\b`,
		`\b(4K|UHD)\b`,
		`\b(HDR10\+?|HDR|DoVi|DV|HLG|SDR)\b`,
		`\b(DTS-HD|DTS-X|DTS|TrueHD|Atmos|AAC|AC3|EAC3|DD\+?|DDP|FLAC|Opus|MP3)\b`,
		`\b\d\.\d\b`,
		`\b(BluRay|Blu-ray|BDRip|BRRip|REMUX|WEB-DL|WEBDL|WEBRip|WEB)\b`,
		`\b(HDTV|DVDRip|DVD|CAM|TS|TC)\b`,
		`\b(AMZN|NF|ATVP|HULU|DSNP|MAX)\b`,
		`\b(x264|x265|HEVC|AVC|H\.?264|H\.?265|XviD|DivX)\b`,
		`\b(PROPER|REPACK|iNTERNAL|LIMITED|EXTENDED|UNRATED|REMASTERED)\b`,
		`\b(DUAL|MULTI|DUB|SUBBED|SUBS)\b`,
		`\b(8bit|10bit|12bit)\b`,
		`\[.*?\]`,
		`-[A-Za-z0-9]+$`,
	}

	releasePatterns = make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		releasePatterns = append(releasePatterns, regexp.MustCompile(`(?i)`+pattern))
	}
}

// Guess parses a media filename into a typed record. Files with episode
// markers become Series; anything with a recognizable title becomes Movie;
// everything else is Unknown.
func Guess(path string) media.Record {
	stem := Stem(path)

	if season, episodes, ok := extractEpisodes(stem); ok {
		title := extractTitleBefore(stem)
		year := extractYear(stem)
		title = cleanTitle(title, year)
		if title == "" {
			return media.Unknown{}
		}
		return media.Series{
			Title:     title,
			Year:      year,
			Season:    season,
			Episodes:  episodes,
			SceneTags: SceneTags(stem),
		}
	}

	year := extractYear(stem)
	title := cleanTitle(stem, year)
	if title == "" {
		return media.Unknown{}
	}
	return media.Movie{
		Title:     title,
		Year:      year,
		SceneTags: SceneTags(stem),
	}
}

// Stem returns the filename without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsEpisode reports whether the filename carries an episode marker.
func IsEpisode(path string) bool {
	stem := Stem(path)
	return episodeSERegex.MatchString(stem) || episodeXRegex.MatchString(stem)
}

// SceneTags returns the resolution and source markers found in the name,
// normalized to a dot-joined string like "1080p.BluRay.x264". Used when
// scene-tag preservation is enabled.
func SceneTags(stem string) string {
	normalized := strings.NewReplacer(".", " ", "_", " ").Replace(stem)
	keep := []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{3,4}p\b`),
		regexp.MustCompile(`(?i)\b(BluRay|BDRip|REMUX|WEB-DL|WEBRip|HDTV|DVDRip)\b`),
		regexp.MustCompile(`(?i)\b(x264|x265|HEVC|AVC)\b`),
	}

	var tags []string
	for _, re := range keep {
		if m := re.FindString(normalized); m != "" {
			tags = append(tags, m)
		}
	}
	return strings.Join(tags, ".")
}

// extractEpisodes pulls season and all episode numbers from an episode
// marker, handling S01E01, S01E01E02, S01E01-E03, and 1x01 styles.
func extractEpisodes(stem string) (season int, episodes []int, ok bool) {
	if m := episodeSpanRegex.FindString(stem); m != "" {
		sm := episodeSERegex.FindStringSubmatch(m)
		season, _ = strconv.Atoi(sm[1])
		for _, em := range multiEpERegex.FindAllStringSubmatch(m, -1) {
			ep, _ := strconv.Atoi(em[1])
			episodes = append(episodes, ep)
		}
		sort.Ints(episodes)
		episodes = dedupe(episodes)
		// An E01-E03 span means every episode in between
		if len(episodes) == 2 && episodes[1] > episodes[0]+1 {
			full := make([]int, 0, episodes[1]-episodes[0]+1)
			for e := episodes[0]; e <= episodes[1]; e++ {
				full = append(full, e)
			}
			episodes = full
		}
		return season, episodes, true
	}

	if m := episodeSERegex.FindStringSubmatch(stem); m != nil {
		season, _ = strconv.Atoi(m[1])
		ep, _ := strconv.Atoi(m[2])
		return season, []int{ep}, true
	}

	if m := episodeXRegex.FindStringSubmatch(stem); m != nil {
		season, _ = strconv.Atoi(m[1])
		ep, _ := strconv.Atoi(m[2])
		return season, []int{ep}, true
	}

	return 0, nil, false
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func extractTitleBefore(stem string) string {
	for _, re := range []*regexp.Regexp{episodeSERegex, episodeXRegex} {
		if loc := re.FindStringIndex(stem); loc != nil {
			return stem[:loc[0]]
		}
	}
	return stem
}

func extractYear(stem string) string {
	if m := yearParenRegex.FindStringSubmatch(stem); len(m) > 1 {
		return m[1]
	}

	matches := yearRegex.FindAllString(stem, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		year := matches[i]
		// Resolution-looking numbers are not years
		if year == "2160" || year == "1920" || year == "1440" || year == "1280" {
			continue
		}
		return year
	}
	return ""
}

func cleanTitle(s, year string) string {
	s = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(s)

	for _, re := range releasePatterns {
		s = re.ReplaceAllString(s, " ")
	}

	if year != "" {
		s = strings.ReplaceAll(s, "("+year+")", " ")
		s = strings.ReplaceAll(s, "["+year+"]", " ")
		s = strings.ReplaceAll(s, year, " ")
	}

	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Scene names are usually lowercase or dotted; title-case them
	if s == strings.ToLower(s) {
		s = titleCaser.String(s)
	}
	return s
}
