// Package subs inspects subtitle sidecar files: language code, forced/sdh/cc
// flags, and optionally text encoding. Detection works on the filename parts
// between the video stem and the extension, e.g. "Show.S01E01.en.forced.srt".
package subs

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// Info describes one subtitle file.
type Info struct {
	Lang     string // BCP 47 base code ("en", "pt-BR" kept as given), empty if undetected
	Forced   bool
	SDH      bool
	CC       bool
	Encoding string // "utf-8", "utf-16le", "utf-16be", or "" when unknown
}

// FlagSuffix renders the detected flags as a dotted suffix in a stable
// order, e.g. ".forced.sdh". Empty when no flags are set.
func (i Info) FlagSuffix() string {
	var parts []string
	if i.Forced {
		parts = append(parts, "forced")
	}
	if i.SDH {
		parts = append(parts, "sdh")
	}
	if i.CC {
		parts = append(parts, "cc")
	}
	if len(parts) == 0 {
		return ""
	}
	return "." + strings.Join(parts, ".")
}

// Detect parses language and flags from a subtitle filename. videoStem is
// the stem of the video file the subtitle belongs to; it is stripped before
// the remaining dot-separated parts are interpreted.
func Detect(subtitlePath, videoStem string) Info {
	base := filepath.Base(subtitlePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	rest := stem
	if videoStem != "" && strings.HasPrefix(strings.ToLower(stem), strings.ToLower(videoStem)) {
		rest = stem[len(videoStem):]
	}

	var info Info
	for _, part := range strings.FieldsFunc(rest, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	}) {
		switch strings.ToLower(part) {
		case "forced":
			info.Forced = true
		case "sdh", "hi":
			info.SDH = true
		case "cc":
			info.CC = true
		default:
			if info.Lang == "" && looksLikeLanguage(part) {
				info.Lang = strings.ToLower(part)
			}
		}
	}
	return info
}

// DetectWithEncoding is Detect plus a content probe for text encoding.
func DetectWithEncoding(subtitlePath, videoStem string) Info {
	info := Detect(subtitlePath, videoStem)
	info.Encoding = detectEncoding(subtitlePath)
	return info
}

// looksLikeLanguage accepts two- and three-letter codes that parse as a
// known language tag. Longer parts are almost always title words, not codes.
func looksLikeLanguage(part string) bool {
	if len(part) < 2 || len(part) > 3 {
		return false
	}
	tag, err := language.Parse(strings.ToLower(part))
	if err != nil {
		return false
	}
	base, conf := tag.Base()
	return conf >= language.High && base.String() != ""
}

// detectEncoding probes the first bytes of the file: BOM first, then UTF-8
// validation. Returns "" when the file is unreadable or the encoding is
// unrecognized.
func detectEncoding(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return ""
	}
	buf = buf[:n]

	switch {
	case len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF:
		return "utf-8"
	case len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE:
		return "utf-16le"
	case len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF:
		return "utf-16be"
	}

	if utf8.Valid(buf) {
		return "utf-8"
	}
	return ""
}
