package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderRegex matches {field} and {field:02d} style placeholders.
var placeholderRegex = regexp.MustCompile(`\{([a-z_]+)(?::0(\d+)d)?\}`)

// invalidNameChars are characters that are unsafe in filenames on at least
// one supported filesystem.
var invalidNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// FormatTemplate expands placeholders in tmpl against fields. A {field:0Nd}
// placeholder zero-pads the value to N digits. Referencing a field the
// record does not carry is a missing-placeholder error.
func FormatTemplate(tmpl string, fields map[string]string) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		return "", NewError(KindMissingTemplate, "", fmt.Errorf("empty template"))
	}

	var missing string
	out := placeholderRegex.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := placeholderRegex.FindStringSubmatch(m)
		name, pad := sub[1], sub[2]

		value, ok := fields[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}

		if pad != "" {
			width, _ := strconv.Atoi(pad)
			if n, err := strconv.Atoi(value); err == nil {
				return fmt.Sprintf("%0*d", width, n)
			}
		}
		return value
	})

	if missing != "" {
		return "", NewError(KindMissingPlaceholder, "",
			fmt.Errorf("template %q references unknown field %q", tmpl, missing))
	}

	return out, nil
}

// SanitizeName strips filesystem-invalid characters from a formatted name
// and normalizes whitespace. Returns an empty string when nothing survives;
// the caller falls back to the original stem in that case.
func SanitizeName(name string) string {
	name = invalidNameChars.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, ". ")
	return name
}

// collapseDots removes doubled separators left behind by empty optional
// fields, e.g. "Show..srt" -> "Show.srt".
func collapseDots(name string) string {
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	return strings.Trim(name, ".")
}
