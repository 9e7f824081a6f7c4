package executor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Temp files live in the final target's directory under a deterministic
// pattern, so the undo command can re-locate them from the journaled final
// path alone. The journal never stores the temp path itself.

// tempName derives a unique temp path for a final target, in the target's
// own directory.
func tempName(finalPath string) string {
	dir := filepath.Dir(finalPath)
	ext := filepath.Ext(finalPath)
	stem := strings.TrimSuffix(filepath.Base(finalPath), ext)
	return filepath.Join(dir, fmt.Sprintf(".%s.jr-tmp-%d%s", stem, time.Now().UnixNano(), ext))
}

// TempGlob returns the glob pattern matching temp files staged for a final
// target. Used by undo to find files stuck in pending_final.
func TempGlob(finalPath string) string {
	dir := filepath.Dir(finalPath)
	ext := filepath.Ext(finalPath)
	stem := strings.TrimSuffix(filepath.Base(finalPath), ext)
	return filepath.Join(escapeGlob(dir),
		fmt.Sprintf(".%s.jr-tmp-*%s", escapeGlob(stem), escapeGlob(ext)))
}

// escapeGlob neutralizes glob metacharacters so literal bracket or star
// characters in names match themselves.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// IsTempFile reports whether a filename matches the temp staging pattern.
// The scanner uses it to ignore leftovers from interrupted runs.
func IsTempFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") && strings.Contains(base, ".jr-tmp-")
}
