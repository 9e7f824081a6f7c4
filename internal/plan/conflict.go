package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConflictMode selects what happens when a planned target path already
// exists on disk.
type ConflictMode int

const (
	ConflictSkip ConflictMode = iota
	ConflictFail
	ConflictOverwrite
	ConflictSuffix
)

const (
	// maxSuffixAttempts caps _1, _2, ... probing.
	maxSuffixAttempts = 100
	// maxNameLength is a conservative filesystem-safe filename limit.
	maxNameLength = 240
)

func (m ConflictMode) String() string {
	switch m {
	case ConflictSkip:
		return "skip"
	case ConflictFail:
		return "fail"
	case ConflictOverwrite:
		return "overwrite"
	case ConflictSuffix:
		return "suffix"
	default:
		return "unknown"
	}
}

// ParseConflictMode converts a config string to a ConflictMode.
func ParseConflictMode(s string) (ConflictMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "":
		return ConflictSkip, nil
	case "fail":
		return ConflictFail, nil
	case "overwrite":
		return ConflictOverwrite, nil
	case "suffix":
		return ConflictSuffix, nil
	default:
		return ConflictSkip, fmt.Errorf("unknown conflict mode %q", s)
	}
}

// Resolve decides the final target path for a move from originalPath to
// targetPath under the given mode. It only probes the filesystem with
// exists() checks and never modifies anything.
//
// skip returns a recoverable error; fail returns a fatal one; overwrite
// returns the target unchanged; suffix probes name_1, name_2, ... until a
// free path is found.
func Resolve(originalPath, targetPath string, mode ConflictMode) (string, error) {
	if !pathExists(targetPath) || samePath(originalPath, targetPath) {
		return targetPath, nil
	}

	switch mode {
	case ConflictSkip:
		return "", NewError(KindSkipConflict, targetPath, ErrSkipConflict)
	case ConflictFail:
		return "", NewError(KindTargetExists, targetPath, ErrTargetExists)
	case ConflictOverwrite:
		return targetPath, nil
	case ConflictSuffix:
		return suffixedPath(targetPath)
	default:
		return "", NewError(KindFileOperation, targetPath,
			fmt.Errorf("unhandled conflict mode %v", mode))
	}
}

// suffixedPath appends _1, _2, ... before the extension until a free path
// is found.
func suffixedPath(targetPath string) (string, error) {
	dir := filepath.Dir(targetPath)
	ext := filepath.Ext(targetPath)
	stem := strings.TrimSuffix(filepath.Base(targetPath), ext)

	for i := 1; i <= maxSuffixAttempts; i++ {
		name := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if len(name) > maxNameLength {
			return "", NewError(KindFileOperation, targetPath, ErrNameTooLong)
		}
		candidate := filepath.Join(dir, name)
		if !pathExists(candidate) {
			return candidate, nil
		}
	}

	return "", NewError(KindFileOperation, targetPath, ErrSuffixExhausted)
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// samePath reports whether two paths refer to the same file name,
// case-insensitively. Used to keep a case-only rename from being treated as
// an external conflict.
func samePath(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
