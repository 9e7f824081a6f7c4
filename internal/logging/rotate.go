package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// rotateFiles shifts the numbered backup chain up by one and moves the live
// log into slot 1: jellyrename.log -> jellyrename.1.log -> jellyrename.2.log.
// The slot at keep is dropped, as is any stale backup numbered past keep.
func rotateFiles(livePath string, keep int) error {
	if err := pruneExcess(livePath, keep); err != nil {
		return err
	}

	for n := keep - 1; n >= 1; n-- {
		src := backupPath(livePath, n)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, backupPath(livePath, n+1)); err != nil {
			return fmt.Errorf("unable to shift backup %s: %w", src, err)
		}
	}

	if _, err := os.Stat(livePath); err == nil {
		if err := os.Rename(livePath, backupPath(livePath, 1)); err != nil {
			return fmt.Errorf("unable to rotate current log: %w", err)
		}
	}
	return nil
}

// backupPath returns the path of backup slot n: dir/name.n.ext.
func backupPath(livePath string, n int) string {
	ext := filepath.Ext(livePath)
	stem := strings.TrimSuffix(livePath, ext)
	return fmt.Sprintf("%s.%d%s", stem, n, ext)
}

// pruneExcess removes numbered backups at or past keep, including strays
// left behind when the configured backup count shrank.
func pruneExcess(livePath string, keep int) error {
	ext := filepath.Ext(livePath)
	stem := strings.TrimSuffix(livePath, ext)

	matches, err := filepath.Glob(stem + ".*" + ext)
	if err != nil {
		return err
	}
	for _, m := range matches {
		numStr := strings.TrimSuffix(strings.TrimPrefix(m, stem+"."), ext)
		n, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		if n >= keep {
			os.Remove(m)
		}
	}
	return nil
}
