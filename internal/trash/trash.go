// Package trash moves files to the platform trash instead of deleting them.
// On Linux that is the XDG trash (~/.local/share/Trash); a configured trash
// directory overrides it.
package trash

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/Nomadcxx/jellyrename/internal/transfer"
)

// Trasher moves files into a trash directory, writing .trashinfo metadata
// when using the XDG layout.
type Trasher struct {
	dir   string // files directory
	info  string // .trashinfo directory, empty for plain directories
	mover transfer.Mover
}

// New builds a Trasher. With an empty dir the XDG trash location is used.
func New(dir string, mover transfer.Mover) (*Trasher, error) {
	if mover == nil {
		mover = transfer.NewNative()
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create trash directory: %w", err)
		}
		return &Trasher{dir: dir, mover: mover}, nil
	}

	home, err := paths.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to locate trash: %w", err)
	}

	files := filepath.Join(home, ".local", "share", "Trash", "files")
	info := filepath.Join(home, ".local", "share", "Trash", "info")
	for _, d := range []string{files, info} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return nil, fmt.Errorf("unable to create trash directory: %w", err)
		}
	}
	return &Trasher{dir: files, info: info, mover: mover}, nil
}

// Dir returns the directory trashed files land in.
func (t *Trasher) Dir() string { return t.dir }

// Trash moves path into the trash and returns the trashed location. Name
// collisions inside the trash get a numeric suffix.
func (t *Trasher) Trash(path string) (string, error) {
	if _, err := os.Lstat(path); err != nil {
		return "", fmt.Errorf("unable to trash %s: %w", path, err)
	}

	target := t.freeName(filepath.Base(path))

	if t.info != "" {
		infoPath := filepath.Join(t.info, filepath.Base(target)+".trashinfo")
		content := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
			path, time.Now().Format("2006-01-02T15:04:05"))
		if err := os.WriteFile(infoPath, []byte(content), 0600); err != nil {
			return "", fmt.Errorf("unable to write trashinfo: %w", err)
		}
	}

	if err := t.mover.Move(path, target); err != nil {
		return "", err
	}
	return target, nil
}

func (t *Trasher) freeName(base string) string {
	candidate := filepath.Join(t.dir, base)
	if _, err := os.Lstat(candidate); err != nil {
		return candidate
	}

	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	for i := 2; ; i++ {
		candidate = filepath.Join(t.dir, fmt.Sprintf("%s.%d%s", stem, i, ext))
		if _, err := os.Lstat(candidate); err != nil {
			return candidate
		}
	}
}
