// Package transfer provides the file move primitive underneath the rename
// executor. Moves try os.Rename first and fall back to copy-and-remove when
// the rename fails, which covers cross-device (EXDEV) sources.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	// ErrSourceNotFound is returned when the source file doesn't exist.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrDestinationExists is returned when the destination is already
	// occupied. Callers resolve conflicts before moving; hitting this means
	// the filesystem changed underneath us.
	ErrDestinationExists = errors.New("destination already exists")
)

const copyBufferSize = 1 * 1024 * 1024

// Mover moves and copies single files.
type Mover interface {
	// Rename performs only the fast same-filesystem rename.
	Rename(src, dst string) error
	// Move renames when possible and falls back to copy-and-remove.
	Move(src, dst string) error
	// Copy duplicates src at dst, fsyncing the destination.
	Copy(src, dst string) error
}

// Native is the default Mover built on the os package.
type Native struct{}

// NewNative returns the default Mover.
func NewNative() *Native {
	return &Native{}
}

func (n *Native) Rename(src, dst string) error {
	return os.Rename(src, dst)
}

// Move transfers src to dst. The rename fast path is attempted first; any
// rename failure (typically EXDEV) falls back to a full copy followed by
// source removal, so a move is never left half-done without the source.
func (n *Native) Move(src, dst string) error {
	if _, err := os.Lstat(src); err != nil {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, src)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := n.Copy(src, dst); err != nil {
		return err
	}

	if err := os.Remove(src); err != nil {
		// The copy landed; a lingering source is recoverable by hand
		return fmt.Errorf("copied but unable to remove source %s: %w", src, err)
	}
	return nil
}

func (n *Native) Copy(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open source: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("unable to create destination: %w", err)
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(dstFile, srcFile, buf); err != nil {
		dstFile.Close()
		os.Remove(dst)
		return fmt.Errorf("copy failed: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		os.Remove(dst)
		return fmt.Errorf("sync failed: %w", err)
	}

	if err := dstFile.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close failed: %w", err)
	}

	return nil
}
