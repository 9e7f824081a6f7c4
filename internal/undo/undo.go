// Package undo reverses a journaled batch: files renamed or moved go back
// to their original paths, staged temp files are located and restored, and
// created directories are removed when empty. Undo never overwrites
// anything.
package undo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/executor"
	"github.com/Nomadcxx/jellyrename/internal/journal"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/transfer"
)

// ErrAborted is returned when the user declines the confirmation prompt or
// the prompt input fails. No filesystem changes are made in that case.
var ErrAborted = errors.New("undo aborted")

// mtimeTolerance absorbs filesystem timestamp granularity during the
// integrity check.
const mtimeTolerance = time.Second

// Options configures an Undoer.
type Options struct {
	// VerifyIntegrity compares size and mtime against the journaled stats
	// before reverting a renamed or moved file.
	VerifyIntegrity bool
	// AssumeYes skips the confirmation prompt.
	AssumeYes bool
	// Input is the confirmation source, defaulting to stdin.
	Input io.Reader
	// Output receives the preview and prompt, defaulting to stdout.
	Output io.Writer
}

// Undoer reverts batches recorded in the journal.
type Undoer struct {
	journal *journal.Journal
	mover   transfer.Mover
	opts    Options
	log     *logging.ComponentLogger
}

// New builds an Undoer. A nil mover gets the native implementation.
func New(j *journal.Journal, mover transfer.Mover, logger *logging.Logger, opts Options) *Undoer {
	if mover == nil {
		mover = transfer.NewNative()
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Undoer{
		journal: j,
		mover:   mover,
		opts:    opts,
		log:     logger.Component("undo"),
	}
}

// PerformUndo reverts one batch. It returns true iff every revertible row
// succeeded or was safely skipped; declining the confirmation returns
// ErrAborted with zero changes made.
func (u *Undoer) PerformUndo(batchID string) (bool, error) {
	entries, err := u.journal.EntriesForUndo(batchID)
	if err != nil {
		return false, fmt.Errorf("unable to read journal for batch %s: %w", batchID, err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(u.opts.Output, "Nothing to undo for batch %s\n", batchID)
		return true, nil
	}

	fmt.Fprintf(u.opts.Output, "Undo batch %s (%d entries):\n", batchID, len(entries))
	for _, e := range entries {
		fmt.Fprintf(u.opts.Output, "  %s\n", u.preview(e))
	}

	if !u.opts.AssumeYes {
		if !u.confirm() {
			return false, ErrAborted
		}
	}

	var failures, skips int
	for _, e := range entries {
		switch outcome := u.revert(e); outcome {
		case outcomeReverted:
		case outcomeSkipped:
			skips++
		case outcomeFailed:
			failures++
		}
	}

	fmt.Fprintf(u.opts.Output, "Undo complete: %d reverted, %d skipped, %d failed\n",
		len(entries)-failures-skips, skips, failures)
	u.log.Info("undo finished", logging.F("batch", batchID),
		logging.F("skipped", skips), logging.F("failed", failures))

	return failures == 0, nil
}

// preview renders one journal row as a human-readable undo description.
func (u *Undoer) preview(e journal.Entry) string {
	switch e.Status {
	case journal.StatusRenamed, journal.StatusMoved:
		return fmt.Sprintf("%s -> %s", e.NewPath, e.OriginalPath)
	case journal.StatusPendingFinal:
		if temp, ok := u.locateTemp(e.NewPath); ok {
			return fmt.Sprintf("%s -> %s (staged temp)", temp, e.OriginalPath)
		}
		return fmt.Sprintf("<temp file not found> -> %s", e.OriginalPath)
	case journal.StatusCreatedDir:
		return fmt.Sprintf("remove directory %s", e.OriginalPath)
	case journal.StatusFailedPending:
		return fmt.Sprintf("%s (already rolled back)", e.OriginalPath)
	default:
		return fmt.Sprintf("%s (status %s, not undoable)", e.OriginalPath, e.Status)
	}
}

func (u *Undoer) confirm() bool {
	fmt.Fprint(u.opts.Output, "Proceed? [y/N]: ")
	reader := bufio.NewReader(u.opts.Input)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

type outcome int

const (
	outcomeReverted outcome = iota
	outcomeSkipped
	outcomeFailed
)

// revert undoes one journal row. Errors are contained to the row.
func (u *Undoer) revert(e journal.Entry) outcome {
	switch e.Status {
	case journal.StatusRenamed, journal.StatusMoved:
		return u.revertMove(e, e.NewPath)

	case journal.StatusPendingFinal:
		temp, ok := u.locateTemp(e.NewPath)
		if !ok {
			u.log.Warn("temp file missing or ambiguous, skipping",
				logging.F("final", e.NewPath))
			return outcomeSkipped
		}
		return u.revertMove(e, temp)

	case journal.StatusCreatedDir:
		return u.revertDir(e)

	case journal.StatusFailedPending:
		// Rolled back during execution; nothing on disk to change.
		u.journal.UpdateStatus(e.BatchID, e.OriginalPath, journal.StatusReverted)
		return outcomeSkipped

	default:
		u.log.Warn("unrecognized journal status, skipping",
			logging.F("path", e.OriginalPath), logging.F("status", string(e.Status)))
		return outcomeSkipped
	}
}

// revertMove renames source (the current location) back to the journaled
// original path.
func (u *Undoer) revertMove(e journal.Entry, source string) outcome {
	if _, err := os.Lstat(source); err != nil {
		u.log.Warn("source missing, skipping", logging.F("path", source))
		return outcomeSkipped
	}

	if _, err := os.Lstat(e.OriginalPath); err == nil {
		u.log.Warn("original path occupied, skipping",
			logging.F("path", e.OriginalPath))
		return outcomeSkipped
	}

	if u.opts.VerifyIntegrity && e.Status != journal.StatusPendingFinal {
		if ok, reason := u.checkIntegrity(e, source); !ok {
			u.log.Warn("integrity check failed, skipping",
				logging.F("path", source), logging.F("reason", reason))
			return outcomeSkipped
		}
	}

	if err := u.mover.Move(source, e.OriginalPath); err != nil {
		u.log.Error("revert failed", err, logging.F("source", source),
			logging.F("original", e.OriginalPath))
		return outcomeFailed
	}

	if !u.journal.UpdateStatus(e.BatchID, e.OriginalPath, journal.StatusReverted) {
		u.log.Error("reverted on disk but journal row not updated", nil,
			logging.F("path", e.OriginalPath))
		return outcomeFailed
	}
	return outcomeReverted
}

func (u *Undoer) revertDir(e journal.Entry) outcome {
	info, err := os.Lstat(e.OriginalPath)
	if err != nil {
		// Already gone counts as reverted
		u.journal.UpdateStatus(e.BatchID, e.OriginalPath, journal.StatusReverted)
		return outcomeSkipped
	}
	if !info.IsDir() {
		u.log.Warn("journaled directory is not a directory, skipping",
			logging.F("path", e.OriginalPath))
		return outcomeSkipped
	}

	if entries, err := os.ReadDir(e.OriginalPath); err != nil || len(entries) > 0 {
		u.log.Warn("directory not empty, refusing to remove",
			logging.F("path", e.OriginalPath))
		return outcomeSkipped
	}

	if err := os.Remove(e.OriginalPath); err != nil {
		u.log.Error("unable to remove directory", err,
			logging.F("path", e.OriginalPath))
		return outcomeFailed
	}

	u.journal.UpdateStatus(e.BatchID, e.OriginalPath, journal.StatusReverted)
	return outcomeReverted
}

// checkIntegrity compares the file at path against the journaled stats.
func (u *Undoer) checkIntegrity(e journal.Entry, path string) (bool, string) {
	if !e.OriginalSize.Valid && !e.OriginalMtime.Valid {
		return true, ""
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, "unable to stat"
	}

	if e.OriginalSize.Valid && info.Size() != e.OriginalSize.Int64 {
		return false, fmt.Sprintf("size %d != journaled %d", info.Size(), e.OriginalSize.Int64)
	}

	if e.OriginalMtime.Valid {
		recorded := time.Unix(e.OriginalMtime.Int64, 0)
		diff := info.ModTime().Sub(recorded)
		if diff < -mtimeTolerance || diff > mtimeTolerance {
			return false, "mtime drifted"
		}
	}

	return true, ""
}

// locateTemp finds the unique temp file staged for a final path. Zero or
// multiple matches are unresolvable and reported as not found.
func (u *Undoer) locateTemp(finalPath string) (string, bool) {
	matches, err := filepath.Glob(executor.TempGlob(finalPath))
	if err != nil || len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}
