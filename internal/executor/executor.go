// Package executor carries out rename plans with a two-phase move protocol.
//
// Phase 1 stages every source file to a uniquely named temp file inside the
// final target's own directory, so the Phase 2 commit is a same-filesystem
// rename even when Phase 1 crossed devices. Any Phase 1 failure rolls the
// whole action list back; Phase 2 failures are isolated per file. The unit
// of atomicity is one file's two-phase move, not the whole batch.
package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/journal"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/plan"
	"github.com/Nomadcxx/jellyrename/internal/transfer"
	"github.com/Nomadcxx/jellyrename/internal/trash"
)

var batchCounter atomic.Uint64

// NewBatchID returns a fresh batch identifier shared by every plan of one
// run.
func NewBatchID() string {
	return fmt.Sprintf("batch-%s-%03d",
		time.Now().Format("20060102-150405"), batchCounter.Add(1))
}

// Options configures one Execute call.
type Options struct {
	DryRun        bool
	Conflict      plan.ConflictMode
	PreserveMtime bool
	// BackupDir, when set, copies originals there before renaming.
	BackupDir string
	// StagingDir, when set, moves originals there instead of renaming;
	// Phase 2 is skipped.
	StagingDir string
	// UseTrash moves originals to the trash instead of renaming; Phase 2 is
	// skipped.
	UseTrash bool
	TrashDir string
}

// Result reports the outcome of executing one plan.
type Result struct {
	Success      bool
	Skipped      bool
	Message      string
	ActionsTaken int
	Preview      []string
	Errors       []string
}

// Executor runs plans against the filesystem and the journal.
type Executor struct {
	journal *journal.Journal
	mover   transfer.Mover
	log     *logging.ComponentLogger
}

// New builds an Executor. A nil mover gets the native implementation.
func New(j *journal.Journal, mover transfer.Mover, logger *logging.Logger) *Executor {
	if mover == nil {
		mover = transfer.NewNative()
	}
	return &Executor{
		journal: j,
		mover:   mover,
		log:     logger.Component("executor"),
	}
}

// staged tracks one file through the two phases.
type staged struct {
	action plan.Action
	final  string
	temp   string
	mtime  time.Time
	stat   *journal.FileStat
}

// Execute runs one plan. The returned error is non-nil only for fatal
// fail-mode conflicts, which abort the whole run; everything else is
// reported in the Result.
func (e *Executor) Execute(pl *plan.Plan, batchID string, opts Options) (*Result, error) {
	res := &Result{}

	if pl.Status != plan.StatusSuccess {
		res.Skipped = true
		res.Message = pl.Message
		return res, nil
	}

	if opts.DryRun {
		return e.dryRun(pl, opts)
	}

	switch {
	case opts.UseTrash:
		return e.executeTrash(pl, batchID, opts)
	case opts.StagingDir != "":
		return e.executeStage(pl, batchID, opts)
	}

	if opts.BackupDir != "" {
		if err := e.backupOriginals(pl, opts.BackupDir, res); err != nil {
			res.Message = fmt.Sprintf("backup failed: %v", err)
			return res, nil
		}
	}

	return e.executeTwoPhase(pl, batchID, opts)
}

// executeTwoPhase is the live rename path.
func (e *Executor) executeTwoPhase(pl *plan.Plan, batchID string, opts Options) (*Result, error) {
	res := &Result{}

	// Phase 0: directory creation and authoritative conflict resolution.
	// Planning-time conflict state can be stale by now; this is where
	// overwrite and suffix modes actually resolve.
	dirCreated, err := e.prepareDir(pl, batchID, res)
	if err != nil {
		res.Message = err.Error()
		return res, nil
	}

	files, fatal, err := e.prepare(pl, opts)
	if err != nil {
		if fatal {
			return res, err
		}
		res.Skipped = plan.KindOf(err) == plan.KindSkipConflict
		res.Message = err.Error()
		return res, nil
	}

	// Phase 1: stage every original to a temp file in its target directory.
	staged, err := e.stageAll(files, batchID)
	if err != nil {
		createdDir := ""
		if dirCreated {
			createdDir = pl.CreateDir
		}
		e.rollback(staged, batchID, createdDir, res)
		res.Message = fmt.Sprintf("phase 1 failed: %v; rolled back", err)
		return res, nil
	}

	// Phase 2: commit temp files to their final paths.
	e.commitAll(staged, batchID, opts, res)

	res.Success = len(res.Errors) == 0
	if res.Success {
		res.Message = fmt.Sprintf("renamed %d file(s)", res.ActionsTaken)
	} else {
		res.Message = fmt.Sprintf("completed %d of %d file(s) with %d error(s)",
			res.ActionsTaken, len(staged), len(res.Errors))
	}
	return res, nil
}

// prepareDir creates the plan's target directory when needed and journals
// it. Returns whether this call created the directory.
func (e *Executor) prepareDir(pl *plan.Plan, batchID string, res *Result) (bool, error) {
	if pl.CreateDir == "" {
		return false, nil
	}

	existed := pathExists(pl.CreateDir)
	if err := os.MkdirAll(pl.CreateDir, 0755); err != nil {
		return false, fmt.Errorf("unable to create directory %s: %w", pl.CreateDir, err)
	}
	if existed {
		return false, nil
	}

	if !e.journal.LogAction(batchID, pl.CreateDir, pl.CreateDir,
		journal.TypeDir, journal.StatusCreatedDir, nil) {
		// A journal row for this directory already exists; refuse to
		// continue with an unrecordable action list.
		return true, fmt.Errorf("unable to journal directory creation for %s", pl.CreateDir)
	}

	e.log.Info("created directory", logging.F("path", pl.CreateDir))
	return true, nil
}

// prepare resolves final targets and captures stats for every action.
// fatal is true when a fail-mode conflict must abort the whole run.
func (e *Executor) prepare(pl *plan.Plan, opts Options) ([]staged, bool, error) {
	files := make([]staged, 0, len(pl.Actions))

	for _, a := range pl.Actions {
		final, err := plan.Resolve(a.OriginalPath, a.NewPath, opts.Conflict)
		if err != nil {
			fatal := plan.KindOf(err) == plan.KindTargetExists
			return nil, fatal, err
		}

		st := staged{action: a, final: final}
		if info, err := os.Stat(a.OriginalPath); err == nil {
			st.mtime = info.ModTime()
			st.stat = &journal.FileStat{Size: info.Size(), Mtime: info.ModTime()}
		}
		files = append(files, st)
	}

	return files, false, nil
}

// stageAll runs Phase 1. On any failure it returns the files staged so far
// for rollback; the failing file itself was not moved.
func (e *Executor) stageAll(files []staged, batchID string) ([]staged, error) {
	done := make([]staged, 0, len(files))

	for _, f := range files {
		// The journal records the true original and the intended final;
		// the temp path is re-derivable from the final path's pattern.
		if !e.journal.LogAction(batchID, f.action.OriginalPath, f.final,
			journal.TypeFile, journal.StatusPendingFinal, f.stat) {
			return done, fmt.Errorf("unable to journal %s (duplicate original path?)",
				f.action.OriginalPath)
		}

		f.temp = tempName(f.final)
		if err := e.mover.Move(f.action.OriginalPath, f.temp); err != nil {
			e.journal.UpdateStatus(batchID, f.action.OriginalPath, journal.StatusFailedPending)
			return done, fmt.Errorf("unable to stage %s: %w", f.action.OriginalPath, err)
		}

		e.log.Debug("staged", logging.F("original", f.action.OriginalPath),
			logging.F("temp", f.temp))
		done = append(done, f)
	}

	return done, nil
}

// rollback undoes Phase 1: every temp-staged file moves back to its
// original location and the journal rows flip to failed_pending. A created
// directory is removed only when empty. Rollback failures are CRITICAL but
// leave the journal able to locate stray temp files later.
func (e *Executor) rollback(staged []staged, batchID string, createdDir string, res *Result) {
	for i := len(staged) - 1; i >= 0; i-- {
		f := staged[i]
		if err := e.mover.Move(f.temp, f.action.OriginalPath); err != nil {
			msg := fmt.Sprintf("CRITICAL: rollback of %s failed, temp file left at %s: %v",
				f.action.OriginalPath, f.temp, err)
			res.Errors = append(res.Errors, msg)
			e.log.Error("rollback failed", err,
				logging.F("original", f.action.OriginalPath),
				logging.F("temp", f.temp))
		}
		e.journal.UpdateStatus(batchID, f.action.OriginalPath, journal.StatusFailedPending)
	}

	if createdDir != "" {
		// os.Remove only deletes empty directories, which is exactly the
		// guard we want here.
		os.Remove(createdDir)
	}
}

// commitAll runs Phase 2. Errors are collected per file and never roll back
// siblings that already committed.
func (e *Executor) commitAll(files []staged, batchID string, opts Options, res *Result) {
	for _, f := range files {
		if err := e.commit(f, opts); err != nil {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: %v", f.action.OriginalPath, err))
			e.log.Error("commit failed", err,
				logging.F("original", f.action.OriginalPath),
				logging.F("final", f.final))
			continue
		}

		status := journal.StatusRenamed
		if !strings.EqualFold(filepath.Dir(f.action.OriginalPath), filepath.Dir(f.final)) {
			status = journal.StatusMoved
		}
		e.journal.UpdateStatus(batchID, f.action.OriginalPath, status)
		res.ActionsTaken++

		e.log.Info("committed",
			logging.F("original", f.action.OriginalPath),
			logging.F("final", f.final),
			logging.F("status", string(status)))
	}
}

// commit moves one temp file to its final path.
func (e *Executor) commit(f staged, opts Options) error {
	if pathExists(f.final) {
		if opts.Conflict != plan.ConflictOverwrite {
			return fmt.Errorf("target appeared since staging: %s", f.final)
		}
		if err := os.Remove(f.final); err != nil {
			return fmt.Errorf("unable to remove overwrite target: %w", err)
		}
	}

	// Temp and final share a directory, so this rename is cheap; the move
	// fallback covers exotic filesystems anyway.
	if err := e.mover.Rename(f.temp, f.final); err != nil {
		if err := e.mover.Move(f.temp, f.final); err != nil {
			return err
		}
	}

	if opts.PreserveMtime && !f.mtime.IsZero() {
		if err := os.Chtimes(f.final, time.Now(), f.mtime); err != nil {
			e.log.Warn("unable to preserve mtime",
				logging.F("path", f.final), logging.F("error", err))
		}
	}

	return nil
}

// backupOriginals copies every action's original into the backup directory
// before the rename proceeds.
func (e *Executor) backupOriginals(pl *plan.Plan, backupDir string, res *Result) error {
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("unable to create backup directory: %w", err)
	}

	for _, a := range pl.Actions {
		dst := filepath.Join(backupDir, filepath.Base(a.OriginalPath))
		if err := e.mover.Copy(a.OriginalPath, dst); err != nil {
			return err
		}
		e.log.Debug("backed up", logging.F("original", a.OriginalPath),
			logging.F("backup", dst))
	}
	return nil
}

// executeTrash moves originals to the trash, journaling trashed rows.
// Phase 2 never runs.
func (e *Executor) executeTrash(pl *plan.Plan, batchID string, opts Options) (*Result, error) {
	res := &Result{}

	trasher, err := trash.New(opts.TrashDir, e.mover)
	if err != nil {
		res.Message = err.Error()
		return res, nil
	}

	for _, a := range pl.Actions {
		stat := statOf(a.OriginalPath)
		trashedPath, err := trasher.Trash(a.OriginalPath)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", a.OriginalPath, err))
			continue
		}
		if !e.journal.LogAction(batchID, a.OriginalPath, trashedPath,
			journal.TypeFile, journal.StatusTrashed, stat) {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: trashed but not journaled", a.OriginalPath))
			continue
		}
		res.ActionsTaken++
	}

	res.Success = len(res.Errors) == 0
	res.Message = fmt.Sprintf("trashed %d file(s)", res.ActionsTaken)
	return res, nil
}

// executeStage moves originals into the staging directory at their
// conflict-resolved stage paths, journaling moved rows. Phase 2 never runs.
func (e *Executor) executeStage(pl *plan.Plan, batchID string, opts Options) (*Result, error) {
	res := &Result{}

	if err := os.MkdirAll(opts.StagingDir, 0755); err != nil {
		res.Message = fmt.Sprintf("unable to create staging directory: %v", err)
		return res, nil
	}

	for _, a := range pl.Actions {
		want := filepath.Join(opts.StagingDir, filepath.Base(a.NewPath))
		dst, err := plan.Resolve(a.OriginalPath, want, opts.Conflict)
		if err != nil {
			if plan.KindOf(err) == plan.KindTargetExists {
				return res, err
			}
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", a.OriginalPath, err))
			continue
		}

		stat := statOf(a.OriginalPath)
		if err := e.mover.Move(a.OriginalPath, dst); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", a.OriginalPath, err))
			continue
		}
		if !e.journal.LogAction(batchID, a.OriginalPath, dst,
			journal.TypeFile, journal.StatusMoved, stat) {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: staged but not journaled", a.OriginalPath))
			continue
		}
		res.ActionsTaken++
	}

	res.Success = len(res.Errors) == 0
	res.Message = fmt.Sprintf("staged %d file(s)", res.ActionsTaken)
	return res, nil
}

// dryRun simulates conflict resolution and renders a preview without
// touching the filesystem or the journal.
func (e *Executor) dryRun(pl *plan.Plan, opts Options) (*Result, error) {
	res := &Result{Success: true}

	if pl.CreateDir != "" {
		res.Preview = append(res.Preview, fmt.Sprintf("mkdir  %s", pl.CreateDir))
	}

	for _, a := range pl.Actions {
		final, err := plan.Resolve(a.OriginalPath, a.NewPath, opts.Conflict)
		if err != nil {
			res.Preview = append(res.Preview,
				fmt.Sprintf("%-6s %s (conflict: %v)", a.Kind, a.OriginalPath, err))
			continue
		}

		verb := a.Kind.String()
		switch {
		case opts.UseTrash:
			verb = "trash"
		case opts.StagingDir != "":
			verb = "stage"
		}
		res.Preview = append(res.Preview,
			fmt.Sprintf("%-6s %s -> %s", verb, a.OriginalPath, final))
	}

	res.Message = fmt.Sprintf("dry run: %d action(s)", len(pl.Actions))
	return res, nil
}

func statOf(path string) *journal.FileStat {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return &journal.FileStat{Size: info.Size(), Mtime: info.ModTime()}
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
