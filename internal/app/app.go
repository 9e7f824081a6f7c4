// Package app wires scanning, guessing, metadata lookup, planning, and
// execution into one rename run. Metadata lookups run concurrently; plans
// execute sequentially under a single batch ID so the whole run can be
// undone in one step.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/executor"
	"github.com/Nomadcxx/jellyrename/internal/guess"
	"github.com/Nomadcxx/jellyrename/internal/journal"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/media"
	"github.com/Nomadcxx/jellyrename/internal/plan"
	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/Nomadcxx/jellyrename/internal/ui"
)

// ErrAborted is returned when the user declines the confirmation prompt.
var ErrAborted = errors.New("aborted by user")

// Options adjusts one Run beyond what the config file provides.
type Options struct {
	DryRun bool
	// NoConfirm applies changes without the confirmation prompt.
	NoConfirm bool
	// Conflict overrides the configured conflict mode when non-empty.
	Conflict string
	// Backup and Stage override the configured backup/staging directories.
	Backup string
	Stage  string
	// Trash moves originals to the trash instead of renaming them.
	Trash bool
}

// Summary aggregates the outcome of one run.
type Summary struct {
	Renamed   int
	Skipped   int
	Conflicts int
	Failed    int
	// BatchID identifies the run in the journal; empty for dry runs and
	// runs that changed nothing.
	BatchID string
}

// Runner orchestrates one rename run end to end.
type Runner struct {
	cfg       *config.Config
	scanner   *scanner.Scanner
	planner   *plan.Planner
	exec      *executor.Executor
	provider  provider.Provider
	presenter ui.Presenter
	log       *logging.ComponentLogger
}

// New assembles a Runner from config. The journal must stay open for the
// Runner's lifetime; a nil presenter gets the console default.
func New(cfg *config.Config, j *journal.Journal, pres ui.Presenter, logger *logging.Logger) (*Runner, error) {
	if pres == nil {
		pres = ui.NewConsole(false)
	}

	planner, err := plan.NewPlanner(cfg, logger)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:       cfg,
		scanner:   scanner.New(cfg),
		planner:   planner,
		exec:      executor.New(j, nil, logger),
		presenter: pres,
		log:       logger.Component("app"),
	}

	if cfg.Metadata.Enabled {
		apiKey := cfg.GetAPIKey("tmdb")
		if apiKey == "" {
			return nil, errors.New("metadata enabled but no TMDB API key configured")
		}
		tmdb, err := provider.NewTMDB(apiKey, cfg.Metadata, logger)
		if err != nil {
			return nil, err
		}
		r.provider = tmdb
	}

	return r, nil
}

// Run scans the given paths and renames every media file found under them.
// A declined confirmation returns ErrAborted with nothing changed; a fatal
// fail-mode conflict aborts the run mid-way with the partial summary.
func (r *Runner) Run(ctx context.Context, paths []string, opts Options) (*Summary, error) {
	sum := &Summary{}

	if opts.Conflict != "" {
		mode, err := plan.ParseConflictMode(opts.Conflict)
		if err != nil {
			return sum, err
		}
		r.planner.SetMode(mode)
	}

	items, err := r.scanner.Scan(paths)
	if err != nil {
		return sum, err
	}
	if len(items) == 0 {
		r.log.Info("no media files found", logging.F("paths", fmt.Sprintf("%v", paths)))
		r.presenter.Summary(0, 0, 0, 0)
		return sum, nil
	}

	records := r.identify(ctx, items)

	plans, err := r.planAll(items, records, sum)
	if err != nil {
		return sum, err
	}
	if len(plans) == 0 {
		r.presenter.Summary(sum.Renamed, sum.Skipped, sum.Conflicts, sum.Failed)
		return sum, nil
	}

	if opts.DryRun {
		r.preview(plans, sum)
		r.presenter.Summary(sum.Renamed, sum.Skipped, sum.Conflicts, sum.Failed)
		return sum, nil
	}

	if !opts.NoConfirm {
		changes := 0
		for _, pl := range plans {
			changes += pl.ChangeCount()
		}
		if !r.presenter.Confirm(fmt.Sprintf("Apply %d changes to %d files", changes, len(plans))) {
			return sum, ErrAborted
		}
	}

	batchID := executor.NewBatchID()
	sum.BatchID = batchID
	if err := r.executeAll(ctx, plans, batchID, opts, sum); err != nil {
		r.presenter.Summary(sum.Renamed, sum.Skipped, sum.Conflicts, sum.Failed)
		return sum, err
	}

	r.presenter.Summary(sum.Renamed, sum.Skipped, sum.Conflicts, sum.Failed)
	return sum, nil
}

// identify guesses every video and enriches the guesses with metadata when
// a provider is configured. Lookups that fail keep the guessed record.
func (r *Runner) identify(ctx context.Context, items []scanner.Item) []media.Record {
	records := make([]media.Record, len(items))
	for i, item := range items {
		records[i] = guess.Guess(item.VideoPath)
	}

	if r.provider == nil {
		return records
	}
	return provider.FetchAll(ctx, r.provider, records, r.cfg.Metadata.MaxParallel)
}

// planAll builds a plan per item, presenting and counting skips and
// conflicts as it goes. Only executable plans are returned. The error is
// non-nil only for a fatal fail-mode conflict.
func (r *Runner) planAll(items []scanner.Item, records []media.Record, sum *Summary) ([]*plan.Plan, error) {
	var plans []*plan.Plan
	for i, item := range items {
		pl, err := r.planner.Plan(item.VideoPath, item.Associates, records[i])
		if err != nil {
			r.presenter.PlanSkipped(item.VideoPath, err.Error())
			sum.Conflicts++
			return plans, err
		}

		switch pl.Status {
		case plan.StatusSuccess:
			plans = append(plans, pl)
		case plan.StatusConflictUnresolved:
			r.presenter.PlanSkipped(pl.SourcePath, pl.Message)
			sum.Conflicts++
		default:
			r.presenter.PlanSkipped(pl.SourcePath, pl.Message)
			sum.Skipped++
		}
	}
	return plans, nil
}

// preview renders each plan without touching the filesystem or journal.
func (r *Runner) preview(plans []*plan.Plan, sum *Summary) {
	for _, pl := range plans {
		r.presenter.PlanHeader(pl.SourcePath)
		if pl.CreateDir != "" {
			r.presenter.PlanLine(fmt.Sprintf("mkdir %s", pl.CreateDir))
		}
		for _, a := range pl.Actions {
			r.presenter.PlanLine(fmt.Sprintf("%s -> %s", filepath.Base(a.OriginalPath), a.NewPath))
		}
		sum.Renamed += pl.ChangeCount()
	}
}

// executeAll runs the plans one at a time under a shared batch ID,
// stopping between plans when the context is cancelled. Per-plan failures
// are counted, not fatal; only a fail-mode conflict aborts the run.
func (r *Runner) executeAll(ctx context.Context, plans []*plan.Plan, batchID string, opts Options, sum *Summary) error {
	execOpts := executor.Options{
		Conflict:      r.planner.Mode(),
		PreserveMtime: r.cfg.Options.PreserveMtime,
		BackupDir:     r.cfg.Options.BackupDir,
		StagingDir:    r.cfg.Options.StagingDir,
		UseTrash:      opts.Trash,
		TrashDir:      r.cfg.Options.TrashDir,
	}
	if opts.Backup != "" {
		execOpts.BackupDir = opts.Backup
	}
	if opts.Stage != "" {
		execOpts.StagingDir = opts.Stage
	}

	for _, pl := range plans {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := r.exec.Execute(pl, batchID, execOpts)
		if err != nil {
			sum.Failed++
			r.presenter.BatchResult(pl.SourcePath, err.Error(), false)
			return err
		}

		switch {
		case res.Skipped:
			sum.Skipped++
			r.presenter.PlanSkipped(pl.SourcePath, res.Message)
		case res.Success:
			sum.Renamed += res.ActionsTaken
			r.presenter.BatchResult(pl.SourcePath, res.Message, true)
		default:
			sum.Failed++
			r.presenter.BatchResult(pl.SourcePath, res.Message, false)
			for _, e := range res.Errors {
				r.presenter.PlanLine(e)
				r.log.Error("batch error", errors.New(e), logging.F("source", pl.SourcePath))
			}
		}
	}
	return nil
}
