package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/jellyrename/internal/app"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		settle    int
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "watch [path]...",
		Short: "Watch inbox directories and rename arrivals automatically",
		Long: `Watch the given directories (or the configured watch.paths) and
rename every media file once it has finished copying in.

Each settled file is processed as its own batch without prompting, so every
automatic rename stays individually undoable.

Examples:
  jellyrename watch /downloads/inbox/
  jellyrename watch --settle 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args, settle, recursive)
		},
	}

	cmd.Flags().IntVar(&settle, "settle", 0, "seconds a file must stay quiet before renaming")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "watch subdirectories")

	return cmd
}

// inboxHandler renames each settled file as a one-file batch.
type inboxHandler struct {
	runner  *app.Runner
	scanner *scanner.Scanner
}

func (h *inboxHandler) IsMediaFile(path string) bool {
	return h.scanner.IsVideo(path)
}

func (h *inboxHandler) HandleFile(path string) error {
	_, err := h.runner.Run(context.Background(), []string{path}, app.Options{NoConfirm: true})
	if errors.Is(err, app.ErrAborted) {
		return nil
	}
	return err
}

func runWatch(args []string, settle int, recursive bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	paths := args
	if len(paths) == 0 {
		paths = cfg.Watch.Paths
	}
	if len(paths) == 0 {
		return fmt.Errorf("no watch paths given and none configured under [watch]")
	}
	if settle == 0 {
		settle = cfg.Watch.SettleSeconds
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logger.Close()

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	runner, err := app.New(cfg, j, ui.NewConsole(true), logger)
	if err != nil {
		return err
	}

	w, err := watcher.New(
		&inboxHandler{runner: runner, scanner: scanner.New(cfg)},
		logger,
		watcher.WithRecursive(recursive && cfg.Watch.Recursive),
		watcher.WithSettle(time.Duration(settle)*time.Second),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(paths); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching for new media files. Press Ctrl+C to stop.")
	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
