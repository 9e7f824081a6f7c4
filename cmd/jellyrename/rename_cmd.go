package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/jellyrename/internal/app"
	"github.com/Nomadcxx/jellyrename/internal/ui"
)

func newRenameCmd() *cobra.Command {
	var (
		dryRun    bool
		noConfirm bool
		conflict  string
		backupDir string
		stageDir  string
		useTrash  bool
	)

	cmd := &cobra.Command{
		Use:   "rename <path>...",
		Short: "Rename media files according to the configured templates",
		Long: `Rename media files and their sidecars under the given paths.

Each file is identified from its name (and TMDB when metadata is enabled),
a new name is computed from the templates, and the change is applied through
a two-phase commit recorded in the undo journal.

Examples:
  jellyrename rename /downloads/tv/
  jellyrename rename Silo.S02E02.1080p.mkv --dry-run
  jellyrename rename /downloads/ --conflict suffix --no-confirm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(args, app.Options{
				DryRun:    dryRun,
				NoConfirm: noConfirm,
				Conflict:  conflict,
				Backup:    backupDir,
				Stage:     stageDir,
				Trash:     useTrash,
			})
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "preview changes without touching files")
	cmd.Flags().BoolVarP(&noConfirm, "no-confirm", "y", false, "apply changes without asking")
	cmd.Flags().StringVar(&conflict, "conflict", "", "conflict mode: skip, fail, overwrite, suffix")
	cmd.Flags().StringVar(&backupDir, "backup", "", "copy originals to this directory before renaming")
	cmd.Flags().StringVar(&stageDir, "stage", "", "move originals into this directory instead of renaming")
	cmd.Flags().BoolVar(&useTrash, "trash", false, "move originals to the trash instead of renaming")

	return cmd
}

func runRename(paths []string, opts app.Options) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
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

	runner, err := app.New(cfg, j, ui.NewConsole(opts.NoConfirm), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := runner.Run(ctx, paths, opts)
	if errors.Is(err, app.ErrAborted) {
		fmt.Println("Aborted; nothing changed.")
		return nil
	}
	if err != nil {
		return err
	}

	if sum.BatchID != "" && sum.Renamed > 0 {
		fmt.Printf("Undo with: jellyrename undo %s\n", sum.BatchID)
	}
	return nil
}
