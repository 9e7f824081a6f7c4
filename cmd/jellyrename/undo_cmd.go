package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/jellyrename/internal/journal"
	"github.com/Nomadcxx/jellyrename/internal/undo"
)

func newUndoCmd() *cobra.Command {
	var (
		assumeYes bool
		noVerify  bool
	)

	cmd := &cobra.Command{
		Use:   "undo [batch-id]",
		Short: "Revert a recorded rename batch",
		Long: `Revert the renames of a journal batch, newest first.

Without a batch ID the most recent batch is reverted. A preview is shown
and nothing changes until confirmed. Files whose current location is
missing or already occupied are skipped, never overwritten.

Examples:
  jellyrename undo
  jellyrename undo batch-20260830-142501-001 --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID := ""
			if len(args) == 1 {
				batchID = args[0]
			}
			return runUndo(batchID, assumeYes, noVerify)
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "revert without asking")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the size/mtime integrity check")

	return cmd
}

// resolveUndoBatch defaults an empty batch ID to the newest batch. The
// returned ID is empty when the journal holds no batches at all.
func resolveUndoBatch(j *journal.Journal, batchID string) (string, error) {
	if batchID != "" {
		return batchID, nil
	}
	latest, err := j.LatestBatchID()
	if err != nil {
		return "", fmt.Errorf("no batches to undo: %w", err)
	}
	return latest, nil
}

func runUndo(batchID string, assumeYes, noVerify bool) error {
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

	batchID, err = resolveUndoBatch(j, batchID)
	if err != nil {
		return err
	}
	if batchID == "" {
		fmt.Println("Journal is empty; nothing to undo.")
		return nil
	}

	u := undo.New(j, nil, logger, undo.Options{
		VerifyIntegrity: cfg.Journal.VerifyIntegrity && !noVerify,
		AssumeYes:       assumeYes,
	})

	ok, err := u.PerformUndo(batchID)
	if errors.Is(err, undo.ErrAborted) {
		fmt.Println("Aborted; nothing changed.")
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("batch %s was only partially reverted; see log for details", batchID)
	}

	fmt.Printf("Batch %s reverted.\n", batchID)
	return nil
}
