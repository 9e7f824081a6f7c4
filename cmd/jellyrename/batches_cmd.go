package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/jellyrename/internal/ui"
)

func newBatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches [batch-id]",
		Short: "List recorded rename batches",
		Long: `List the batches recorded in the undo journal, newest first.

With a batch ID, show that batch's individual entries instead.

Examples:
  jellyrename batches
  jellyrename batches batch-20260830-142501-001`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runBatchEntries(args[0])
			}
			return runBatches()
		},
	}

	return cmd
}

func runBatches() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	batches, err := j.ListBatches()
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Println("No batches recorded.")
		return nil
	}

	for _, b := range batches {
		state := fmt.Sprintf("%d entries", b.Entries)
		if b.Reverted == b.Entries {
			state = ui.Dim(state + ", reverted")
		} else if b.Reverted > 0 {
			state = fmt.Sprintf("%d entries, %d reverted", b.Entries, b.Reverted)
		}
		fmt.Printf("%s  %s  %s\n",
			ui.Action(b.BatchID),
			b.Started.Format("2006-01-02 15:04:05"),
			state)
	}
	return nil
}

func runBatchEntries(batchID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	entries, err := j.BatchEntries(batchID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no such batch: %s", batchID)
	}

	for _, e := range entries {
		fmt.Printf("%-14s %s -> %s\n", ui.Dim(string(e.Status)), e.OriginalPath, e.NewPath)
	}
	return nil
}
