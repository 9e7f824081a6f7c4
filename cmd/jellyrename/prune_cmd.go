package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal batches older than the expiry window",
		Long: `Delete journal entries whose batch started before the expiry window.

Pruned batches can no longer be undone. The window defaults to the
configured journal.expiry_days.

Examples:
  jellyrename prune
  jellyrename prune --days 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "override the configured expiry window")

	return cmd
}

func runPrune(days int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	if days == 0 {
		days = cfg.Journal.ExpiryDays
	}

	removed, err := j.PruneOldBatches(days)
	if err != nil {
		return err
	}

	fmt.Printf("Pruned %d journal entries older than %d days.\n", removed, days)
	return nil
}
