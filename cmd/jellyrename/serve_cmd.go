package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/jellyrename/internal/api"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTTP view of the undo journal",
		Long: `Start an HTTP server exposing the undo journal.

Endpoints:
  GET /healthz                 - Health check
  GET /api/batches             - List recorded batches
  GET /api/batches/{batch-id}  - List one batch's entries

Set serve.auth_token in the config to require a bearer token.

Examples:
  jellyrename serve
  jellyrename serve --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default from config, else :8080)")

	return cmd
}

func runServe(addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if addr == "" {
		addr = cfg.Serve.Listen
	}
	if addr == "" {
		addr = ":8080"
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

	server := api.NewServer(j, cfg.Serve.AuthToken, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving journal API on %s\n", addr)
	err = server.ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
