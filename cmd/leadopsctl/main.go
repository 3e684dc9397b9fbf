// Command leadopsctl runs operator maintenance tasks against the document
// store: owner repair, reminder batches, migrations and admin tokens.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"leadops_backend/internal/bootstrap"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "leadopsctl",
	Short:         "Operator tooling for the lead operations backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadApp builds the full application for commands that touch domain data.
func loadApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return bootstrap.Build(ctx, cfg, logger.New(cfg.Env))
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
