package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	remindersvc "leadops_backend/internal/reminders/service"
	"leadops_backend/internal/scheduler"
	"leadops_backend/internal/store"
	"leadops_backend/platform/config"
	"leadops_backend/platform/httpkit"

	"github.com/spf13/cobra"
)

var repairOwnersCmd = &cobra.Command{
	Use:   "repair-owners",
	Short: "Re-resolve leads whose owner is unknown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		res, err := app.Leads.Service.RepairOwners(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Run reminder batches",
}

var enqueueReminder bool

var remindersRunCmd = &cobra.Command{
	Use:       "run <job>",
	Short:     "Run one reminder batch now, or enqueue it for the scheduler worker",
	Args:      cobra.ExactArgs(1),
	ValidArgs: remindersvc.Jobs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job := strings.TrimSpace(args[0])
		if enqueueReminder {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			client, err := scheduler.NewClient(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()
			if err := client.EnqueueReminder(cmd.Context(), job); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s\n", job)
			return err
		}

		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		res, err := app.Reminders.Service.Run(cmd.Context(), job)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var slaSweepCmd = &cobra.Command{
	Use:   "sla-sweep",
	Short: "Reassign leads that breached the first-touch window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		res, err := app.Routing.Service.SweepSLA(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect router settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored router settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		settings, err := app.Routing.Service.Settings(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), settings)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply document-table migrations to the Postgres backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.GetDatabaseURL() == "" {
			return errors.New("DATABASE_URL is not set")
		}
		if err := store.Migrate(cmd.Context(), cfg.GetDatabaseURL()); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return err
	},
}

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin bearer token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		token, err := httpkit.IssueAdminToken(cfg.GetAdminJWTSecret(), tokenSubject, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	remindersRunCmd.Flags().BoolVar(&enqueueReminder, "enqueue", false, "enqueue the batch on the task queue instead of running it in-process")
	remindersCmd.AddCommand(remindersRunCmd)

	settingsCmd.AddCommand(settingsShowCmd)

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject recorded as the acting admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(repairOwnersCmd, remindersCmd, slaSweepCmd, settingsCmd, migrateCmd, tokenCmd)
}
