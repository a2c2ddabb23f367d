// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the blog API. The binary exposes
// three commands: serve (the default HTTP server), migrate, and superuser.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"blogapi/internal/config"
	"blogapi/internal/database"
	"blogapi/internal/logging"
)

func main() {
	// SIGINT or SIGTERM cancels the command context, which drains the server.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blogapi",
		Short:         "Multi-author blog REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd(), newSuperuserCmd())

	// Running the bare binary starts the server.
	root.RunE = serve.RunE
	return root
}

// bootstrap loads configuration, installs the default logger and opens
// the database. Callers own the returned *sql.DB.
func bootstrap(ctx context.Context) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.IsDev())

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := database.Migrate(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d.\n", version)
			return nil
		},
	}
}

func newSuperuserCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "superuser",
		Short: "Create or reset a superuser account",
		Long: "Create a superuser, or reset the email and password of an existing one.\n" +
			"Flags default to SUPERUSER_USERNAME, SUPERUSER_EMAIL and SUPERUSER_PASSWORD.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if !cmd.Flags().Changed("username") {
				username = cfg.SuperuserUsername
			}
			if !cmd.Flags().Changed("email") {
				email = cfg.SuperuserEmail
			}
			if !cmd.Flags().Changed("password") {
				password = cfg.SuperuserPassword
			}

			if _, err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			created, err := database.EnsureSuperuser(cmd.Context(), db, username, email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q created.\n", username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q updated.\n", username)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "superuser username")
	cmd.Flags().StringVar(&email, "email", "", "superuser email")
	cmd.Flags().StringVar(&password, "password", "", "superuser password")
	return cmd
}
