// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Nayruden/otlib/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run store schema migrations",
		Long:  `Apply pending schema migrations against the PostgreSQL store.`,
		RunE:  runMigrate,
	}

	cmd.Flags().Bool("down", false, "roll back all migrations (destructive)")
	cmd.Flags().Bool("status", false, "print the current schema version and exit")
	cmd.Flags().Int("steps", 0, "apply exactly n migrations (negative migrates down)")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("a database URL is required (--database-url)")
	}

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	if status, _ := cmd.Flags().GetBool("status"); status {
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		cmd.Printf("schema version: %d (dirty: %v)\n", version, dirty)
		return nil
	}

	if steps, _ := cmd.Flags().GetInt("steps"); steps != 0 {
		if err := migrator.Steps(steps); err != nil {
			return err
		}
		cmd.Printf("applied %d migration step(s)\n", steps)
		return nil
	}

	if down, _ := cmd.Flags().GetBool("down"); down {
		if err := migrator.Down(); err != nil {
			return err
		}
		cmd.Println("schema rolled back")
		return nil
	}

	if err := migrator.Up(); err != nil {
		return err
	}
	cmd.Println("migrations completed successfully")
	return nil
}
