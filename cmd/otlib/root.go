// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Nayruden/otlib/internal/config"
	"github.com/Nayruden/otlib/internal/logging"
	"github.com/Nayruden/otlib/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the otlib CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otlib",
		Short: "otlib - embeddable authorization for game-server consoles",
		Long: `otlib hosts an authorization engine for game-server consoles:
groups and users with parameterized permissions, per-user overrides,
and an interactive console that checks every command before it runs.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL URL (empty selects the in-memory store)")

	cmd.AddCommand(NewConsoleCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig resolves configuration from the --config file and the command's
// flags, then installs the default logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configFile
	if path == "" {
		if candidate := xdg.DefaultConfigFile(); fileExists(candidate) {
			path = candidate
		}
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	logging.SetDefault("otlib", cmd.Root().Version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
