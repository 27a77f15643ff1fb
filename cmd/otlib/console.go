// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Nayruden/otlib/internal/access"
	"github.com/Nayruden/otlib/internal/config"
	"github.com/Nayruden/otlib/internal/console"
	"github.com/Nayruden/otlib/internal/decl"
	"github.com/Nayruden/otlib/internal/observability"
	"github.com/Nayruden/otlib/internal/store"
	"github.com/Nayruden/otlib/internal/xdg"
	"github.com/Nayruden/otlib/pkg/errutil"
)

// NewConsoleCmd creates the console subcommand.
func NewConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run an interactive console",
		Long: `Run an interactive console over stdin. Principals, permissions, and
overrides come from the declaration file; every line is checked against
the acting alias before the command runs.`,
		RunE: runConsole,
	}

	cmd.Flags().String("boot-file", "", "declaration file applied at startup")
	cmd.Flags().String("alias", "", "alias to act as (required unless set in config)")
	cmd.Flags().Bool("metrics", false, "serve Prometheus metrics and health probes")
	cmd.Flags().String("metrics-addr", "", "metrics listen address")

	return cmd
}

func runConsole(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Console.Alias == "" {
		return oops.Code("CONFIG_INVALID").Errorf("an acting alias is required (--alias)")
	}

	principals, commands, err := bootRegistries(cfg)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	journal := console.NewJournal(st)

	historyPerm, _ := principals.Permission("history")
	err = commands.Register(console.Entry{
		Name:       "history",
		Permission: historyPerm,
		Help:       "list recorded command lines",
		Source:     "core",
		Handler:    historyHandler(journal),
	})
	if err != nil {
		return err
	}

	dispatcher, err := console.NewDispatcher(commands, principals)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		server := observability.NewServer(cfg.Metrics.Addr, func() bool { return true })
		if _, err := server.Start(); err != nil {
			return err
		}
		metrics = server.Metrics()
		metrics.BoundAliases.Set(float64(len(principals.Aliases())))
		cmd.Printf("metrics on %s\n", server.Addr())
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(ctx)
		}()
	}

	cmd.Printf("otlib console. Acting as %q. Type 'help' for commands, 'quit' to exit.\n", cfg.Console.Alias)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		err := dispatcher.Dispatch(cmd.Context(), cfg.Console.Alias, line, cmd.OutOrStdout())
		status := "ok"
		if err != nil {
			status = "error"
			if oopsErr, isOops := oops.AsOops(err); isOops && oopsErr.Code() == console.CodeAccessDenied {
				status = "denied"
			}
		}
		if status == "error" {
			errutil.LogError(slog.Default(), "dispatch failed", err)
		}
		if metrics != nil {
			metrics.CommandsTotal.WithLabelValues(strings.Fields(line)[0], status).Inc()
		}
		if jerr := journal.Record(cmd.Context(), cfg.Console.Alias, line, status); jerr != nil {
			slog.Warn("journal write failed", "error", jerr)
		}
		if err != nil {
			cmd.Println(console.UserMessage(err))
			continue
		}
		cmd.Println()
	}

	if err := scanner.Err(); err != nil {
		return oops.Code("CONSOLE_READ_FAILED").Wrap(err)
	}
	return nil
}

// bootRegistries builds the principal registry from the declaration file and
// binds a console command to every declared permission. Commands without a
// dedicated handler get an acknowledgement handler that echoes the parsed
// arguments, so hosts can exercise the access rules before wiring real ones.
func bootRegistries(cfg config.Config) (*access.Registry, *console.Registry, error) {
	principals := access.NewRegistry()

	// Core permissions go on the root before any declarations run, so the
	// groups and users the declaration file clones inherit them. Grants
	// made after a clone never reach principals that already exist.
	helpPerm, err := principals.Register("help", principals.Root())
	if err != nil {
		return nil, nil, err
	}
	historyPerm, err := principals.Register("history", principals.Root())
	if err != nil {
		return nil, nil, err
	}

	bootFile := cfg.Console.BootFile
	if bootFile == "" {
		if candidate := xdg.DefaultBootFile(); fileExists(candidate) {
			bootFile = candidate
		}
	}
	if bootFile != "" {
		text, err := os.ReadFile(bootFile)
		if err != nil {
			return nil, nil, oops.Code("BOOT_FILE_UNREADABLE").
				With("path", bootFile).
				Wrap(err)
		}
		if err := decl.Load(principals, string(text)); err != nil {
			return nil, nil, err
		}
		slog.Info("declarations applied", "path", bootFile)
	}

	commands := console.NewRegistry()

	for _, perm := range principals.Permissions() {
		perm := perm
		if perm == helpPerm || perm == historyPerm {
			continue
		}
		if console.ValidateCommandName(perm.Tag()) != nil {
			slog.Warn("permission tag is not a valid command name, skipping", "tag", perm.Tag())
			continue
		}
		err := commands.Register(console.Entry{
			Name:       perm.Tag(),
			Permission: perm,
			Help:       "usage: " + perm.Tag() + " " + perm.Usage(),
			Source:     "boot",
			Handler:    echoHandler(perm.Tag()),
		})
		if err != nil {
			return nil, nil, err
		}
	}

	err = commands.Register(console.Entry{
		Name:       "help",
		Permission: helpPerm,
		Help:       "list available commands",
		Source:     "core",
		Handler:    helpHandler(commands),
	})
	if err != nil {
		return nil, nil, err
	}

	return principals, commands, nil
}

// openStore picks the journal's backing store: Postgres behind a read-through
// cache when a database URL is configured, process-local memory otherwise.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.Database.URL == "" {
		return store.NewMemory(), func() {}, nil
	}
	pg, err := store.NewPostgres(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	return store.NewCached(pg), pg.Close, nil
}

func echoHandler(name string) console.Handler {
	return func(_ context.Context, exec *console.Execution) error {
		if _, err := fmt.Fprintf(exec.Output, "%s: %v", name, exec.Args); err != nil {
			observability.RecordOutputFailure(name)
			return oops.Code("OUTPUT_FAILED").Wrap(err)
		}
		return nil
	}
}

func historyHandler(journal *console.Journal) console.Handler {
	return func(ctx context.Context, exec *console.Execution) error {
		entries, err := journal.Entries(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if _, err := fmt.Fprintf(exec.Output, "[%s] %s: %s\n", e.Status, e.Alias, e.Line); err != nil {
				observability.RecordOutputFailure("history")
				return oops.Code("OUTPUT_FAILED").Wrap(err)
			}
		}
		return nil
	}
}

func helpHandler(commands *console.Registry) console.Handler {
	return func(_ context.Context, exec *console.Execution) error {
		entries := commands.All()
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, e := range entries {
			line := e.Name
			if e.Help != "" {
				line += " - " + e.Help
			}
			if _, err := fmt.Fprintln(exec.Output, line); err != nil {
				observability.RecordOutputFailure("help")
				return oops.Code("OUTPUT_FAILED").Wrap(err)
			}
		}
		return nil
	}
}
