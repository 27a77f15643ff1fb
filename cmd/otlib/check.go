// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package main

import (
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Nayruden/otlib/internal/console"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [command line]",
		Short: "Evaluate one command line without running it",
		Long: `Evaluate a single command line against the declared access rules and
report the verdict. The command's handler is never invoked. Exits
non-zero when access is denied.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().String("boot-file", "", "declaration file applied at startup")
	cmd.Flags().String("alias", "", "alias to act as")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Console.Alias == "" {
		return oops.Code("CONFIG_INVALID").Errorf("an acting alias is required (--alias)")
	}

	principals, _, err := bootRegistries(cfg)
	if err != nil {
		return err
	}

	line := strings.Join(args, " ")
	parsed, err := console.Parse(line)
	if err != nil {
		return err
	}

	principal, ok := principals.ResolvePrincipal(cfg.Console.Alias)
	if !ok {
		return console.ErrUnknownAlias(cfg.Console.Alias)
	}
	perm, ok := principals.Permission(parsed.Name)
	if !ok {
		return console.ErrUnknownCommand(parsed.Name)
	}

	rawArgs, mismatched := console.Tokenize(parsed.Args)
	if mismatched {
		return console.ErrMismatchedQuote()
	}

	values, cond := principal.CheckAccess(perm, rawArgs...)
	if cond != nil {
		cmd.Printf("denied: %s (kind=%s level=%s)\n",
			cond.Message(), cond.Kind(), cond.Level())
		return console.ErrAccessDenied(parsed.Name, cond)
	}

	cmd.Printf("allowed: %s %v\n", parsed.Name, values)
	return nil
}
