// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

// Package console is the line-oriented host surface for the access engine:
// a quote-aware tokenizer, a command registry binding console commands to
// registered permissions, and a dispatcher that resolves aliases to
// principals and runs access checks before invoking handlers.
package console

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/Nayruden/otlib/internal/access"
)

// Handler is the function signature for console command handlers. Args holds
// the typed values produced by the access evaluator, in positional order.
type Handler func(ctx context.Context, exec *Execution) error

// Execution provides context for one command invocation.
type Execution struct {
	Principal *access.Principal
	Alias     string // the alias the caller was resolved from
	Args      []any  // parsed argument values from CheckAccess
	Output    io.Writer
}

// Entry is a registered console command bound to its permission.
type Entry struct {
	Name       string
	Permission *access.Permission
	Handler    Handler
	Help       string // short description (one line)
	Source     string // "core" or the registering plugin/addon name
}

// Registry manages console command registration and lookup. It is
// thread-safe for concurrent access.
type Registry struct {
	commands map[string]Entry
	mu       sync.RWMutex
}

// NewRegistry creates a new console command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Entry)}
}

// Register adds a command to the registry after validating its name. If a
// command with the same name exists, it is overwritten and a warning is
// logged: last-loaded wins.
func (r *Registry) Register(entry Entry) error {
	if err := ValidateCommandName(entry.Name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.commands[entry.Name]; ok {
		slog.Warn("console command conflict: overwriting existing command",
			"command", entry.Name,
			"previous_source", existing.Source,
			"new_source", entry.Source)
	}

	r.commands[entry.Name] = entry
	return nil
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.commands[name]
	return entry, ok
}

// All returns all registered commands. The returned slice is a copy and safe
// to modify.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.commands))
	for _, e := range r.commands {
		entries = append(entries, e)
	}
	return entries
}
