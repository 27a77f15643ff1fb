// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package console

import (
	"context"
	"io"
	"log/slog"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Nayruden/otlib/internal/access"
)

var tracer = otel.Tracer("otlib/console")

// Dispatcher resolves aliases to principals, parses command lines, runs
// access checks, and invokes handlers.
type Dispatcher struct {
	commands   *Registry
	principals *access.Registry
}

// NewDispatcher creates a dispatcher over the given command registry and
// principal registry. Returns an error if either is nil.
func NewDispatcher(commands *Registry, principals *access.Registry) (*Dispatcher, error) {
	if commands == nil {
		return nil, oops.In("console").New("command registry is nil")
	}
	if principals == nil {
		return nil, oops.In("console").New("principal registry is nil")
	}
	return &Dispatcher{commands: commands, principals: principals}, nil
}

// Dispatch parses and executes one command line on behalf of alias. The
// access verdict is computed before the handler runs; a denial never reaches
// the handler.
func (d *Dispatcher) Dispatch(ctx context.Context, alias, input string, out io.Writer) (err error) {
	principal, ok := d.principals.ResolvePrincipal(alias)
	if !ok {
		return ErrUnknownAlias(alias)
	}

	parsed, err := Parse(input)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "console.dispatch",
		trace.WithAttributes(
			attribute.String("command.name", parsed.Name),
			attribute.String("principal.id", principal.ID().String()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	entry, ok := d.commands.Get(parsed.Name)
	if !ok {
		err = ErrUnknownCommand(parsed.Name)
		return err
	}

	args, mismatched := Tokenize(parsed.Args)
	if mismatched {
		err = ErrMismatchedQuote()
		return err
	}

	values, cond := principal.CheckAccess(entry.Permission, args...)
	if cond != nil {
		span.SetAttributes(
			attribute.String("denial.kind", cond.Kind().String()),
			attribute.String("denial.level", cond.Level().String()),
		)
		slog.InfoContext(ctx, "console access denied",
			"command", parsed.Name,
			"alias", alias,
			"kind", cond.Kind().String(),
			"level", cond.Level().String(),
		)
		err = ErrAccessDenied(parsed.Name, cond)
		return err
	}

	exec := &Execution{
		Principal: principal,
		Alias:     alias,
		Args:      values,
		Output:    out,
	}
	if handlerErr := entry.Handler(ctx, exec); handlerErr != nil {
		slog.WarnContext(ctx, "console command failed",
			"command", parsed.Name,
			"alias", alias,
			"error", handlerErr,
		)
		err = ErrHandlerFailed(parsed.Name, handlerErr)
		return err
	}
	return nil
}
