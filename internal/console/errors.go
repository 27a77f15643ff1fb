// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package console

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/Nayruden/otlib/internal/access"
)

// Error codes for console dispatch failures.
const (
	CodeEmptyInput      = "EMPTY_INPUT"
	CodeUnknownCommand  = "UNKNOWN_COMMAND"
	CodeUnknownAlias    = "UNKNOWN_ALIAS"
	CodeAccessDenied    = "ACCESS_DENIED"
	CodeMismatchedQuote = "MISMATCHED_QUOTE"
	CodeInvalidName     = "INVALID_NAME"
	CodeHandlerFailed   = "HANDLER_FAILED"
)

// ErrUnknownCommand creates an error for an unknown command.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command: %s", cmd)
}

// ErrUnknownAlias creates an error for an alias with no bound principal.
func ErrUnknownAlias(alias string) error {
	return oops.Code(CodeUnknownAlias).
		With("alias", alias).
		Errorf("no principal bound to alias %s", alias)
}

// ErrAccessDenied wraps a denial Condition from the access engine, keeping
// the structured denial available via oops context.
func ErrAccessDenied(cmd string, cond *access.Condition) error {
	builder := oops.Code(CodeAccessDenied).
		With("command", cmd).
		With("level", cond.Level().String()).
		With("kind", cond.Kind().String()).
		With("denial", cond.Error())
	if idx, ok := cond.ParameterIndex(); ok {
		builder = builder.With("parameter_index", idx)
	}
	return builder.Errorf("access check failed for %s", cmd)
}

// ErrMismatchedQuote creates an error for a line with an unterminated
// double-quoted span.
func ErrMismatchedQuote() error {
	return oops.Code(CodeMismatchedQuote).
		Errorf("unterminated quote in arguments")
}

// ErrHandlerFailed wraps a handler error with a dispatch-level code.
func ErrHandlerFailed(cmd string, cause error) error {
	return oops.Code(CodeHandlerFailed).
		With("command", cmd).
		Wrap(cause)
}

// UserMessage extracts user-facing text from a dispatch error. Denials keep
// the evaluator's rendered message, including the offending argument
// position, because the two-tier level distinction (command policy vs.
// personal grant) is exactly what the user needs to hear.
func UserMessage(err error) string {
	if err == nil {
		return "Something went wrong. Try again."
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Something went wrong. Try again."
	}

	switch oopsErr.Code() {
	case CodeEmptyInput:
		return ""
	case CodeUnknownCommand:
		return "Unknown command. Try 'help'."
	case CodeUnknownAlias:
		return "You are not known to this server."
	case CodeMismatchedQuote:
		return "Unterminated quote in arguments."
	case CodeAccessDenied:
		ctx := oopsErr.Context()
		denial, _ := ctx["denial"].(string)
		if level, _ := ctx["level"].(string); level == access.UserParameters.String() {
			return fmt.Sprintf("Denied by your personal limits: %s", denial)
		}
		if denial != "" {
			return fmt.Sprintf("Denied: %s", denial)
		}
		return "You don't have permission to do that."
	case CodeHandlerFailed:
		return "Something went wrong. Try again."
	default:
		return "Something went wrong. Try again."
	}
}
