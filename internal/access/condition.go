// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package access

import "fmt"

// Kind identifies the reason a check failed.
type Kind int

// Kind constants enumerate every denial reason the evaluator can produce.
const (
	AccessDenied Kind = iota
	MissingRequiredParam
	TooManyParams
	InvalidNumber
	InvalidString
	TooLow
	TooHigh
)

var kindStrings = [...]string{
	"access_denied",
	"missing_required_param",
	"too_many_params",
	"invalid_number",
	"invalid_string",
	"too_low",
	"too_high",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindStrings) {
		return kindStrings[k]
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Level classifies the severity of a denial. NoAccess means no grant exists
// at all; Parameters means an argument violated the permission's own declared
// contract; UserParameters means an argument violated a principal-specific
// override that is narrower than the permission's contract.
type Level int

// Level constants define the denial severities.
const (
	NoAccess Level = iota
	Parameters
	UserParameters
)

var levelStrings = [...]string{
	"no_access",
	"parameters",
	"user_parameters",
}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelStrings) {
		return levelStrings[l]
	}
	return fmt.Sprintf("unknown(%d)", int(l))
}

// Message templates per kind. Argument order is part of the contract:
// TooLow and TooHigh take the offending value followed by the bound.
var kindTemplates = map[Kind]string{
	AccessDenied:         "access denied",
	MissingRequiredParam: "required argument missing",
	TooManyParams:        "too many arguments",
	InvalidNumber:        "%v is not a valid number",
	InvalidString:        "%v is not a valid string",
	TooLow:               "%v is below the allowed minimum of %v",
	TooHigh:              "%v is above the allowed maximum of %v",
}

// Condition is a structured denial reason. One is constructed fresh for every
// failed check, has its level and parameter index set exactly once by the
// evaluator, and is owned by the caller that receives it.
type Condition struct {
	kind       Kind
	level      Level
	paramIndex int // 1-based player-facing position; 0 = not set
	message    string
}

// Denial constructs a Condition for the given kind, rendering its message
// from the kind's template and args. Callers are trusted internal code; arg
// arity is not validated.
func Denial(kind Kind, args ...any) *Condition {
	tmpl, ok := kindTemplates[kind]
	if !ok {
		// A kind outside the fixed set is a programmer error, not a
		// runtime input problem.
		panic(fmt.Sprintf("access: no message template for condition kind %d", int(kind)))
	}
	msg := tmpl
	if len(args) > 0 {
		msg = fmt.Sprintf(tmpl, args...)
	}
	return &Condition{kind: kind, message: msg}
}

// WithLevel sets the denial severity and returns the same instance for
// chaining. Called exactly once per instance by the evaluator.
func (c *Condition) WithLevel(l Level) *Condition {
	c.level = l
	return c
}

// WithParameterIndex records the 1-based position of the offending argument
// and returns the same instance for chaining.
func (c *Condition) WithParameterIndex(i int) *Condition {
	c.paramIndex = i
	return c
}

// Is reports whether the condition carries the given kind.
func (c *Condition) Is(kind Kind) bool {
	return c.kind == kind
}

// Kind returns the denial reason tag.
func (c *Condition) Kind() Kind { return c.kind }

// Level returns the denial severity.
func (c *Condition) Level() Level { return c.level }

// ParameterIndex returns the 1-based position of the offending argument and
// whether one was recorded. Access-level denials carry no position.
func (c *Condition) ParameterIndex() (int, bool) {
	return c.paramIndex, c.paramIndex > 0
}

// Message returns the rendered denial text.
func (c *Condition) Message() string { return c.message }

// Error satisfies the error interface so hosts can log a Condition directly.
func (c *Condition) Error() string {
	if c.paramIndex > 0 {
		return fmt.Sprintf("%s (argument %d)", c.message, c.paramIndex)
	}
	return c.message
}
