// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package access

import (
	"fmt"
	"math"
	"strconv"
)

// Parameter defines, for one positional slot, how raw text becomes a typed
// value and whether a typed value is acceptable. The implementation set is
// closed: NumParam and StrParam.
//
// Builder setters mutate and return the concrete receiver; they are meant
// for the declarative boot phase only and are never safe for concurrent use.
type Parameter interface {
	// Parse converts a raw argument into the variant's native type. A nil
	// raw means the argument was absent: if the parameter is required the
	// result is a MissingRequiredParam condition, otherwise the declared
	// default is returned.
	Parse(p *Principal, raw *string) (any, *Condition)

	// Validate checks a parsed value against the variant's constraints.
	Validate(p *Principal, value any) *Condition

	// Clone returns an independent copy. Mutating the clone never affects
	// the original; this is what lets a per-principal override diverge
	// from the shared default.
	Clone() Parameter

	// MinRepeats is the minimum number of occurrences (0 marks the
	// parameter optional).
	MinRepeats() int

	// MaxRepeats is the maximum number of trailing occurrences. Values
	// above 1 are only meaningful on the last parameter of a permission.
	MaxRepeats() int

	// TakesRestOfLine reports whether this parameter consumes all
	// remaining tokens as one space-joined argument.
	TakesRestOfLine() bool

	// Usage returns a short human-readable fragment describing the slot,
	// used by console help output.
	Usage() string
}

// paramBase carries the fields every parameter variant shares.
type paramBase struct {
	minRepeats   int
	maxRepeats   int
	defaultValue any
	restOfLine   bool
}

func newParamBase() paramBase {
	return paramBase{minRepeats: 1, maxRepeats: 1}
}

func (b *paramBase) MinRepeats() int       { return b.minRepeats }
func (b *paramBase) MaxRepeats() int       { return b.maxRepeats }
func (b *paramBase) TakesRestOfLine() bool { return b.restOfLine }

// parseAbsent resolves a missing argument: required parameters fail, optional
// parameters fall back to the declared default.
func (b *paramBase) parseAbsent() (any, *Condition) {
	if b.minRepeats > 0 {
		return nil, Denial(MissingRequiredParam)
	}
	return b.defaultValue, nil
}

// NumParam is a numeric positional parameter with an inclusive [min,max]
// envelope and optional display rounding.
type NumParam struct {
	paramBase
	min      float64
	max      float64
	hasMin   bool
	hasMax   bool
	roundTo  int
	hasRound bool
}

// Num creates a numeric parameter: required, single occurrence, unbounded.
func Num() *NumParam {
	return &NumParam{paramBase: newParamBase()}
}

// Min sets the inclusive lower bound.
func (p *NumParam) Min(v float64) *NumParam {
	p.min = v
	p.hasMin = true
	return p
}

// Max sets the inclusive upper bound.
func (p *NumParam) Max(v float64) *NumParam {
	p.max = v
	p.hasMax = true
	return p
}

// RoundTo rounds parsed values half-up to the given number of decimal
// places. Zero rounds to whole numbers.
func (p *NumParam) RoundTo(places int) *NumParam {
	p.roundTo = places
	p.hasRound = true
	return p
}

// Default sets the value used when the argument is absent and MinRepeats is 0.
func (p *NumParam) Default(v float64) *NumParam {
	p.defaultValue = v
	return p
}

// MinRepeatsOf sets the minimum occurrence count. Zero marks the parameter
// optional.
func (p *NumParam) MinRepeatsOf(n int) *NumParam {
	p.minRepeats = n
	return p
}

// MaxRepeatsOf sets the maximum trailing occurrence count.
func (p *NumParam) MaxRepeatsOf(n int) *NumParam {
	p.maxRepeats = n
	return p
}

// Parse implements Parameter.
func (p *NumParam) Parse(_ *Principal, raw *string) (any, *Condition) {
	if raw == nil {
		return p.parseAbsent()
	}
	v, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return nil, Denial(InvalidNumber, *raw)
	}
	if p.hasRound {
		v = roundHalfUp(v, p.roundTo)
	}
	return v, nil
}

// Validate implements Parameter.
func (p *NumParam) Validate(_ *Principal, value any) *Condition {
	v, ok := value.(float64)
	if !ok {
		// Parse is the only producer of values handed to Validate; a
		// non-numeric value here is a bug in the permission tables.
		panic(fmt.Sprintf("access: numeric parameter validated against %T", value))
	}
	if p.hasMin && v < p.min {
		return Denial(TooLow, formatNum(v), formatNum(p.min))
	}
	if p.hasMax && v > p.max {
		return Denial(TooHigh, formatNum(v), formatNum(p.max))
	}
	return nil
}

// Clone implements Parameter.
func (p *NumParam) Clone() Parameter {
	clone := *p
	return &clone
}

// Usage implements Parameter.
func (p *NumParam) Usage() string {
	lo, hi := "-inf", "+inf"
	if p.hasMin {
		lo = formatNum(p.min)
	}
	if p.hasMax {
		hi = formatNum(p.max)
	}
	if p.minRepeats == 0 {
		return fmt.Sprintf("[%s..%s]", lo, hi)
	}
	return fmt.Sprintf("<%s..%s>", lo, hi)
}

// StrParam is a free-text positional parameter. Beyond the shared repeat and
// rest-of-line behavior it imposes no constraint; it exists as the extension
// point for richer string validation.
type StrParam struct {
	paramBase
}

// Str creates a string parameter: required, single occurrence.
func Str() *StrParam {
	return &StrParam{paramBase: newParamBase()}
}

// Default sets the value used when the argument is absent and MinRepeats is 0.
func (p *StrParam) Default(v string) *StrParam {
	p.defaultValue = v
	return p
}

// MinRepeatsOf sets the minimum occurrence count. Zero marks the parameter
// optional.
func (p *StrParam) MinRepeatsOf(n int) *StrParam {
	p.minRepeats = n
	return p
}

// MaxRepeatsOf sets the maximum trailing occurrence count.
func (p *StrParam) MaxRepeatsOf(n int) *StrParam {
	p.maxRepeats = n
	return p
}

// RestOfLine makes the parameter consume all remaining tokens as a single
// space-joined argument. Must be the last parameter of its permission.
func (p *StrParam) RestOfLine() *StrParam {
	p.restOfLine = true
	return p
}

// Parse implements Parameter.
func (p *StrParam) Parse(_ *Principal, raw *string) (any, *Condition) {
	if raw == nil {
		return p.parseAbsent()
	}
	return *raw, nil
}

// Validate implements Parameter.
func (p *StrParam) Validate(_ *Principal, value any) *Condition {
	if _, ok := value.(string); !ok {
		return Denial(InvalidString, value)
	}
	return nil
}

// Clone implements Parameter.
func (p *StrParam) Clone() Parameter {
	clone := *p
	return &clone
}

// Usage implements Parameter.
func (p *StrParam) Usage() string {
	switch {
	case p.restOfLine:
		return "<text...>"
	case p.minRepeats == 0:
		return "[string]"
	default:
		return "<string>"
	}
}

// roundHalfUp rounds half-up to the given number of decimal places, matching
// the rounding rule used for display rounding elsewhere in the system.
func roundHalfUp(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Floor(v*pow+0.5) / pow
}

// formatNum renders a float without a trailing ".0" for whole values, so
// denial messages read naturally ("101 is above..." rather than "101.000000").
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
