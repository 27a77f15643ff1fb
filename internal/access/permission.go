// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package access

import (
	"strings"

	"github.com/samber/oops"
)

// Permission names a capability and owns its canonical, ordered parameter
// list. The registered instance is shared by reference with every principal
// that holds a blanket grant; principals that need narrower bounds install a
// Clone and tighten it via ModifyParam.
type Permission struct {
	tag    string
	params []Parameter
}

// Tag returns the registration name. It is bookkeeping only; evaluation
// always works through the Permission reference, never through the tag.
func (a *Permission) Tag() string { return a.tag }

// Params returns the ordered parameter list. Callers must not mutate it.
func (a *Permission) Params() []Parameter { return a.params }

// AddParam appends a parameter to the ordered list. Only valid during the
// declaration phase, before the permission is used in any access check.
//
// Placement rules are enforced here rather than left to convention: a
// repeating or rest-of-line parameter must stay the last slot, and a single
// parameter cannot both repeat and capture the rest of the line.
func (a *Permission) AddParam(p Parameter) error {
	errb := oops.In("access").With("permission", a.tag)

	if p.MaxRepeats() > 1 && p.TakesRestOfLine() {
		return errb.Code("PARAM_CONFLICT").
			New("a parameter cannot both repeat and take the rest of the line")
	}
	if p.MaxRepeats() < 1 {
		return errb.Code("PARAM_INVALID_REPEATS").
			With("max_repeats", p.MaxRepeats()).
			New("max repeats must be at least 1")
	}
	if p.MinRepeats() > p.MaxRepeats() {
		return errb.Code("PARAM_INVALID_REPEATS").
			With("min_repeats", p.MinRepeats()).
			With("max_repeats", p.MaxRepeats()).
			New("min repeats exceeds max repeats")
	}
	if n := len(a.params); n > 0 {
		last := a.params[n-1]
		if last.MaxRepeats() > 1 || last.TakesRestOfLine() {
			return errb.Code("PARAM_NOT_LAST").
				With("position", n+1).
				New("a repeating or rest-of-line parameter must be the last parameter")
		}
	}

	a.params = append(a.params, p)
	return nil
}

// MustAddParam is AddParam for hardcoded declarations, where a placement
// violation is a bug in the calling code.
func (a *Permission) MustAddParam(p Parameter) *Permission {
	if err := a.AddParam(p); err != nil {
		panic("access: " + err.Error())
	}
	return a
}

// ModifyParam clones the parameter at index i (0-based) in place within this
// permission's own list and returns the clone for further tightening.
// Returns nil if i is out of range. Meaningful only on a principal-owned
// override; calling it on the registered default would widen the shared list.
func (a *Permission) ModifyParam(i int) Parameter {
	if i < 0 || i >= len(a.params) {
		return nil
	}
	clone := a.params[i].Clone()
	a.params[i] = clone
	return clone
}

// Clone deep-copies the parameter list alongside the permission itself, so
// overrides never alias the shared default list.
func (a *Permission) Clone() *Permission {
	params := make([]Parameter, len(a.params))
	for i, p := range a.params {
		params[i] = p.Clone()
	}
	return &Permission{tag: a.tag, params: params}
}

// Usage renders the permission's argument contract for console help output.
func (a *Permission) Usage() string {
	if len(a.params) == 0 {
		return a.tag
	}
	parts := make([]string, 0, len(a.params)+1)
	parts = append(parts, a.tag)
	for _, p := range a.params {
		parts = append(parts, p.Usage())
	}
	return strings.Join(parts, " ")
}
