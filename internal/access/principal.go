// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package access

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Principal is a node in the permission hierarchy: a group, or a user bound
// to one or more external alias identifiers. Children are created by cloning
// (prototype semantics): the child receives independent copies of the
// parent's allow and deny state at creation time, so later parent changes
// never retroactively affect existing children.
//
// Principals live for the process lifetime; there is no detach or delete
// operation. Mutation (Grant, Allow, Deny) belongs to the declarative boot
// phase or administrative action off the request-serving path.
type Principal struct {
	id      ulid.ULID
	name    string
	reg     *Registry
	parent  *Principal
	aliases []string

	// allow maps a registered permission to either nil (blanket allow:
	// the permission's own declared bounds apply unmodified) or an owned
	// override clone with tightened parameters.
	allow map[*Permission]*Permission
	deny  map[*Permission]struct{}
}

func newRootPrincipal(reg *Registry, name string) *Principal {
	return &Principal{
		id:    ulid.Make(),
		name:  name,
		reg:   reg,
		allow: make(map[*Permission]*Permission),
		deny:  make(map[*Permission]struct{}),
	}
}

// ID returns the principal's unique identifier.
func (p *Principal) ID() ulid.ULID { return p.id }

// Name returns the group name, or the first bound alias for users.
func (p *Principal) Name() string { return p.name }

// Aliases returns the external identifiers bound to this principal. Empty
// for groups.
func (p *Principal) Aliases() []string { return p.aliases }

// Parent returns the principal this one was cloned from, or nil for the root.
func (p *Principal) Parent() *Principal { return p.parent }

// IsUser reports whether this principal is bound to alias identifiers.
func (p *Principal) IsUser() bool { return len(p.aliases) > 0 }

// clone copies the allow/deny state into a fresh child. Override permissions
// are deep-cloned so a child tightening its own override never mutates the
// parent's.
func (p *Principal) clone(name string) *Principal {
	child := &Principal{
		id:     ulid.Make(),
		name:   name,
		reg:    p.reg,
		parent: p,
		allow:  make(map[*Permission]*Permission, len(p.allow)),
		deny:   make(map[*Permission]struct{}, len(p.deny)),
	}
	for perm, override := range p.allow {
		if override == nil {
			child.allow[perm] = nil
			continue
		}
		child.allow[perm] = override.Clone()
	}
	for perm := range p.deny {
		child.deny[perm] = struct{}{}
	}
	return child
}

// CreateClonedGroup creates a child group with independently-owned copies of
// this principal's allow/deny state and registers it globally by name.
func (p *Principal) CreateClonedGroup(name string) (*Principal, error) {
	if name == "" {
		return nil, oops.In("access").Code("EMPTY_GROUP").New("group name cannot be empty")
	}
	child := p.clone(name)
	if err := p.reg.registerGroup(name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// CreateClonedUser creates a leaf principal with independently-owned copies
// of this principal's allow/deny state and binds the given alias identifiers
// in the registry's alias table. At least one alias is required; an alias
// already bound to another principal is rejected.
func (p *Principal) CreateClonedUser(aliases ...string) (*Principal, error) {
	if len(aliases) == 0 {
		return nil, oops.In("access").Code("NO_ALIASES").
			New("a user requires at least one alias")
	}
	child := p.clone(aliases[0])
	if err := p.reg.registerAliases(child, aliases); err != nil {
		return nil, err
	}
	child.aliases = append([]string(nil), aliases...)
	return child, nil
}

// Grant installs a blanket allow: the permission's own declared bounds apply
// unmodified. An explicit Deny still dominates.
func (p *Principal) Grant(perm *Permission) {
	p.allow[perm] = nil
}

// Allow installs an override clone of perm and returns it so the caller can
// immediately tighten specific parameters via ModifyParam. Installing
// without tightening behaves identically to a blanket grant.
func (p *Principal) Allow(perm *Permission) *Permission {
	override := perm.Clone()
	p.allow[perm] = override
	return override
}

// Deny marks the permission explicitly denied for this principal, overriding
// any inherited or direct grant.
func (p *Principal) Deny(perm *Permission) {
	p.deny[perm] = struct{}{}
}

// Revoke removes any grant and any explicit deny of perm from this
// principal, returning it to the default no-grant state.
func (p *Principal) Revoke(perm *Permission) {
	delete(p.allow, perm)
	delete(p.deny, perm)
}

// HasGrant reports whether this principal holds a grant for perm (blanket or
// override) that is not overridden by an explicit deny.
func (p *Principal) HasGrant(perm *Permission) bool {
	if _, denied := p.deny[perm]; denied {
		return false
	}
	_, granted := p.allow[perm]
	return granted
}

// Override returns this principal's override clone of perm, or nil when the
// grant is blanket or absent.
func (p *Principal) Override(perm *Permission) *Permission {
	return p.allow[perm]
}

// CheckAccess evaluates whether this principal may invoke perm with the
// given raw arguments. On success it returns the parsed argument values in
// positional order. On denial it returns a Condition carrying the reason,
// severity level, and (for argument-level failures) the 1-based position of
// the offending argument.
//
// The deny check dominates everything: an explicitly denied or ungranted
// permission fails with AccessDenied before any argument is examined.
func (p *Principal) CheckAccess(perm *Permission, rawArgs ...string) ([]any, *Condition) {
	start := time.Now()
	parsed, cond := p.evaluate(perm, rawArgs)
	recordCheck(time.Since(start), cond)
	return parsed, cond
}

func (p *Principal) evaluate(perm *Permission, rawArgs []string) ([]any, *Condition) {
	if _, denied := p.deny[perm]; denied {
		return nil, Denial(AccessDenied).WithLevel(NoAccess)
	}
	override, granted := p.allow[perm]
	if !granted {
		return nil, Denial(AccessDenied).WithLevel(NoAccess)
	}

	defaults := perm.Params()
	slots := max(len(rawArgs), len(defaults))
	parsed := make([]any, 0, slots)

	for i := 0; i < slots; i++ {
		// Select the active parameter: the positional default, the last
		// default again while its repeat budget allows, or overflow.
		var active Parameter
		var activeIdx int
		switch {
		case i < len(defaults):
			active, activeIdx = defaults[i], i
		case len(defaults) > 0 && i-len(defaults)+2 <= defaults[len(defaults)-1].MaxRepeats():
			activeIdx = len(defaults) - 1
			active = defaults[activeIdx]
		default:
			return nil, Denial(TooManyParams).
				WithLevel(Parameters).
				WithParameterIndex(i + 1)
		}

		var raw *string
		if i < len(rawArgs) {
			if active.TakesRestOfLine() && len(rawArgs) > i+1 {
				joined := strings.Join(rawArgs[i:], " ")
				raw = &joined
			} else {
				raw = &rawArgs[i]
			}
		}

		value, cond := active.Parse(p, raw)
		if cond != nil {
			return nil, cond.WithLevel(Parameters).WithParameterIndex(i + 1)
		}

		// An absent optional argument with no declared default parses to
		// nil. There is no value to hold against either envelope.
		if raw == nil && value == nil {
			parsed = append(parsed, nil)
			continue
		}

		// Tier one: the permission's own declared envelope.
		if cond := active.Validate(p, value); cond != nil {
			return nil, cond.WithLevel(Parameters).WithParameterIndex(i + 1)
		}

		// Tier two: this principal's personally granted envelope. This is
		// what lets an administrator grant a capability to a group while
		// additionally restricting its range for that group alone.
		if override != nil {
			if ovParams := override.Params(); activeIdx < len(ovParams) {
				if cond := ovParams[activeIdx].Validate(p, value); cond != nil {
					return nil, cond.WithLevel(UserParameters).WithParameterIndex(i + 1)
				}
			}
		}

		parsed = append(parsed, value)
		if active.TakesRestOfLine() {
			// Rest-of-line always consumes the remainder.
			break
		}
	}

	return parsed, nil
}
