// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

// Package access is the authorization engine: a principal hierarchy with
// inherited allow/deny grants, parameterized permissions, and an evaluator
// that turns raw console arguments into typed values or a structured denial.
//
// The engine is built once during a sequential boot phase (registering
// permissions, cloning groups and users, installing overrides) and is
// read-mostly afterward. Registry lookups are guarded; principal mutation
// after boot requires external synchronization by the host.
package access

import (
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// RootGroupName is the name of the base group every other principal
// ultimately clones from.
const RootGroupName = "user"

// Registry owns the process-wide principal and permission tables. Hosts
// construct one at boot and hand read-only references to request handlers;
// multiple registries per process are fine (unit tests rely on this).
type Registry struct {
	mu          sync.RWMutex
	aliases     map[string]*Principal
	groups      map[string]*Principal
	permissions map[string]*Permission
	root        *Principal
}

// NewRegistry creates a registry containing only the root group.
func NewRegistry() *Registry {
	r := &Registry{
		aliases:     make(map[string]*Principal),
		groups:      make(map[string]*Principal),
		permissions: make(map[string]*Permission),
	}
	r.root = newRootPrincipal(r, RootGroupName)
	r.groups[RootGroupName] = r.root
	return r
}

// Root returns the base group.
func (r *Registry) Root() *Principal { return r.root }

// Register creates a new permission under tag and immediately grants blanket
// allow to each initial group. Duplicate tags are rejected.
func (r *Registry) Register(tag string, initialGroups ...*Principal) (*Permission, error) {
	if tag == "" {
		return nil, oops.In("access").Code("EMPTY_TAG").New("permission tag cannot be empty")
	}

	r.mu.Lock()
	if _, exists := r.permissions[tag]; exists {
		r.mu.Unlock()
		return nil, oops.In("access").Code("DUPLICATE_TAG").
			With("tag", tag).
			New("permission tag already registered")
	}
	perm := &Permission{tag: tag}
	r.permissions[tag] = perm
	r.mu.Unlock()

	for _, g := range initialGroups {
		g.Grant(perm)
	}
	return perm, nil
}

// ResolvePrincipal looks up the principal bound to an alias identifier.
func (r *Registry) ResolvePrincipal(alias string) (*Principal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.aliases[alias]
	return p, ok
}

// Group looks up a group principal by name.
func (r *Registry) Group(name string) (*Principal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.groups[name]
	return p, ok
}

// Aliases returns every bound alias identifier. The slice is a copy;
// ordering is unspecified.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aliases := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		aliases = append(aliases, alias)
	}
	return aliases
}

// Permission looks up a registered permission by tag.
func (r *Registry) Permission(tag string) (*Permission, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.permissions[tag]
	return a, ok
}

// Permissions returns all registered permissions. The slice is a copy and
// safe to modify; ordering is unspecified.
func (r *Registry) Permissions() []*Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	perms := make([]*Permission, 0, len(r.permissions))
	for _, a := range r.permissions {
		perms = append(perms, a)
	}
	return perms
}

// PermissionsMatching returns all permissions whose tag matches the given
// glob pattern, with ':' as the segment separator (so "chat:*" matches
// "chat:say" but not "chat:channel:join").
func (r *Registry) PermissionsMatching(pattern string) ([]*Permission, error) {
	g, err := glob.Compile(pattern, ':')
	if err != nil {
		return nil, oops.In("access").Code("INVALID_PATTERN").
			With("pattern", pattern).
			Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Permission
	for tag, a := range r.permissions {
		if g.Match(tag) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// registerGroup records a new group name; called from CreateClonedGroup.
func (r *Registry) registerGroup(name string, p *Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.groups[name]; exists {
		return oops.In("access").Code("DUPLICATE_GROUP").
			With("group", name).
			New("group name already registered")
	}
	r.groups[name] = p
	return nil
}

// registerAliases binds alias identifiers to a principal; called from
// CreateClonedUser. Binding is all-or-nothing: if any alias is already
// taken, none are installed.
func (r *Registry) registerAliases(p *Principal, aliases []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alias := range aliases {
		if alias == "" {
			return oops.In("access").Code("EMPTY_ALIAS").New("alias cannot be empty")
		}
		if _, exists := r.aliases[alias]; exists {
			return oops.In("access").Code("DUPLICATE_ALIAS").
				With("alias", alias).
				New("alias already bound to a principal")
		}
	}
	for _, alias := range aliases {
		r.aliases[alias] = p
	}
	return nil
}
