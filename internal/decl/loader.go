// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package decl

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"

	"github.com/Nayruden/otlib/internal/access"
)

// Apply executes the declarations in file, in order, against reg.
// Order matters: grants only reach principals cloned afterward, so
// permissions must be declared before the users meant to hold them.
// Declarations are not transactional: on error, statements before the
// failing one remain applied, so callers should discard the registry.
func Apply(reg *access.Registry, file *File) error {
	for _, stmt := range file.Statements {
		var err error
		switch {
		case stmt.Group != nil:
			err = applyGroup(reg, stmt.Group)
		case stmt.User != nil:
			err = applyUser(reg, stmt.User)
		case stmt.Permission != nil:
			err = applyPermission(reg, stmt.Permission)
		case stmt.Allow != nil:
			err = applyAllow(reg, stmt.Allow)
		case stmt.Deny != nil:
			err = applyDeny(reg, stmt.Deny)
		}
		if err != nil {
			return oops.In("decl").
				With("line", stmt.Pos.Line).
				Wrap(err)
		}
	}
	return nil
}

// Load parses and applies declaration text in one step.
func Load(reg *access.Registry, text string) error {
	file, err := Parse(text)
	if err != nil {
		return err
	}
	return Apply(reg, file)
}

func applyGroup(reg *access.Registry, stmt *GroupStmt) error {
	parent := reg.Root()
	if stmt.From != "" {
		p, ok := reg.Group(stmt.From)
		if !ok {
			return oops.Code("UNKNOWN_GROUP").
				With("group", stmt.From).
				New("parent group not declared")
		}
		parent = p
	}
	_, err := parent.CreateClonedGroup(stmt.Name)
	return err
}

func applyUser(reg *access.Registry, stmt *UserStmt) error {
	parent := reg.Root()
	if stmt.Of != "" {
		p, ok := reg.Group(stmt.Of)
		if !ok {
			return oops.Code("UNKNOWN_GROUP").
				With("group", stmt.Of).
				New("parent group not declared")
		}
		parent = p
	}
	aliases := append([]string{stmt.Name}, stmt.Aliases...)
	_, err := parent.CreateClonedUser(aliases...)
	return err
}

func applyPermission(reg *access.Registry, stmt *PermissionStmt) error {
	groups := make([]*access.Principal, 0, len(stmt.Grants))
	for _, name := range stmt.Grants {
		g, ok := reg.Group(name)
		if !ok {
			return oops.Code("UNKNOWN_GROUP").
				With("group", name).
				New("grant target not declared")
		}
		groups = append(groups, g)
	}

	perm, err := reg.Register(stmt.Tag, groups...)
	if err != nil {
		return err
	}

	for _, decl := range stmt.Params {
		param, err := buildParam(decl)
		if err != nil {
			return err
		}
		if err := perm.AddParam(param); err != nil {
			return err
		}
	}
	return nil
}

func buildParam(decl *ParamDecl) (access.Parameter, error) {
	switch decl.Kind {
	case "num":
		p := access.Num()
		for _, opt := range decl.Opts {
			if err := applyNumOpt(p, opt); err != nil {
				return nil, err
			}
		}
		return p, nil
	case "str":
		p := access.Str()
		for _, opt := range decl.Opts {
			if err := applyStrOpt(p, opt); err != nil {
				return nil, err
			}
		}
		return p, nil
	default:
		// The grammar only admits num and str.
		return nil, oops.Code("UNKNOWN_PARAM_KIND").
			With("kind", decl.Kind).
			New("unknown parameter kind")
	}
}

func applyNumOpt(p *access.NumParam, opt *ParamOpt) error {
	switch {
	case opt.Min != nil:
		p.Min(*opt.Min)
	case opt.Max != nil:
		p.Max(*opt.Max)
	case opt.Round != nil:
		p.RoundTo(*opt.Round)
	case opt.Repeats != nil:
		p.MaxRepeatsOf(*opt.Repeats)
	case opt.Optional:
		p.MinRepeatsOf(0)
	case opt.Default != nil:
		if opt.Default.Num == nil {
			return optError(opt.Pos, "numeric parameter requires a numeric default")
		}
		p.Default(*opt.Default.Num)
	case opt.Rest:
		return optError(opt.Pos, "rest applies only to string parameters")
	}
	return nil
}

func applyStrOpt(p *access.StrParam, opt *ParamOpt) error {
	switch {
	case opt.Rest:
		p.RestOfLine()
	case opt.Optional:
		p.MinRepeatsOf(0)
	case opt.Repeats != nil:
		p.MaxRepeatsOf(*opt.Repeats)
	case opt.Default != nil:
		if opt.Default.Str == nil {
			return optError(opt.Pos, "string parameter requires a string default")
		}
		p.Default(*opt.Default.Str)
	default:
		return optError(opt.Pos, "option does not apply to string parameters")
	}
	return nil
}

func optError(pos lexer.Position, msg string) error {
	return oops.Code("INVALID_PARAM_OPTION").
		With("line", pos.Line).
		With("column", pos.Column).
		New(msg)
}

func applyAllow(reg *access.Registry, stmt *AllowStmt) error {
	principal, err := resolveTarget(reg, stmt.Target)
	if err != nil {
		return err
	}
	perm, ok := reg.Permission(stmt.Tag)
	if !ok {
		return unknownPermission(stmt.Tag)
	}

	override := principal.Allow(perm)
	for _, decl := range stmt.Overrides {
		param := override.ModifyParam(decl.Index - 1)
		if param == nil {
			return oops.Code("PARAM_OUT_OF_RANGE").
				With("permission", stmt.Tag).
				With("param", decl.Index).
				New("override references a parameter the permission does not declare")
		}
		var err error
		switch p := param.(type) {
		case *access.NumParam:
			for _, opt := range decl.Opts {
				if err = applyNumOpt(p, opt); err != nil {
					return err
				}
			}
		case *access.StrParam:
			for _, opt := range decl.Opts {
				if err = applyStrOpt(p, opt); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func applyDeny(reg *access.Registry, stmt *DenyStmt) error {
	principal, err := resolveTarget(reg, stmt.Target)
	if err != nil {
		return err
	}
	perm, ok := reg.Permission(stmt.Tag)
	if !ok {
		return unknownPermission(stmt.Tag)
	}
	principal.Deny(perm)
	return nil
}

// resolveTarget finds a principal by user alias first, then by group name.
func resolveTarget(reg *access.Registry, target string) (*access.Principal, error) {
	if p, ok := reg.ResolvePrincipal(target); ok {
		return p, nil
	}
	if p, ok := reg.Group(target); ok {
		return p, nil
	}
	return nil, oops.Code("UNKNOWN_PRINCIPAL").
		With("target", target).
		New("no user or group by that name")
}

func unknownPermission(tag string) error {
	return oops.Code("UNKNOWN_PERMISSION").
		With("tag", tag).
		New("permission not declared")
}
