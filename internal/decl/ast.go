// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

// Package decl provides the boot-time declaration language for the access
// engine. A declaration file is the textual mirror of the registration API:
// it declares groups, users, permissions with their parameter contracts, and
// per-principal overrides, and is applied in order against a fresh registry
// at process start.
//
//	group "admin"
//	group "moderator" from "admin"
//	user "bob" of "admin" aliases ["STEAM_0:1:123"]
//	permission "slap" grants ["admin"] {
//	    num min 0 max 100
//	    num min 0 max 10 optional default 1
//	}
//	allow "bob" "slap" { param 1 min -50 max 50 }
//	deny "bob" "kick"
package decl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
)

// declLexer defines the token types for the declaration language.
var declLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Punct", Pattern: `[\[\]{},]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// File is a sequence of declarations, applied in order.
type File struct {
	Statements []*Statement `parser:"@@*"`
}

// Statement is one declaration.
type Statement struct {
	Pos        lexer.Position  `parser:""`
	Group      *GroupStmt      `parser:"  @@"`
	User       *UserStmt       `parser:"| @@"`
	Permission *PermissionStmt `parser:"| @@"`
	Allow      *AllowStmt      `parser:"| @@"`
	Deny       *DenyStmt       `parser:"| @@"`
}

// GroupStmt declares a group cloned from a parent (the root group when
// "from" is omitted).
type GroupStmt struct {
	Name string `parser:"'group' @String"`
	From string `parser:"('from' @String)?"`
}

// UserStmt declares a user cloned from a group. The user's name is its first
// alias; "aliases" binds additional identifiers.
type UserStmt struct {
	Name    string   `parser:"'user' @String"`
	Of      string   `parser:"('of' @String)?"`
	Aliases []string `parser:"('aliases' '[' @String (',' @String)* ']')?"`
}

// PermissionStmt registers a permission, optionally granting it blanket to
// groups and declaring its ordered parameter contract.
type PermissionStmt struct {
	Tag    string       `parser:"'permission' @String"`
	Grants []string     `parser:"('grants' '[' @String (',' @String)* ']')?"`
	Params []*ParamDecl `parser:"('{' @@* '}')?"`
}

// ParamDecl declares one positional parameter.
type ParamDecl struct {
	Pos  lexer.Position `parser:""`
	Kind string         `parser:"@('num' | 'str')"`
	Opts []*ParamOpt    `parser:"@@*"`
}

// ParamOpt is a single parameter option. Exactly one field is set.
type ParamOpt struct {
	Pos      lexer.Position `parser:""`
	Min      *float64       `parser:"  'min' @Number"`
	Max      *float64       `parser:"| 'max' @Number"`
	Round    *int           `parser:"| 'round' @Number"`
	Repeats  *int           `parser:"| 'repeats' @Number"`
	Optional bool           `parser:"| @'optional'"`
	Rest     bool           `parser:"| @'rest'"`
	Default  *DefaultOpt    `parser:"| 'default' @@"`
}

// DefaultOpt is a default value: numeric or string.
type DefaultOpt struct {
	Num *float64 `parser:"  @Number"`
	Str *string  `parser:"| @String"`
}

// AllowStmt installs an override grant of a permission on a principal
// (user alias or group name), optionally tightening parameters by 1-based
// position.
type AllowStmt struct {
	Target    string          `parser:"'allow' @String"`
	Tag       string          `parser:"@String"`
	Overrides []*OverrideDecl `parser:"('{' @@* '}')?"`
}

// OverrideDecl tightens one parameter of an override grant.
type OverrideDecl struct {
	Pos   lexer.Position `parser:""`
	Index int            `parser:"'param' @Number"`
	Opts  []*ParamOpt    `parser:"@@*"`
}

// DenyStmt marks a permission explicitly denied for a principal.
type DenyStmt struct {
	Target string `parser:"'deny' @String"`
	Tag    string `parser:"@String"`
}

var parser = participle.MustBuild[File](
	participle.Lexer(declLexer),
	participle.Unquote("String"),
	participle.Elide("comment"),
)

// Parse parses declaration text into its AST. Returns a descriptive error
// with position info on failure.
func Parse(text string) (*File, error) {
	file, err := parser.ParseString("", text)
	if err != nil {
		return nil, oops.In("decl").Code("PARSE_FAILED").Wrap(err)
	}
	return file, nil
}
