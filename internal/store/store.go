// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

// Package store provides the keyed row persistence collaborator consumed by
// the host layer: user records, saved permission declarations, addon data.
// The access evaluator itself never touches it.
package store

import (
	"context"

	"github.com/samber/oops"
)

// Row is one keyed record: flat string fields plus named key-value sublists
// (for example a user row with a "groups" sublist).
type Row struct {
	Key    string
	Fields map[string]string
	Lists  map[string]map[string]string
}

// Clone deep-copies the row so stores can hand out values without aliasing
// their internal state.
func (r Row) Clone() Row {
	clone := Row{Key: r.Key}
	if r.Fields != nil {
		clone.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			clone.Fields[k] = v
		}
	}
	if r.Lists != nil {
		clone.Lists = make(map[string]map[string]string, len(r.Lists))
		for name, list := range r.Lists {
			inner := make(map[string]string, len(list))
			for k, v := range list {
				inner[k] = v
			}
			clone.Lists[name] = inner
		}
	}
	return clone
}

// Store is the keyed row abstraction. Insert rejects duplicate keys;
// replacing a row is Remove followed by Insert.
type Store interface {
	Insert(ctx context.Context, table string, row Row) error
	Fetch(ctx context.Context, table, key string) (Row, error)
	Remove(ctx context.Context, table, key string) error
	GetAll(ctx context.Context, table string) ([]Row, error)
}

// Error codes shared by all Store implementations.
const (
	CodeRowNotFound  = "ROW_NOT_FOUND"
	CodeDuplicateRow = "DUPLICATE_ROW"
)

// ErrRowNotFound creates the canonical not-found error.
func ErrRowNotFound(table, key string) error {
	return oops.In("store").Code(CodeRowNotFound).
		With("table", table).
		With("key", key).
		New("row not found")
}

// ErrDuplicateRow creates the canonical duplicate-insert error.
func ErrDuplicateRow(table, key string) error {
	return oops.In("store").Code(CodeDuplicateRow).
		With("table", table).
		With("key", key).
		New("row already exists")
}

// IsRowNotFound checks if an error is a ROW_NOT_FOUND error.
func IsRowNotFound(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == CodeRowNotFound
}

// IsDuplicateRow checks if an error is a DUPLICATE_ROW error.
func IsDuplicateRow(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == CodeDuplicateRow
}
