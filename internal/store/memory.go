// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store for tests and flat-file-less deployments.
// It is thread-safe and hands out deep copies, so callers can mutate
// returned rows freely.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]map[string]Row
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string]Row)}
}

// Insert implements Store.
func (m *Memory) Insert(_ context.Context, table string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		rows = make(map[string]Row)
		m.tables[table] = rows
	}
	if _, exists := rows[row.Key]; exists {
		return ErrDuplicateRow(table, row.Key)
	}
	rows[row.Key] = row.Clone()
	return nil
}

// Fetch implements Store.
func (m *Memory) Fetch(_ context.Context, table, key string) (Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.tables[table][key]
	if !ok {
		return Row{}, ErrRowNotFound(table, key)
	}
	return row.Clone(), nil
}

// Remove implements Store.
func (m *Memory) Remove(_ context.Context, table, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	if _, ok := rows[key]; !ok {
		return ErrRowNotFound(table, key)
	}
	delete(rows, key)
	return nil
}

// GetAll implements Store.
func (m *Memory) GetAll(_ context.Context, table string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.tables[table]
	result := make([]Row, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.Clone())
	}
	return result, nil
}
