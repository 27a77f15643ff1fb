// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package store

import (
	"context"
	"sync"
)

// Cached wraps a Store with an in-process read-through cache. Fetch serves
// from cache when possible; writes go to the inner store first and update
// the cache only on success. GetAll always hits the inner store since the
// cache has no notion of table completeness.
type Cached struct {
	inner Store

	mu     sync.RWMutex
	tables map[string]map[string]Row
}

// NewCached wraps inner with a read-through cache.
func NewCached(inner Store) *Cached {
	return &Cached{
		inner:  inner,
		tables: make(map[string]map[string]Row),
	}
}

// Insert implements Store.
func (c *Cached) Insert(ctx context.Context, table string, row Row) error {
	if err := c.inner.Insert(ctx, table, row); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(table, row)
	return nil
}

// Fetch implements Store.
func (c *Cached) Fetch(ctx context.Context, table, key string) (Row, error) {
	c.mu.RLock()
	if cached, ok := c.tables[table][key]; ok {
		c.mu.RUnlock()
		return cached.Clone(), nil
	}
	c.mu.RUnlock()

	row, err := c.inner.Fetch(ctx, table, key)
	if err != nil {
		return Row{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(table, row)
	return row.Clone(), nil
}

// Remove implements Store.
func (c *Cached) Remove(ctx context.Context, table, key string) error {
	if err := c.inner.Remove(ctx, table, key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables[table], key)
	return nil
}

// GetAll implements Store. Results refresh the cache as a side effect.
func (c *Cached) GetAll(ctx context.Context, table string) ([]Row, error) {
	rows, err := c.inner.GetAll(ctx, table)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range rows {
		c.put(table, row)
	}
	return rows, nil
}

// Invalidate drops any cached copy of a row, forcing the next Fetch through
// to the inner store.
func (c *Cached) Invalidate(table, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables[table], key)
}

func (c *Cached) put(table string, row Row) {
	if c.tables[table] == nil {
		c.tables[table] = make(map[string]Row)
	}
	c.tables[table][row.Key] = row.Clone()
}
