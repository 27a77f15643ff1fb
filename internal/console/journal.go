// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package console

import (
	"context"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Nayruden/otlib/internal/store"
)

// journalTable is the store table holding one row per dispatched line.
const journalTable = "console_journal"

// JournalEntry is one dispatched console line as recorded in the store.
type JournalEntry struct {
	ID     string
	Alias  string
	Line   string
	Status string
}

// Journal records every dispatched console line to a store.Store so a
// session's history survives as far as the backing store does: in-memory for
// the lifetime of the process, or across restarts on Postgres. Row keys are
// ULIDs, so lexicographic key order is chronological order.
type Journal struct {
	store store.Store
}

// NewJournal creates a journal over the given store.
func NewJournal(st store.Store) *Journal {
	return &Journal{store: st}
}

// Record persists one dispatched line with its outcome status.
func (j *Journal) Record(ctx context.Context, alias, line, status string) error {
	row := store.Row{
		Key: ulid.Make().String(),
		Fields: map[string]string{
			"alias":  alias,
			"line":   line,
			"status": status,
		},
	}
	if err := j.store.Insert(ctx, journalTable, row); err != nil {
		return oops.In("console").Code("JOURNAL_WRITE_FAILED").Wrap(err)
	}
	return nil
}

// Entries returns every recorded line in chronological order.
func (j *Journal) Entries(ctx context.Context) ([]JournalEntry, error) {
	rows, err := j.store.GetAll(ctx, journalTable)
	if err != nil {
		return nil, oops.In("console").Code("JOURNAL_READ_FAILED").Wrap(err)
	}
	sort.Slice(rows, func(i, k int) bool { return rows[i].Key < rows[k].Key })

	entries := make([]JournalEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, JournalEntry{
			ID:     row.Key,
			Alias:  row.Fields["alias"],
			Line:   row.Fields["line"],
			Status: row.Fields["status"],
		})
	}
	return entries, nil
}
