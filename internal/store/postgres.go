// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// pgxPool is the subset of *pgxpool.Pool the store uses. pgxmock satisfies
// it, so unit tests run without a database.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres implements Store on PostgreSQL. Flat fields live as JSONB on the
// row record; sublists live in a child table so a row and its lists commit
// atomically in one transaction.
type Postgres struct {
	pool pgxPool
}

// NewPostgres connects a pool and verifies connectivity, retrying the
// initial ping with exponential backoff so the store tolerates a database
// that is still starting up.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.In("store").Code("CONNECT_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.In("store").Code("PING_FAILED").Wrap(err)
	}

	return &Postgres{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (or a pgxmock pool in tests).
func NewPostgresFromPool(pool pgxPool) *Postgres {
	return &Postgres{pool: pool}
}

// Close closes the underlying pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// Insert implements Store. The row record and its sublist items commit in
// one transaction; a duplicate key maps to DUPLICATE_ROW.
func (s *Postgres) Insert(ctx context.Context, table string, row Row) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return oops.In("store").Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	fields := row.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO datarows (tbl, key, fields) VALUES ($1, $2, $3)`,
		table, row.Key, fields)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateRow(table, row.Key)
		}
		return oops.In("store").Code("INSERT_FAILED").
			With("table", table).
			With("key", row.Key).
			Wrap(err)
	}

	for list, items := range row.Lists {
		for itemKey, itemValue := range items {
			_, err = tx.Exec(ctx,
				`INSERT INTO datarow_lists (tbl, key, list, item_key, item_value)
				 VALUES ($1, $2, $3, $4, $5)`,
				table, row.Key, list, itemKey, itemValue)
			if err != nil {
				return oops.In("store").Code("INSERT_FAILED").
					With("table", table).
					With("key", row.Key).
					With("list", list).
					Wrap(err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.In("store").Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// Fetch implements Store.
func (s *Postgres) Fetch(ctx context.Context, table, key string) (Row, error) {
	row := Row{Key: key}

	err := s.pool.QueryRow(ctx,
		`SELECT fields FROM datarows WHERE tbl = $1 AND key = $2`,
		table, key).Scan(&row.Fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrRowNotFound(table, key)
	}
	if err != nil {
		return Row{}, oops.In("store").Code("FETCH_FAILED").
			With("table", table).
			With("key", key).
			Wrap(err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT list, item_key, item_value FROM datarow_lists
		 WHERE tbl = $1 AND key = $2`,
		table, key)
	if err != nil {
		return Row{}, oops.In("store").Code("FETCH_FAILED").
			With("table", table).
			With("key", key).
			Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var list, itemKey, itemValue string
		if err := rows.Scan(&list, &itemKey, &itemValue); err != nil {
			return Row{}, oops.In("store").Code("FETCH_FAILED").Wrap(err)
		}
		if row.Lists == nil {
			row.Lists = make(map[string]map[string]string)
		}
		if row.Lists[list] == nil {
			row.Lists[list] = make(map[string]string)
		}
		row.Lists[list][itemKey] = itemValue
	}
	if err := rows.Err(); err != nil {
		return Row{}, oops.In("store").Code("FETCH_FAILED").Wrap(err)
	}

	return row, nil
}

// Remove implements Store. Sublist items cascade.
func (s *Postgres) Remove(ctx context.Context, table, key string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM datarows WHERE tbl = $1 AND key = $2`,
		table, key)
	if err != nil {
		return oops.In("store").Code("REMOVE_FAILED").
			With("table", table).
			With("key", key).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotFound(table, key)
	}
	return nil
}

// GetAll implements Store.
func (s *Postgres) GetAll(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, fields FROM datarows WHERE tbl = $1 ORDER BY key`,
		table)
	if err != nil {
		return nil, oops.In("store").Code("GETALL_FAILED").
			With("table", table).
			Wrap(err)
	}
	defer rows.Close()

	byKey := make(map[string]*Row)
	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Key, &r.Fields); err != nil {
			return nil, oops.In("store").Code("GETALL_FAILED").Wrap(err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("store").Code("GETALL_FAILED").Wrap(err)
	}
	for i := range result {
		byKey[result[i].Key] = &result[i]
	}

	listRows, err := s.pool.Query(ctx,
		`SELECT key, list, item_key, item_value FROM datarow_lists WHERE tbl = $1`,
		table)
	if err != nil {
		return nil, oops.In("store").Code("GETALL_FAILED").
			With("table", table).
			Wrap(err)
	}
	defer listRows.Close()

	for listRows.Next() {
		var key, list, itemKey, itemValue string
		if err := listRows.Scan(&key, &list, &itemKey, &itemValue); err != nil {
			return nil, oops.In("store").Code("GETALL_FAILED").Wrap(err)
		}
		r, ok := byKey[key]
		if !ok {
			// A list item without its parent row only happens mid-delete;
			// skip rather than invent a row.
			continue
		}
		if r.Lists == nil {
			r.Lists = make(map[string]map[string]string)
		}
		if r.Lists[list] == nil {
			r.Lists[list] = make(map[string]string)
		}
		r.Lists[list][itemKey] = itemValue
	}
	if err := listRows.Err(); err != nil {
		return nil, oops.In("store").Code("GETALL_FAILED").Wrap(err)
	}

	return result, nil
}
