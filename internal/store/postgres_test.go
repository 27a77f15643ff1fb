// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_InsertCommitsRowAndLists(t *testing.T) {
	s, mock := newMockStore(t)

	row := Row{
		Key:    "bob",
		Fields: map[string]string{"name": "bob"},
		Lists: map[string]map[string]string{
			"allow": {"slap": ""},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO datarows").
		WithArgs("users", "bob", map[string]string{"name": "bob"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO datarow_lists").
		WithArgs("users", "bob", "allow", "slap", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.Insert(context.Background(), "users", row)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertNilFieldsStoredAsEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO datarows").
		WithArgs("users", "bob", map[string]string{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.Insert(context.Background(), "users", Row{Key: "bob"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertDuplicateMapsToDuplicateRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO datarows").
		WithArgs("users", "bob", map[string]string{}).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()

	err := s.Insert(context.Background(), "users", Row{Key: "bob"})
	require.Error(t, err)
	assert.True(t, IsDuplicateRow(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertListFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	row := Row{
		Key: "bob",
		Lists: map[string]map[string]string{
			"allow": {"slap": ""},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO datarows").
		WithArgs("users", "bob", map[string]string{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO datarow_lists").
		WithArgs("users", "bob", "allow", "slap", "").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.Insert(context.Background(), "users", row)
	require.Error(t, err)
	assert.False(t, IsDuplicateRow(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FetchStitchesLists(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT fields FROM datarows").
		WithArgs("users", "bob").
		WillReturnRows(pgxmock.NewRows([]string{"fields"}).
			AddRow(map[string]string{"name": "bob"}))
	mock.ExpectQuery("SELECT list, item_key, item_value FROM datarow_lists").
		WithArgs("users", "bob").
		WillReturnRows(pgxmock.NewRows([]string{"list", "item_key", "item_value"}).
			AddRow("allow", "slap", "").
			AddRow("allow", "kick", "").
			AddRow("deny", "ban", ""))

	row, err := s.Fetch(context.Background(), "users", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", row.Key)
	assert.Equal(t, map[string]string{"name": "bob"}, row.Fields)
	assert.Equal(t, map[string]string{"slap": "", "kick": ""}, row.Lists["allow"])
	assert.Equal(t, map[string]string{"ban": ""}, row.Lists["deny"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FetchMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT fields FROM datarows").
		WithArgs("users", "ghost").
		WillReturnRows(pgxmock.NewRows([]string{"fields"}))

	_, err := s.Fetch(context.Background(), "users", "ghost")
	require.Error(t, err)
	assert.True(t, IsRowNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RemoveMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM datarows").
		WithArgs("users", "ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.Remove(context.Background(), "users", "ghost")
	require.Error(t, err)
	assert.True(t, IsRowNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Remove(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM datarows").
		WithArgs("users", "bob").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := s.Remove(context.Background(), "users", "bob")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetAll(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT key, fields FROM datarows").
		WithArgs("users").
		WillReturnRows(pgxmock.NewRows([]string{"key", "fields"}).
			AddRow("alice", map[string]string{"name": "alice"}).
			AddRow("bob", map[string]string{"name": "bob"}))
	mock.ExpectQuery("SELECT key, list, item_key, item_value FROM datarow_lists").
		WithArgs("users").
		WillReturnRows(pgxmock.NewRows([]string{"key", "list", "item_key", "item_value"}).
			AddRow("bob", "allow", "slap", ""))

	rows, err := s.GetAll(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].Key)
	assert.Nil(t, rows[0].Lists)
	assert.Equal(t, "bob", rows[1].Key)
	assert.Equal(t, map[string]string{"slap": ""}, rows[1].Lists["allow"])
	require.NoError(t, mock.ExpectationsWereMet())
}
