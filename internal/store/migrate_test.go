// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nayruden/otlib/pkg/errutil"
)

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("invalid://url")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

// postgresql:// must be rewritten to pgx5:// before it reaches golang-migrate;
// otherwise the driver lookup fails with "unknown driver".
func TestNewMigrator_PostgresqlScheme(t *testing.T) {
	_, err := NewMigrator("postgresql://localhost:5432/testdb")
	require.Error(t, err, "should fail due to connection, not URL scheme")
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
	assert.NotContains(t, err.Error(), "unknown driver")
}

// mockMigrate implements migrateIface for testing.
type mockMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	forcedTo       int
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Steps(_ int) error            { return m.stepsErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func (m *mockMigrate) Force(v int) error {
	m.forcedTo = v
	return m.forceErr
}

func TestMigrator_Up(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Up())
	require.NoError(t, (&Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}).Up(),
		"ErrNoChange should be treated as success")

	err := (&Migrator{m: &mockMigrate{upErr: errors.New("database locked")}}).Up()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
}

func TestMigrator_Down(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Down())
	require.NoError(t, (&Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}).Down())

	err := (&Migrator{m: &mockMigrate{downErr: errors.New("constraint violation")}}).Down()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_DOWN_FAILED")
}

func TestMigrator_Steps(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Steps(3))
	require.NoError(t, (&Migrator{m: &mockMigrate{stepsErr: migrate.ErrNoChange}}).Steps(0))

	err := (&Migrator{m: &mockMigrate{stepsErr: errors.New("boom")}}).Steps(-2)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_STEPS_FAILED")
	errutil.AssertErrorContext(t, err, "steps", -2)
}

func TestMigrator_Version(t *testing.T) {
	v, dirty, err := (&Migrator{m: &mockMigrate{versionVal: 3, dirty: true}}).Version()
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
	assert.True(t, dirty)
}

func TestMigrator_Version_FreshDatabase(t *testing.T) {
	v, dirty, err := (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Version()
	require.NoError(t, err, "a never-migrated database is not an error")
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)
}

func TestMigrator_Version_Error(t *testing.T) {
	_, _, err := (&Migrator{m: &mockMigrate{versionErr: errors.New("boom")}}).Version()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigrator_Force(t *testing.T) {
	mock := &mockMigrate{}
	require.NoError(t, (&Migrator{m: mock}).Force(2))
	assert.Equal(t, 2, mock.forcedTo)
}

func TestMigrator_Force_NegativeVersion(t *testing.T) {
	mock := &mockMigrate{}
	err := (&Migrator{m: mock}).Force(-1)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
	assert.Zero(t, mock.forcedTo, "negative versions must never reach golang-migrate")
}

func TestMigrator_Close(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Close())

	err := (&Migrator{m: &mockMigrate{closeSourceErr: errors.New("src")}}).Close()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")

	err = (&Migrator{m: &mockMigrate{
		closeSourceErr: errors.New("src"),
		closeDbErr:     errors.New("db"),
	}}).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "src")
	assert.Contains(t, err.Error(), "db")
}
