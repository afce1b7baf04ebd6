package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateOpensBeforeMigrating(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	var calls []string
	open := func(context.Context, string) (*sql.DB, error) {
		calls = append(calls, "open")
		return db, nil
	}
	apply := func(string) error {
		calls = append(calls, "migrate")
		return nil
	}

	got, err := openAndMigrate(context.Background(), "postgres://db", open, apply)
	require.NoError(t, err)
	assert.Same(t, db, got)
	assert.Equal(t, []string{"open", "migrate"}, calls)

	require.NoError(t, got.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenAndMigrateSkipsMigrationWhenDatabaseUnreachable(t *testing.T) {
	migrated := false
	open := func(context.Context, string) (*sql.DB, error) {
		return nil, errors.New("ping database: connection refused")
	}
	apply := func(string) error {
		migrated = true
		return nil
	}

	_, err := openAndMigrate(context.Background(), "postgres://db", open, apply)
	require.Error(t, err)
	assert.False(t, migrated)
}

func TestOpenAndMigrateClosesOnMigrationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	open := func(context.Context, string) (*sql.DB, error) { return db, nil }
	apply := func(string) error { return errors.New("dirty database version 1") }

	_, err = openAndMigrate(context.Background(), "postgres://db", open, apply)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate database")
	require.NoError(t, mock.ExpectationsWereMet())
}
