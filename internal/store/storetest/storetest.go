// Package storetest opens throwaway sqlite databases for package tests.
package storetest

import (
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/store"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database. The pool is pinned to one
// connection so every query sees the same memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}

// New wraps Open in a Store.
func New(t testing.TB) *store.Store {
	return store.New(Open(t))
}
