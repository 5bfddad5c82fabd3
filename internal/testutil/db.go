// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"anoa.com/unitech/internal/bootstrap"
	"anoa.com/unitech/pkg/database"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dbCounter atomic.Int64

// NewDB returns a migrated in-memory SQLite database with foreign keys enforced.
// A single connection keeps the in-memory database alive and serializes transactions.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:unitech_test_%d?mode=memory&_pragma=foreign_keys(1)", dbCounter.Add(1))
	db, err := database.Open(sqlite.Open(name), false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

// Logger returns a logger that discards output.
func Logger() *zap.Logger {
	return zap.NewNop()
}
