// Package dbtest opens a migrated in-memory sqlite database for tests.
package dbtest

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/Skotchmaster/authservice/internal/db"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})
	return gdb
}
