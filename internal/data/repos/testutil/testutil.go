// Package testutil provides the shared Postgres handle for repo and aggregate
// integration tests. Tests skip unless TEST_POSTGRES_DSN is set.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	appdb "github.com/yungbote/resourcehub-backend/internal/data/db"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

const dsnEnv = "TEST_POSTGRES_DSN"

var errNoDSN = errors.New(dsnEnv + " not set")

var openShared = sync.OnceValues(func() (*gorm.DB, error) {
	dsn := strings.TrimSpace(os.Getenv(dsnEnv))
	if dsn == "" {
		return nil, errNoDSN
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return nil, fmt.Errorf("uuid-ossp: %w", err)
	}
	if err := appdb.AutoMigrateAll(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := appdb.EnsureCatalogConstraints(db); err != nil {
		return nil, fmt.Errorf("constraints: %w", err)
	}
	return db, nil
})

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB returns the migrated shared test database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := openShared()
	switch {
	case errors.Is(err, errNoDSN):
		tb.Skipf("set %s to run integration tests", dsnEnv)
	case err != nil:
		tb.Fatalf("test db: %v", err)
	}
	return db
}

// Tx begins a transaction that is rolled back when the test ends.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if err := tx.Error; err != nil {
		tb.Fatalf("begin tx: %v", err)
	}
	tb.Cleanup(func() { tx.Rollback() })
	return tx
}
