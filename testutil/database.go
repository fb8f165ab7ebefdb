package testutil

import (
	"path/filepath"
	"testing"

	"github.com/marinxz/n-playwright-3.9/history"
	"github.com/marinxz/n-playwright-3.9/logger"
)

// HistoryConfig points at a fresh sqlite file inside the test's temp dir.
func HistoryConfig(t *testing.T) history.Config {
	t.Helper()
	return history.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "history.db"),
	}
}

// SetupHistory opens a migrated sqlite run history that is closed when the
// test ends.
func SetupHistory(t *testing.T, cfg history.Config) *history.GormStore {
	t.Helper()
	db, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open history database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return history.NewGormStore(db, logger.NewTestLogger())
}
