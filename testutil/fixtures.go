package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/marinxz/n-playwright-3.9/history"
	"github.com/marinxz/n-playwright-3.9/location"
)

// LocationConfig returns a complete config for name whose destination is a
// temp dir and whose timeouts are short enough for tests.
func LocationConfig(t *testing.T, name string) *location.Config {
	t.Helper()
	return &location.Config{
		Name:                name,
		Timeout:             200 * time.Millisecond,
		DownloadTimeout:     200 * time.Millisecond,
		Headless:            true,
		User:                "ops@example.com",
		Password:            "s3cret",
		LoginURL:            "https://console.example.com/login",
		FileDestinationPath: t.TempDir(),
		FileName:            "backup.sql",
		Checkpoints: location.Checkpoints{
			Index: "https://console.example.com/index",
			Admin: "https://console.example.com/admin",
			Data:  "https://console.example.com/admin/data",
		},
		UserDisplayString: "Ops User",
	}
}

// CreateRun records run as started and completes it with setters.
func CreateRun(t *testing.T, store history.Store, run *history.Run, setters ...history.UpdateSetter) {
	t.Helper()
	ctx := context.Background()
	if err := store.Start(ctx, run); err != nil {
		t.Fatalf("failed to start run fixture: %v", err)
	}
	if len(setters) == 0 {
		return
	}
	if err := store.Complete(ctx, run.ID, setters...); err != nil {
		t.Fatalf("failed to complete run fixture: %v", err)
	}
}
