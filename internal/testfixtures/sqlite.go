package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/salon-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness is a migrated SQLite store in a temporary file.
type SQLiteHarness struct {
	Storage *sqlite.Storage
	Path    string

	cleanup func()
}

// Close releases the database. It is also registered with tb.Cleanup.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates salon.db under tb.TempDir.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "salon.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := sqlite.Open(ctx, sqlite.Config{DSN: path}, logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close(ctx)
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		Path:    path,
		cleanup: func() {
			_ = storage.Close(context.Background())
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
