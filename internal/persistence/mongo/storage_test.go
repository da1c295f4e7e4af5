package mongo_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/example/salon-scheduler/internal/persistence"
	"github.com/example/salon-scheduler/internal/persistence/mongo"
	"github.com/example/salon-scheduler/internal/persistence/persistencetest"
)

// TestStorageContract runs against a live server when SALON_TEST_MONGO_URI is
// set. Each subtest gets its own database, dropped on cleanup.
func TestStorageContract(t *testing.T) {
	uri := os.Getenv("SALON_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SALON_TEST_MONGO_URI not set")
	}

	persistencetest.RunStoreContract(t, func(t *testing.T) persistence.Store {
		ctx := context.Background()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		database := "salon_test_" + uuid.NewString()[:8]
		storage, err := mongo.Connect(ctx, mongo.Config{URI: uri, Database: database}, logger)
		if err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		t.Cleanup(func() {
			_ = storage.Drop(context.Background())
			_ = storage.Close(context.Background())
		})
		return storage
	})
}

func TestConnectValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := mongo.Connect(context.Background(), mongo.Config{Database: "salon"}, nil); err == nil {
		t.Fatalf("expected error for missing URI")
	}
	if _, err := mongo.Connect(context.Background(), mongo.Config{URI: "mongodb://localhost:27017"}, nil); err == nil {
		t.Fatalf("expected error for missing database")
	}
}
