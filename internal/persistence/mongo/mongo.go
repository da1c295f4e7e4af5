// Package mongo implements persistence.Store on MongoDB. Staff and
// appointments live in separate collections; staff details are joined onto
// appointments when they are read.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/salon-scheduler/internal/persistence"
)

const (
	staffCollection       = "staff"
	appointmentCollection = "appointments"
)

// Config describes the MongoDB deployment to use.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Storage implements persistence.Store.
type Storage struct {
	client       *mongo.Client
	staff        *mongo.Collection
	appointments *mongo.Collection
	logger       *slog.Logger
}

// Connect dials MongoDB, verifies the connection and ensures indexes.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, errors.New("mongo: URI is required")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, errors.New("mongo: database is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(cfg.Database)
	storage := &Storage{
		client:       client,
		staff:        db.Collection(staffCollection),
		appointments: db.Collection(appointmentCollection),
		logger:       logger.With("component", "mongo", "database", cfg.Database),
	}
	if err := storage.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	storage.logger.InfoContext(ctx, "connected to mongo database")
	return storage, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.appointments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "start", Value: 1}}},
		{Keys: bson.D{{Key: "staff_id", Value: 1}, {Key: "start", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create indexes: %w", err)
	}
	return nil
}

// Ping checks the connection to the primary.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return persistence.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	}
	return err
}

// Drop removes the database. It exists for test cleanup.
func (s *Storage) Drop(ctx context.Context) error {
	return s.staff.Database().Drop(ctx)
}
