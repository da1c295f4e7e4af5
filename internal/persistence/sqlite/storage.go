package sqlite

import (
	"context"
	"embed"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/salon-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// timeLayout is fixed width in UTC so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Storage implements persistence.Store on an embedded SQLite database.
type Storage struct {
	pool   *ConnectionPool
	mapper ErrorMapper
	retry  RetryConfig
	logger *slog.Logger
	newID  func() string
}

// Open connects to the database described by cfg. Call Migrate before use.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	retry := cfg.Retry
	if retry.MaxRetries <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Storage{
		pool:   pool,
		retry:  retry,
		logger: logger.With("component", "sqlite"),
		newID:  uuid.NewString,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	scanner := migration.NewScanner(migrationFiles, "migrations")
	executor := migration.NewSQLiteExecutor(s.pool.DB())
	return migration.NewManager(scanner, executor, s.logger).RunMigrations(ctx)
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the database handle.
func (s *Storage) Close(context.Context) error {
	return s.pool.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(column, value string) (time.Time, error) {
	// RFC3339 also accepts the fractional seconds written by timeLayout.
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &columnError{column: column, err: err}
	}
	return parsed, nil
}

type columnError struct {
	column string
	err    error
}

func (e *columnError) Error() string {
	return "failed to parse " + e.column + ": " + e.err.Error()
}

func (e *columnError) Unwrap() error {
	return e.err
}
