package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager runs pending migrations in version order.
type Manager struct {
	scanner  *Scanner
	executor *SQLiteExecutor
	logger   *slog.Logger
}

// NewManager wires a scanner and executor.
func NewManager(scanner *Scanner, executor *SQLiteExecutor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// Status compares the scanned files with the applied versions. An applied file
// whose checksum changed is reported as ErrChecksumMismatch.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := m.scanner.Scan()
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[string]AppliedMigration, len(applied))
	for _, record := range applied {
		byVersion[record.Version] = record
	}

	status := Status{Applied: applied}
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}
	for _, migration := range available {
		record, ok := byVersion[migration.Version]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if record.Checksum != "" && record.Checksum != migration.Checksum {
			return Status{}, newMigrationError(migration, "verify checksum", ErrChecksumMismatch)
		}
	}
	return status, nil
}

// RunMigrations applies every pending migration and stops at the first failure.
func (m *Manager) RunMigrations(ctx context.Context) error {
	started := time.Now()
	status, err := m.Status(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to read migration status", "error", err)
		return err
	}

	m.logger.InfoContext(ctx, "migration status",
		"current_version", status.CurrentVersion,
		"pending_count", len(status.Pending),
	)
	if len(status.Pending) == 0 {
		return nil
	}

	for _, migration := range status.Pending {
		logger := m.logger.With("version", migration.Version, "description", migration.Description)
		if err := m.executor.Apply(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
		logger.InfoContext(ctx, "migration applied")
	}

	m.logger.InfoContext(ctx, "migrations completed",
		"applied_count", len(status.Pending),
		"duration", time.Since(started),
	)
	return nil
}
