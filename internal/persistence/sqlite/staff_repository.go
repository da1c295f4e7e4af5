package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/salon-scheduler/internal/persistence"
)

const staffColumns = `id, name, color, phone, active, created_at, updated_at`

// CreateStaff inserts a staff member under a new identifier.
func (s *Storage) CreateStaff(ctx context.Context, staff persistence.Staff) (string, error) {
	staff.ID = s.newID()
	err := withRetry(ctx, s.retry, func() error {
		_, err := s.pool.DB().ExecContext(ctx,
			`INSERT INTO staff (`+staffColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			staff.ID,
			staff.Name,
			staff.Color,
			nullString(staff.Phone),
			staff.Active,
			formatTime(staff.CreatedAt),
			formatTime(staff.UpdatedAt),
		)
		return err
	})
	if err != nil {
		return "", s.mapper.MapError(err)
	}
	return staff.ID, nil
}

// GetStaff retrieves a staff member by ID.
func (s *Storage) GetStaff(ctx context.Context, id string) (persistence.Staff, error) {
	row := s.pool.DB().QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = ?`, id)
	staff, err := scanStaff(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Staff{}, persistence.ErrNotFound
		}
		return persistence.Staff{}, s.mapper.MapError(err)
	}
	return staff, nil
}

// UpdateStaff overwrites the mutable staff columns.
func (s *Storage) UpdateStaff(ctx context.Context, staff persistence.Staff) (int64, error) {
	var affected int64
	err := withRetry(ctx, s.retry, func() error {
		result, err := s.pool.DB().ExecContext(ctx,
			`UPDATE staff SET name = ?, color = ?, phone = ?, active = ?, updated_at = ? WHERE id = ?`,
			staff.Name,
			staff.Color,
			nullString(staff.Phone),
			staff.Active,
			formatTime(staff.UpdatedAt),
			staff.ID,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	return affected, nil
}

// DeleteStaff removes a staff member that no appointment references. The
// reference check and the delete share a transaction.
func (s *Storage) DeleteStaff(ctx context.Context, id string) (int64, error) {
	var affected int64
	err := withRetry(ctx, s.retry, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			var referenced int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM appointments WHERE staff_id = ?`, id,
			).Scan(&referenced); err != nil {
				return err
			}
			if referenced > 0 {
				return persistence.ErrForeignKeyViolation
			}
			result, err := tx.ExecContext(ctx, `DELETE FROM staff WHERE id = ?`, id)
			if err != nil {
				return err
			}
			affected, err = result.RowsAffected()
			return err
		})
	})
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	return affected, nil
}

// ListStaff returns every staff member ordered by name.
func (s *Storage) ListStaff(ctx context.Context) ([]persistence.Staff, error) {
	rows, err := s.pool.DB().QueryContext(ctx,
		`SELECT `+staffColumns+` FROM staff ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	staff := make([]persistence.Staff, 0)
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, member)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return staff, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (persistence.Staff, error) {
	var (
		staff                persistence.Staff
		phone                sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	if err = row.Scan(&staff.ID, &staff.Name, &staff.Color, &phone, &staff.Active, &createdAt, &updatedAt); err != nil {
		return persistence.Staff{}, err
	}
	staff.Phone = stringPtr(phone)
	if staff.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Staff{}, fmt.Errorf("staff %s: %w", staff.ID, err)
	}
	if staff.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Staff{}, fmt.Errorf("staff %s: %w", staff.ID, err)
	}
	return staff, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}
