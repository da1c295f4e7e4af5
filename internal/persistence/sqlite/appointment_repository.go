package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/salon-scheduler/internal/persistence"
)

const appointmentSelect = `
	SELECT a.id, a.title, a.client_name, a.client_phone, a.client_email, a.staff_id,
	       a.start_time, a.duration_minutes, a.notes, a.price, a.status, a.payment_method,
	       a.created_at, a.updated_at,
	       COALESCE(s.name, ''), COALESCE(s.color, '')
	FROM appointments a
	LEFT JOIN staff s ON s.id = a.staff_id`

// CreateAppointment inserts an appointment under a new identifier.
func (s *Storage) CreateAppointment(ctx context.Context, appointment persistence.Appointment) (string, error) {
	appointment.ID = s.newID()
	if appointment.Status == "" {
		appointment.Status = "scheduled"
	}
	err := withRetry(ctx, s.retry, func() error {
		_, err := s.pool.DB().ExecContext(ctx, `
			INSERT INTO appointments (id, title, client_name, client_phone, client_email, staff_id,
				start_time, duration_minutes, notes, price, status, payment_method, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			appointment.ID,
			appointment.Title,
			appointment.ClientName,
			nullString(appointment.ClientPhone),
			nullString(appointment.ClientEmail),
			appointment.StaffID,
			formatTime(appointment.Start),
			appointment.DurationMinutes,
			nullString(appointment.Notes),
			nullFloat(appointment.Price),
			appointment.Status,
			nullString(appointment.PaymentMethod),
			formatTime(appointment.CreatedAt),
			formatTime(appointment.UpdatedAt),
		)
		return err
	})
	if err != nil {
		return "", s.mapper.MapError(err)
	}
	return appointment.ID, nil
}

// GetAppointment retrieves an appointment joined with its staff member.
func (s *Storage) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	row := s.pool.DB().QueryRowContext(ctx, appointmentSelect+` WHERE a.id = ?`, id)
	appointment, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Appointment{}, persistence.ErrNotFound
		}
		return persistence.Appointment{}, s.mapper.MapError(err)
	}
	return appointment, nil
}

// UpdateAppointment overwrites every mutable column of an appointment.
func (s *Storage) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) (int64, error) {
	if appointment.Status == "" {
		appointment.Status = "scheduled"
	}
	var affected int64
	err := withRetry(ctx, s.retry, func() error {
		result, err := s.pool.DB().ExecContext(ctx, `
			UPDATE appointments
			SET title = ?, client_name = ?, client_phone = ?, client_email = ?, staff_id = ?,
			    start_time = ?, duration_minutes = ?, notes = ?, price = ?, status = ?,
			    payment_method = ?, updated_at = ?
			WHERE id = ?`,
			appointment.Title,
			appointment.ClientName,
			nullString(appointment.ClientPhone),
			nullString(appointment.ClientEmail),
			appointment.StaffID,
			formatTime(appointment.Start),
			appointment.DurationMinutes,
			nullString(appointment.Notes),
			nullFloat(appointment.Price),
			appointment.Status,
			nullString(appointment.PaymentMethod),
			formatTime(appointment.UpdatedAt),
			appointment.ID,
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

// DeleteAppointment removes an appointment.
func (s *Storage) DeleteAppointment(ctx context.Context, id string) (int64, error) {
	var affected int64
	err := withRetry(ctx, s.retry, func() error {
		result, err := s.pool.DB().ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
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

// ListAppointments returns matching appointments ordered by start.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	query, args := buildAppointmentListQuery(filter)
	rows, err := s.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	appointments := make([]persistence.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		var colErr *columnError
		if errors.As(err, &colErr) {
			// The row stays listed with the unreadable timestamp zeroed; the
			// calendar drops zero starts from its layout.
			s.logger.WarnContext(ctx, "appointment has malformed column", "appointment_id", appointment.ID, "error", err)
		} else if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return appointments, nil
}

// CountAppointmentsForStaff counts appointments assigned to a staff member.
func (s *Storage) CountAppointmentsForStaff(ctx context.Context, staffID string) (int, error) {
	var count int
	err := s.pool.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE staff_id = ?`, staffID,
	).Scan(&count)
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	return count, nil
}

func buildAppointmentListQuery(filter persistence.AppointmentFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.From != nil {
		conditions = append(conditions, "a.start_time >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "a.start_time < ?")
		args = append(args, formatTime(*filter.To))
	}
	if len(filter.StaffIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.StaffIDs)), ", ")
		conditions = append(conditions, "a.staff_id IN ("+placeholders+")")
		for _, id := range filter.StaffIDs {
			args = append(args, id)
		}
	}

	query := appointmentSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.start_time ASC, a.id ASC"
	return query, args
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var (
		appointment                  persistence.Appointment
		phone, email, notes, payment sql.NullString
		price                        sql.NullFloat64
		start, createdAt, updatedAt  string
		err                          error
	)
	if err = row.Scan(
		&appointment.ID,
		&appointment.Title,
		&appointment.ClientName,
		&phone,
		&email,
		&appointment.StaffID,
		&start,
		&appointment.DurationMinutes,
		&notes,
		&price,
		&appointment.Status,
		&payment,
		&createdAt,
		&updatedAt,
		&appointment.StaffName,
		&appointment.StaffColor,
	); err != nil {
		return persistence.Appointment{}, err
	}

	appointment.ClientPhone = stringPtr(phone)
	appointment.ClientEmail = stringPtr(email)
	appointment.Notes = stringPtr(notes)
	appointment.PaymentMethod = stringPtr(payment)
	if price.Valid {
		p := price.Float64
		appointment.Price = &p
	}

	// A malformed timestamp leaves that field zero and is reported with the
	// rest of the record so list callers can decide to keep the row.
	var firstErr error
	for _, column := range []struct {
		name  string
		value string
		dst   *time.Time
	}{
		{"start_time", start, &appointment.Start},
		{"created_at", createdAt, &appointment.CreatedAt},
		{"updated_at", updatedAt, &appointment.UpdatedAt},
	} {
		parsed, parseErr := parseTime(column.name, column.value)
		if parseErr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("appointment %s: %w", appointment.ID, parseErr)
			}
			continue
		}
		*column.dst = parsed
	}
	return appointment, firstErr
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}
