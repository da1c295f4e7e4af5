package persistence

import (
	"context"
	"time"
)

// AppointmentFilter narrows appointment queries. From is inclusive and To is
// exclusive, both compared against the appointment start. An empty StaffIDs
// matches every staff member.
type AppointmentFilter struct {
	From     *time.Time
	To       *time.Time
	StaffIDs []string
}

// AppointmentRepository stores appointments. Identifiers are assigned by the
// backend on create. Update and delete report the number of affected records,
// which is zero when the identifier is unknown.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) (string, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	UpdateAppointment(ctx context.Context, appointment Appointment) (int64, error)
	DeleteAppointment(ctx context.Context, id string) (int64, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
	CountAppointmentsForStaff(ctx context.Context, staffID string) (int, error)
}

// StaffRepository stores the staff registry with the same conventions as
// AppointmentRepository.
type StaffRepository interface {
	CreateStaff(ctx context.Context, staff Staff) (string, error)
	GetStaff(ctx context.Context, id string) (Staff, error)
	UpdateStaff(ctx context.Context, staff Staff) (int64, error)
	DeleteStaff(ctx context.Context, id string) (int64, error)
	ListStaff(ctx context.Context) ([]Staff, error)
}

// Store is a complete backend.
type Store interface {
	AppointmentRepository
	StaffRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
