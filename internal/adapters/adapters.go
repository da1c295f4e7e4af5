// Package adapters translates between the application model and a
// persistence backend. Times read from storage are converted to the salon's
// time zone so day boundaries and event days are local.
package adapters

import (
	"context"
	"time"

	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/persistence"
)

// AppointmentRepository serves application.AppointmentRepository and
// application.AppointmentCounter from a persistence backend.
type AppointmentRepository struct {
	repo persistence.AppointmentRepository
	loc  *time.Location
}

// NewAppointmentRepository wraps repo. A nil loc keeps times as stored.
func NewAppointmentRepository(repo persistence.AppointmentRepository, loc *time.Location) *AppointmentRepository {
	return &AppointmentRepository{repo: repo, loc: loc}
}

func (a *AppointmentRepository) CreateAppointment(ctx context.Context, appointment application.Appointment) (string, error) {
	return a.repo.CreateAppointment(ctx, ToPersistenceAppointment(appointment))
}

func (a *AppointmentRepository) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	stored, err := a.repo.GetAppointment(ctx, id)
	if err != nil {
		return application.Appointment{}, err
	}
	return ToApplicationAppointment(stored, a.loc), nil
}

func (a *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment application.Appointment) (int64, error) {
	return a.repo.UpdateAppointment(ctx, ToPersistenceAppointment(appointment))
}

func (a *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) (int64, error) {
	return a.repo.DeleteAppointment(ctx, id)
}

func (a *AppointmentRepository) ListAppointments(ctx context.Context, filter application.AppointmentFilter) ([]application.Appointment, error) {
	stored, err := a.repo.ListAppointments(ctx, persistence.AppointmentFilter{
		From:     cloneTime(filter.From),
		To:       cloneTime(filter.To),
		StaffIDs: append([]string(nil), filter.StaffIDs...),
	})
	if err != nil {
		return nil, err
	}
	out := make([]application.Appointment, 0, len(stored))
	for _, model := range stored {
		out = append(out, ToApplicationAppointment(model, a.loc))
	}
	return out, nil
}

func (a *AppointmentRepository) CountAppointmentsForStaff(ctx context.Context, staffID string) (int, error) {
	return a.repo.CountAppointmentsForStaff(ctx, staffID)
}

// StaffRepository serves application.StaffRepository and
// application.StaffDirectory from a persistence backend.
type StaffRepository struct {
	repo persistence.StaffRepository
	loc  *time.Location
}

// NewStaffRepository wraps repo. A nil loc keeps times as stored.
func NewStaffRepository(repo persistence.StaffRepository, loc *time.Location) *StaffRepository {
	return &StaffRepository{repo: repo, loc: loc}
}

func (a *StaffRepository) CreateStaff(ctx context.Context, staff application.Staff) (string, error) {
	return a.repo.CreateStaff(ctx, ToPersistenceStaff(staff))
}

func (a *StaffRepository) GetStaff(ctx context.Context, id string) (application.Staff, error) {
	stored, err := a.repo.GetStaff(ctx, id)
	if err != nil {
		return application.Staff{}, err
	}
	return ToApplicationStaff(stored, a.loc), nil
}

func (a *StaffRepository) UpdateStaff(ctx context.Context, staff application.Staff) (int64, error) {
	return a.repo.UpdateStaff(ctx, ToPersistenceStaff(staff))
}

func (a *StaffRepository) DeleteStaff(ctx context.Context, id string) (int64, error) {
	return a.repo.DeleteStaff(ctx, id)
}

func (a *StaffRepository) ListStaff(ctx context.Context) ([]application.Staff, error) {
	stored, err := a.repo.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Staff, 0, len(stored))
	for _, model := range stored {
		out = append(out, ToApplicationStaff(model, a.loc))
	}
	return out, nil
}

func ToApplicationAppointment(model persistence.Appointment, loc *time.Location) application.Appointment {
	return application.Appointment{
		ID:              model.ID,
		Title:           model.Title,
		ClientName:      model.ClientName,
		ClientPhone:     cloneString(model.ClientPhone),
		ClientEmail:     cloneString(model.ClientEmail),
		StaffID:         model.StaffID,
		Start:           inLocation(model.Start, loc),
		DurationMinutes: model.DurationMinutes,
		Notes:           cloneString(model.Notes),
		Price:           cloneFloat(model.Price),
		Status:          model.Status,
		PaymentMethod:   cloneString(model.PaymentMethod),
		CreatedAt:       inLocation(model.CreatedAt, loc),
		UpdatedAt:       inLocation(model.UpdatedAt, loc),
		StaffName:       model.StaffName,
		StaffColor:      model.StaffColor,
	}
}

func ToPersistenceAppointment(appointment application.Appointment) persistence.Appointment {
	return persistence.Appointment{
		ID:              appointment.ID,
		Title:           appointment.Title,
		ClientName:      appointment.ClientName,
		ClientPhone:     cloneString(appointment.ClientPhone),
		ClientEmail:     cloneString(appointment.ClientEmail),
		StaffID:         appointment.StaffID,
		Start:           appointment.Start,
		DurationMinutes: appointment.DurationMinutes,
		Notes:           cloneString(appointment.Notes),
		Price:           cloneFloat(appointment.Price),
		Status:          appointment.Status,
		PaymentMethod:   cloneString(appointment.PaymentMethod),
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}
}

func ToApplicationStaff(model persistence.Staff, loc *time.Location) application.Staff {
	return application.Staff{
		ID:        model.ID,
		Name:      model.Name,
		Color:     model.Color,
		Phone:     cloneString(model.Phone),
		Active:    model.Active,
		CreatedAt: inLocation(model.CreatedAt, loc),
		UpdatedAt: inLocation(model.UpdatedAt, loc),
	}
}

func ToPersistenceStaff(staff application.Staff) persistence.Staff {
	return persistence.Staff{
		ID:        staff.ID,
		Name:      staff.Name,
		Color:     staff.Color,
		Phone:     cloneString(staff.Phone),
		Active:    staff.Active,
		CreatedAt: staff.CreatedAt,
		UpdatedAt: staff.UpdatedAt,
	}
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil || t.IsZero() {
		return t
	}
	return t.In(loc)
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
