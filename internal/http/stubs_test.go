package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/scheduler"
)

var refTime = time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type appointmentServiceStub struct {
	createInput application.AppointmentInput
	patch       application.AppointmentPatch
	moveStart   time.Time
	listParams  application.ListAppointmentsParams
	deletedID   string

	result application.AppointmentResult
	list   application.AppointmentList
	err    error
}

func (s *appointmentServiceStub) CreateAppointment(_ context.Context, input application.AppointmentInput) (application.AppointmentResult, error) {
	s.createInput = input
	return s.result, s.err
}

func (s *appointmentServiceStub) GetAppointment(_ context.Context, id string) (application.Appointment, error) {
	if s.err != nil {
		return application.Appointment{}, s.err
	}
	appointment := s.result.Appointment
	appointment.ID = id
	return appointment, nil
}

func (s *appointmentServiceStub) UpdateAppointment(_ context.Context, _ string, patch application.AppointmentPatch) (application.AppointmentResult, error) {
	s.patch = patch
	return s.result, s.err
}

func (s *appointmentServiceStub) MoveAppointment(_ context.Context, _ string, newStart time.Time) (application.AppointmentResult, error) {
	s.moveStart = newStart
	return s.result, s.err
}

func (s *appointmentServiceStub) DeleteAppointment(_ context.Context, id string) error {
	s.deletedID = id
	return s.err
}

func (s *appointmentServiceStub) ListAppointments(_ context.Context, params application.ListAppointmentsParams) (application.AppointmentList, error) {
	s.listParams = params
	return s.list, s.err
}

type staffServiceStub struct {
	includeInactive bool
	input           application.StaffInput
	lastID          string
	staff           []application.Staff
	err             error
}

func (s *staffServiceStub) ListStaff(_ context.Context, includeInactive bool) ([]application.Staff, error) {
	s.includeInactive = includeInactive
	return s.staff, s.err
}

func (s *staffServiceStub) GetStaff(_ context.Context, id string) (application.Staff, error) {
	s.lastID = id
	return s.first(id), s.err
}

func (s *staffServiceStub) CreateStaff(_ context.Context, input application.StaffInput) (application.Staff, error) {
	s.input = input
	return application.Staff{ID: "new", Name: input.Name, Color: input.Color, Active: true}, s.err
}

func (s *staffServiceStub) UpdateStaff(_ context.Context, id string, input application.StaffInput) (application.Staff, error) {
	s.lastID, s.input = id, input
	return application.Staff{ID: id, Name: input.Name, Color: input.Color, Active: true}, s.err
}

func (s *staffServiceStub) DeactivateStaff(_ context.Context, id string) (application.Staff, error) {
	s.lastID = id
	member := s.first(id)
	member.Active = false
	return member, s.err
}

func (s *staffServiceStub) ReactivateStaff(_ context.Context, id string) (application.Staff, error) {
	s.lastID = id
	member := s.first(id)
	member.Active = true
	return member, s.err
}

func (s *staffServiceStub) DeleteStaff(_ context.Context, id string) error {
	s.lastID = id
	return s.err
}

func (s *staffServiceStub) first(id string) application.Staff {
	for _, member := range s.staff {
		if member.ID == id {
			return member
		}
	}
	return application.Staff{ID: id}
}

type calendarServiceStub struct {
	day      time.Time
	staffIDs []string
	view     application.DayView
	week     application.WeekView
	err      error
}

func (s *calendarServiceStub) DayView(_ context.Context, day time.Time, staffIDs []string) (application.DayView, error) {
	s.day, s.staffIDs = day, staffIDs
	return s.view, s.err
}

func (s *calendarServiceStub) WeekView(_ context.Context, reference time.Time, staffIDs []string) (application.WeekView, error) {
	s.day, s.staffIDs = reference, staffIDs
	return s.week, s.err
}

func (s *calendarServiceStub) Slots() []scheduler.TimeSlot {
	return []scheduler.TimeSlot{{Hour: 9, Minute: 0, Label: "09:00", Position: 0}, {Hour: 9, Minute: 30, Label: "09:30", Position: 30}}
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

func serve(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
