package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/example/salon-scheduler/internal/notify"
	"github.com/example/salon-scheduler/internal/persistence"
)

var refTime = time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return refTime }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// appointmentRepoStub keeps appointments in a map and joins staff names from
// its staff stub, like a real backend.
type appointmentRepoStub struct {
	mu     sync.Mutex
	items  map[string]Appointment
	staff  *staffRepoStub
	nextID int

	createErr error
	updateErr error
	deleteErr error
	listErr   error
	getErr    error

	listCalls int
	lastList  AppointmentFilter
}

func newAppointmentRepoStub(staff *staffRepoStub) *appointmentRepoStub {
	return &appointmentRepoStub{items: make(map[string]Appointment), staff: staff}
}

func (r *appointmentRepoStub) seed(appointments ...Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, appointment := range appointments {
		r.items[appointment.ID] = appointment
	}
}

func (r *appointmentRepoStub) CreateAppointment(ctx context.Context, appointment Appointment) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	appointment.ID = fmt.Sprintf("appt-%d", r.nextID)
	r.items[appointment.ID] = appointment
	return appointment.ID, nil
}

func (r *appointmentRepoStub) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	if r.getErr != nil {
		return Appointment{}, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.items[id]
	if !ok {
		return Appointment{}, persistence.ErrNotFound
	}
	return r.enrich(appointment), nil
}

func (r *appointmentRepoStub) UpdateAppointment(ctx context.Context, appointment Appointment) (int64, error) {
	if r.updateErr != nil {
		return 0, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[appointment.ID]; !ok {
		return 0, nil
	}
	r.items[appointment.ID] = appointment
	return 1, nil
}

func (r *appointmentRepoStub) DeleteAppointment(ctx context.Context, id string) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return 0, nil
	}
	delete(r.items, id)
	return 1, nil
}

func (r *appointmentRepoStub) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	r.lastList = filter
	if r.listErr != nil {
		return nil, r.listErr
	}
	pf := persistence.AppointmentFilter{From: filter.From, To: filter.To, StaffIDs: filter.StaffIDs}
	var out []Appointment
	for _, appointment := range r.items {
		if pf.Matches(appointment.StaffID, appointment.Start) {
			out = append(out, r.enrich(appointment))
		}
	}
	return out, nil
}

func (r *appointmentRepoStub) CountAppointmentsForStaff(ctx context.Context, staffID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, appointment := range r.items {
		if appointment.StaffID == staffID {
			count++
		}
	}
	return count, nil
}

func (r *appointmentRepoStub) enrich(appointment Appointment) Appointment {
	if r.staff == nil {
		return appointment
	}
	if member, ok := r.staff.items[appointment.StaffID]; ok {
		appointment.StaffName = member.Name
		appointment.StaffColor = member.Color
	}
	return appointment
}

type staffRepoStub struct {
	items  map[string]Staff
	nextID int

	createErr error
	getErr    error
	listErr   error
	deleteErr error
}

func newStaffRepoStub(members ...Staff) *staffRepoStub {
	stub := &staffRepoStub{items: make(map[string]Staff)}
	for _, member := range members {
		stub.items[member.ID] = member
	}
	return stub
}

func (r *staffRepoStub) CreateStaff(ctx context.Context, staff Staff) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	r.nextID++
	staff.ID = fmt.Sprintf("staff-%d", r.nextID)
	r.items[staff.ID] = staff
	return staff.ID, nil
}

func (r *staffRepoStub) GetStaff(ctx context.Context, id string) (Staff, error) {
	if r.getErr != nil {
		return Staff{}, r.getErr
	}
	member, ok := r.items[id]
	if !ok {
		return Staff{}, persistence.ErrNotFound
	}
	return member, nil
}

func (r *staffRepoStub) UpdateStaff(ctx context.Context, staff Staff) (int64, error) {
	if _, ok := r.items[staff.ID]; !ok {
		return 0, nil
	}
	r.items[staff.ID] = staff
	return 1, nil
}

func (r *staffRepoStub) DeleteStaff(ctx context.Context, id string) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if _, ok := r.items[id]; !ok {
		return 0, nil
	}
	delete(r.items, id)
	return 1, nil
}

func (r *staffRepoStub) ListStaff(ctx context.Context) ([]Staff, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Staff, 0, len(r.items))
	for _, member := range r.items {
		out = append(out, member)
	}
	return out, nil
}

type publisherStub struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *publisherStub) Publish(ctx context.Context, event notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *publisherStub) types() []notify.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.EventType, len(p.events))
	for i, event := range p.events {
		out[i] = event.Type
	}
	return out
}

type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) count(level slog.Level, message string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, record := range h.records {
		if record.Level == level && record.Message == message {
			n++
		}
	}
	return n
}

func activeStaff(id, name, color string) Staff {
	return Staff{ID: id, Name: name, Color: color, Active: true, CreatedAt: refTime, UpdatedAt: refTime}
}

func validInput(staffID string, start time.Time, duration int) AppointmentInput {
	return AppointmentInput{
		Title:           "Cut",
		ClientName:      "Rossi",
		StaffID:         staffID,
		Start:           start,
		DurationMinutes: duration,
	}
}
