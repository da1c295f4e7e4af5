// Package memory provides a process-local persistence backend used in demo
// mode and by tests that do not need a database file.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/example/salon-scheduler/internal/persistence"
)

// Storage keeps staff and appointments in maps guarded by a single lock.
type Storage struct {
	mu           sync.RWMutex
	staff        map[string]persistence.Staff
	appointments map[string]persistence.Appointment
	newID        func() string
}

// Option customises a Storage.
type Option func(*Storage)

// WithIDGenerator replaces the uuid based identifier source.
func WithIDGenerator(next func() string) Option {
	return func(s *Storage) {
		if next != nil {
			s.newID = next
		}
	}
}

// New returns an empty Storage.
func New(opts ...Option) *Storage {
	s := &Storage{
		staff:        make(map[string]persistence.Staff),
		appointments: make(map[string]persistence.Appointment),
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Storage) Close(context.Context) error {
	return nil
}

// --- StaffRepository implementation ---

// CreateStaff stores a staff member under a new identifier.
func (s *Storage) CreateStaff(ctx context.Context, staff persistence.Staff) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staff.ID = s.newID()
	if _, ok := s.staff[staff.ID]; ok {
		return "", persistence.ErrDuplicate
	}
	s.staff[staff.ID] = cloneStaff(staff)
	return staff.ID, nil
}

// GetStaff retrieves a staff member by ID.
func (s *Storage) GetStaff(ctx context.Context, id string) (persistence.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staff, ok := s.staff[id]
	if !ok {
		return persistence.Staff{}, persistence.ErrNotFound
	}
	return cloneStaff(staff), nil
}

// UpdateStaff replaces a staff record, keeping its creation time.
func (s *Storage) UpdateStaff(ctx context.Context, staff persistence.Staff) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.staff[staff.ID]
	if !ok {
		return 0, nil
	}
	staff.CreatedAt = existing.CreatedAt
	s.staff[staff.ID] = cloneStaff(staff)
	return 1, nil
}

// DeleteStaff removes a staff member that no appointment references.
func (s *Storage) DeleteStaff(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.staff[id]; !ok {
		return 0, nil
	}
	for _, appointment := range s.appointments {
		if appointment.StaffID == id {
			return 0, persistence.ErrForeignKeyViolation
		}
	}
	delete(s.staff, id)
	return 1, nil
}

// ListStaff returns every staff member ordered by name.
func (s *Storage) ListStaff(ctx context.Context) ([]persistence.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staff := make([]persistence.Staff, 0, len(s.staff))
	for _, member := range s.staff {
		staff = append(staff, cloneStaff(member))
	}
	sort.Slice(staff, func(i, j int) bool {
		a, b := strings.ToLower(staff[i].Name), strings.ToLower(staff[j].Name)
		if a == b {
			return staff[i].ID < staff[j].ID
		}
		return a < b
	})
	return staff, nil
}

// --- AppointmentRepository implementation ---

// CreateAppointment stores an appointment under a new identifier.
func (s *Storage) CreateAppointment(ctx context.Context, appointment persistence.Appointment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.staff[appointment.StaffID]; !ok {
		return "", persistence.ErrForeignKeyViolation
	}
	appointment.ID = s.newID()
	if _, ok := s.appointments[appointment.ID]; ok {
		return "", persistence.ErrDuplicate
	}
	s.appointments[appointment.ID] = cloneAppointment(appointment)
	return appointment.ID, nil
}

// GetAppointment retrieves an appointment enriched with its staff details.
func (s *Storage) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointment, ok := s.appointments[id]
	if !ok {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	return s.enrichLocked(appointment), nil
}

// UpdateAppointment replaces an appointment, keeping its creation time.
func (s *Storage) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appointments[appointment.ID]
	if !ok {
		return 0, nil
	}
	if _, ok := s.staff[appointment.StaffID]; !ok {
		return 0, persistence.ErrForeignKeyViolation
	}
	appointment.CreatedAt = existing.CreatedAt
	s.appointments[appointment.ID] = cloneAppointment(appointment)
	return 1, nil
}

// DeleteAppointment removes an appointment.
func (s *Storage) DeleteAppointment(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return 0, nil
	}
	delete(s.appointments, id)
	return 1, nil
}

// ListAppointments returns matching appointments ordered by start.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := make([]persistence.Appointment, 0)
	for _, appointment := range s.appointments {
		if !filter.Matches(appointment.StaffID, appointment.Start) {
			continue
		}
		appointments = append(appointments, s.enrichLocked(appointment))
	}
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Start.Equal(appointments[j].Start) {
			return appointments[i].ID < appointments[j].ID
		}
		return appointments[i].Start.Before(appointments[j].Start)
	})
	return appointments, nil
}

// CountAppointmentsForStaff counts appointments assigned to a staff member.
func (s *Storage) CountAppointmentsForStaff(ctx context.Context, staffID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, appointment := range s.appointments {
		if appointment.StaffID == staffID {
			count++
		}
	}
	return count, nil
}

// --- Helpers ---

func (s *Storage) enrichLocked(appointment persistence.Appointment) persistence.Appointment {
	out := cloneAppointment(appointment)
	if staff, ok := s.staff[appointment.StaffID]; ok {
		out.StaffName = staff.Name
		out.StaffColor = staff.Color
	}
	return out
}

func cloneStaff(staff persistence.Staff) persistence.Staff {
	staff.Phone = cloneString(staff.Phone)
	return staff
}

func cloneAppointment(appointment persistence.Appointment) persistence.Appointment {
	appointment.ClientPhone = cloneString(appointment.ClientPhone)
	appointment.ClientEmail = cloneString(appointment.ClientEmail)
	appointment.Notes = cloneString(appointment.Notes)
	appointment.PaymentMethod = cloneString(appointment.PaymentMethod)
	if appointment.Price != nil {
		price := *appointment.Price
		appointment.Price = &price
	}
	appointment.StaffName = ""
	appointment.StaffColor = ""
	return appointment
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
