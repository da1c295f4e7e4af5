package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/salon-scheduler/internal/notify"
	"github.com/example/salon-scheduler/internal/persistence"
)

// StaffRepository captures the persistence operations needed by the service.
type StaffRepository interface {
	CreateStaff(ctx context.Context, staff Staff) (string, error)
	GetStaff(ctx context.Context, id string) (Staff, error)
	UpdateStaff(ctx context.Context, staff Staff) (int64, error)
	DeleteStaff(ctx context.Context, id string) (int64, error)
	ListStaff(ctx context.Context) ([]Staff, error)
}

// AppointmentCounter reports how many appointments reference a staff member.
type AppointmentCounter interface {
	CountAppointmentsForStaff(ctx context.Context, staffID string) (int, error)
}

// DefaultStaff is the roster seeded into an empty registry.
func DefaultStaff() []StaffInput {
	return []StaffInput{
		{Name: "Eddy", Color: "#FF5722"},
		{Name: "Maria", Color: "#9C27B0"},
		{Name: "Giovanna", Color: "#4CAF50"},
		{Name: "Luca", Color: "#2196F3"},
	}
}

// StaffService manages the staff registry.
type StaffService struct {
	staff        StaffRepository
	appointments AppointmentCounter
	events       EventPublisher
	now          func() time.Time
	logger       *slog.Logger
}

// NewStaffService constructs a staff service with the provided dependencies.
func NewStaffService(staff StaffRepository, appointments AppointmentCounter, events EventPublisher, now func() time.Time) *StaffService {
	return NewStaffServiceWithLogger(staff, appointments, events, now, nil)
}

// NewStaffServiceWithLogger constructs a staff service with a specified logger.
func NewStaffServiceWithLogger(staff StaffRepository, appointments AppointmentCounter, events EventPublisher, now func() time.Time, logger *slog.Logger) *StaffService {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = notify.Discard{}
	}
	return &StaffService{staff: staff, appointments: appointments, events: events, now: now, logger: defaultLogger(logger)}
}

func (s *StaffService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StaffService", operation, attrs...)
}

// ListStaff returns staff ordered by name, ignoring case, then id. Inactive
// members are included only on request.
func (s *StaffService) ListStaff(ctx context.Context, includeInactive bool) (staff []Staff, err error) {
	if s == nil {
		err = fmt.Errorf("StaffService is nil")
		return
	}
	if s.staff == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListStaff", "include_inactive", includeInactive)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list staff", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(staff)).InfoContext(ctx, "staff listed")
	}()

	var raw []Staff
	raw, err = s.staff.ListStaff(ctx)
	if err != nil {
		err = mapStaffRepoError("list staff", err)
		return
	}

	staff = make([]Staff, 0, len(raw))
	for _, member := range raw {
		if member.Active || includeInactive {
			staff = append(staff, member)
		}
	}
	sort.Slice(staff, func(i, j int) bool {
		if strings.EqualFold(staff[i].Name, staff[j].Name) {
			return staff[i].ID < staff[j].ID
		}
		return strings.ToLower(staff[i].Name) < strings.ToLower(staff[j].Name)
	})
	return
}

// GetStaff returns one staff member, active or not.
func (s *StaffService) GetStaff(ctx context.Context, id string) (Staff, error) {
	if s == nil {
		return Staff{}, fmt.Errorf("StaffService is nil")
	}
	if s.staff == nil {
		return Staff{}, fmt.Errorf("staff repository not configured")
	}
	member, err := s.staff.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, mapStaffRepoError("get staff", err)
	}
	return member, nil
}

// CreateStaff validates input and registers an active staff member.
func (s *StaffService) CreateStaff(ctx context.Context, input StaffInput) (staff Staff, err error) {
	if s == nil {
		err = fmt.Errorf("StaffService is nil")
		return
	}
	if s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateStaff")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create staff", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("staff_id", staff.ID).InfoContext(ctx, "staff created")
	}()

	createdAt := s.now()
	candidate := Staff{
		Name:      strings.TrimSpace(input.Name),
		Color:     strings.ToUpper(strings.TrimSpace(input.Color)),
		Phone:     normalizeOptionalString(input.Phone),
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if vErr := validateStaff(candidate); vErr.HasErrors() {
		err = vErr
		return
	}

	var id string
	id, err = s.staff.CreateStaff(ctx, candidate)
	if err != nil {
		err = mapStaffRepoError("create staff", err)
		return
	}
	staff, err = s.GetStaff(ctx, id)
	if err != nil {
		return
	}
	s.publish(ctx, logger, staff.ID)
	return
}

// UpdateStaff replaces the name, colour and phone of a staff member.
func (s *StaffService) UpdateStaff(ctx context.Context, id string, input StaffInput) (staff Staff, err error) {
	if s == nil {
		err = fmt.Errorf("StaffService is nil")
		return
	}
	if s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateStaff", "staff_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update staff", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "staff updated")
	}()

	return s.modify(ctx, logger, id, func(member *Staff) *ValidationError {
		member.Name = strings.TrimSpace(input.Name)
		member.Color = strings.ToUpper(strings.TrimSpace(input.Color))
		member.Phone = normalizeOptionalString(input.Phone)
		return validateStaff(*member)
	})
}

// DeactivateStaff hides a staff member from booking while keeping their
// history resolvable.
func (s *StaffService) DeactivateStaff(ctx context.Context, id string) (Staff, error) {
	return s.setActive(ctx, "DeactivateStaff", id, false)
}

// ReactivateStaff makes a deactivated staff member bookable again.
func (s *StaffService) ReactivateStaff(ctx context.Context, id string) (Staff, error) {
	return s.setActive(ctx, "ReactivateStaff", id, true)
}

func (s *StaffService) setActive(ctx context.Context, operation, id string, active bool) (staff Staff, err error) {
	if s == nil {
		err = fmt.Errorf("StaffService is nil")
		return
	}
	if s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	logger := s.loggerWith(ctx, operation, "staff_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to change staff status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("active", staff.Active).InfoContext(ctx, "staff status changed")
	}()

	return s.modify(ctx, logger, id, func(member *Staff) *ValidationError {
		member.Active = active
		return nil
	})
}

// DeleteStaff removes a staff member that no appointment references. Staff
// with appointments must be deactivated instead.
func (s *StaffService) DeleteStaff(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("StaffService is nil")
	}
	if s.staff == nil {
		return fmt.Errorf("staff repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteStaff", "staff_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete staff", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "staff deleted")
	}()

	if s.appointments != nil {
		count, countErr := s.appointments.CountAppointmentsForStaff(ctx, id)
		if countErr != nil {
			return mapStaffRepoError("count appointments", countErr)
		}
		if count > 0 {
			return staffInUseError(count)
		}
	}

	affected, err := s.staff.DeleteStaff(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrForeignKeyViolation) {
			return staffInUseError(0)
		}
		return mapStaffRepoError("delete staff", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.publish(ctx, logger, id)
	return nil
}

// EnsureDefaultStaff seeds defaults when the registry is empty and returns
// how many members were created.
func (s *StaffService) EnsureDefaultStaff(ctx context.Context, defaults []StaffInput) (created int, err error) {
	if s == nil {
		return 0, fmt.Errorf("StaffService is nil")
	}
	if s.staff == nil {
		return 0, nil
	}

	logger := s.loggerWith(ctx, "EnsureDefaultStaff")
	existing, err := s.staff.ListStaff(ctx)
	if err != nil {
		err = mapStaffRepoError("list staff", err)
		logger.ErrorContext(ctx, "failed to read staff registry", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for _, input := range defaults {
		if _, err = s.CreateStaff(ctx, input); err != nil {
			return created, err
		}
		created++
	}
	logger.With("created", created).InfoContext(ctx, "default staff seeded")
	return created, nil
}

func (s *StaffService) modify(ctx context.Context, logger *slog.Logger, id string, change func(*Staff) *ValidationError) (Staff, error) {
	existing, err := s.staff.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, mapStaffRepoError("get staff", err)
	}

	updated := existing
	if vErr := change(&updated); vErr.HasErrors() {
		return Staff{}, vErr
	}
	updated.UpdatedAt = s.now()

	affected, err := s.staff.UpdateStaff(ctx, updated)
	if err != nil {
		return Staff{}, mapStaffRepoError("update staff", err)
	}
	if affected == 0 {
		return Staff{}, ErrNotFound
	}

	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	s.publish(ctx, logger, id)
	return staff, nil
}

func (s *StaffService) publish(ctx context.Context, logger *slog.Logger, staffID string) {
	event := notify.Event{Type: notify.StaffChanged, StaffID: staffID, OccurredAt: s.now()}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish change event", "error", err)
	}
}

func staffInUseError(count int) *ValidationError {
	vErr := &ValidationError{}
	if count > 0 {
		vErr.add("staff", fmt.Sprintf("staff member has %d appointments; deactivate instead", count))
	} else {
		vErr.add("staff", "staff member has appointments; deactivate instead")
	}
	return vErr
}

func mapStaffRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFoundError(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("staff", "staff member already exists")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("staff", "staff member violates a storage constraint")
		return vErr
	}
	return &PersistenceError{Op: op, Err: err}
}
