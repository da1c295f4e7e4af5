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
	"github.com/example/salon-scheduler/internal/scheduler"
)

// conflictLookback bounds how far before a candidate the service searches for
// overlapping appointments. It must not be shorter than the longest duration
// validation accepts (lte=1440 on appointmentRecord), or an earlier long
// appointment would overlap without being fetched.
const conflictLookback = maxDurationMinutes * time.Minute

// maxDurationMinutes is the longest appointment accepted.
const maxDurationMinutes = 24 * 60

// AppointmentRepository captures the persistence operations needed by the service.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) (string, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	UpdateAppointment(ctx context.Context, appointment Appointment) (int64, error)
	DeleteAppointment(ctx context.Context, id string) (int64, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
}

// StaffDirectory resolves staff members referenced by appointments.
type StaffDirectory interface {
	GetStaff(ctx context.Context, id string) (Staff, error)
}

// EventPublisher receives a notification after every committed change.
type EventPublisher interface {
	Publish(ctx context.Context, event notify.Event) error
}

// AppointmentService validates and stores appointments. Overlaps are reported
// as warnings and never prevent a write.
type AppointmentService struct {
	appointments AppointmentRepository
	staff        StaffDirectory
	events       EventPublisher
	warnings     *warningCache
	now          func() time.Time
	logger       *slog.Logger
}

// NewAppointmentService constructs an appointment service with the provided dependencies.
func NewAppointmentService(appointments AppointmentRepository, staff StaffDirectory, events EventPublisher, now func() time.Time) *AppointmentService {
	return NewAppointmentServiceWithLogger(appointments, staff, events, now, nil)
}

// NewAppointmentServiceWithLogger constructs an appointment service with a specified logger.
func NewAppointmentServiceWithLogger(appointments AppointmentRepository, staff StaffDirectory, events EventPublisher, now func() time.Time, logger *slog.Logger) *AppointmentService {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = notify.Discard{}
	}
	return &AppointmentService{
		appointments: appointments,
		staff:        staff,
		events:       events,
		warnings:     newWarningCache(30*time.Second, 128, now),
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// CreateAppointment validates input, stores a new appointment and returns the
// stored record with any overlaps for the same staff member.
func (s *AppointmentService) CreateAppointment(ctx context.Context, input AppointmentInput) (result AppointmentResult, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateAppointment", "staff_id", input.StaffID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("appointment_id", result.Appointment.ID, "warning_count", len(result.Warnings)).
			InfoContext(ctx, "appointment created")
	}()

	createdAt := s.now()
	appointment := Appointment{
		Title:           strings.TrimSpace(input.Title),
		ClientName:      strings.TrimSpace(input.ClientName),
		ClientPhone:     normalizeOptionalString(input.ClientPhone),
		ClientEmail:     normalizeOptionalString(input.ClientEmail),
		StaffID:         strings.TrimSpace(input.StaffID),
		Start:           input.Start,
		DurationMinutes: input.DurationMinutes,
		Notes:           normalizeOptionalString(input.Notes),
		Price:           input.Price,
		Status:          strings.TrimSpace(input.Status),
		PaymentMethod:   normalizeOptionalString(input.PaymentMethod),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	if appointment.Status == "" {
		appointment.Status = DefaultStatus
	}

	vErr := validateAppointment(appointment)
	if appointment.StaffID != "" {
		staffErr, lookupErr := s.checkStaff(ctx, appointment.StaffID, true)
		if lookupErr != nil {
			err = lookupErr
			return
		}
		vErr.merge(staffErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var id string
	id, err = s.appointments.CreateAppointment(ctx, appointment)
	if err != nil {
		err = mapAppointmentRepoError("create appointment", err)
		return
	}
	s.warnings.Invalidate()

	result, err = s.reload(ctx, id)
	if err != nil {
		return
	}
	s.publish(ctx, logger, notify.AppointmentCreated, result.Appointment)
	return
}

// GetAppointment returns a stored appointment.
func (s *AppointmentService) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	if s == nil {
		return Appointment{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return Appointment{}, fmt.Errorf("appointment repository not configured")
	}
	appointment, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		err = mapAppointmentRepoError("get appointment", err)
		s.loggerWith(ctx, "GetAppointment", "appointment_id", id).
			ErrorContext(ctx, "failed to get appointment", "error", err, "error_kind", ErrorKind(err))
		return Appointment{}, err
	}
	return appointment, nil
}

// UpdateAppointment applies a patch to a stored appointment. An empty patch
// returns the stored record unchanged.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, id string, patch AppointmentPatch) (result AppointmentResult, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateAppointment", "appointment_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("warning_count", len(result.Warnings)).InfoContext(ctx, "appointment updated")
	}()

	var existing Appointment
	existing, err = s.appointments.GetAppointment(ctx, id)
	if err != nil {
		err = mapAppointmentRepoError("get appointment", err)
		return
	}
	if patch.IsEmpty() {
		result = AppointmentResult{Appointment: existing, Warnings: s.conflictsFor(ctx, logger, existing)}
		return
	}

	updated := applyPatch(existing, patch)
	updated.UpdatedAt = s.now()

	vErr := validateAppointment(updated)
	if updated.StaffID != "" && updated.StaffID != existing.StaffID {
		staffErr, lookupErr := s.checkStaff(ctx, updated.StaffID, true)
		if lookupErr != nil {
			err = lookupErr
			return
		}
		vErr.merge(staffErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.write(ctx, updated); err != nil {
		return
	}

	result, err = s.reload(ctx, id)
	if err != nil {
		return
	}
	s.publish(ctx, logger, notify.AppointmentUpdated, result.Appointment)
	return
}

// MoveAppointment changes only the start of an appointment, keeping its
// duration. Overlaps at the new time are logged and returned.
func (s *AppointmentService) MoveAppointment(ctx context.Context, id string, newStart time.Time) (result AppointmentResult, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "MoveAppointment", "appointment_id", id, "new_start", newStart)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to move appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment moved")
	}()

	if newStart.IsZero() {
		vErr := &ValidationError{}
		vErr.add("start", "start is required")
		err = vErr
		return
	}

	var existing Appointment
	existing, err = s.appointments.GetAppointment(ctx, id)
	if err != nil {
		err = mapAppointmentRepoError("get appointment", err)
		return
	}

	moved := existing
	moved.Start = newStart
	moved.UpdatedAt = s.now()
	if err = s.write(ctx, moved); err != nil {
		return
	}

	result, err = s.reload(ctx, id)
	if err != nil {
		return
	}
	for _, warning := range result.Warnings {
		logger.WarnContext(ctx, "moved appointment overlaps another booking",
			"with_appointment_id", warning.WithAppointmentID,
			"staff_id", warning.StaffID,
		)
	}
	s.publish(ctx, logger, notify.AppointmentMoved, result.Appointment)
	return
}

// DeleteAppointment removes an appointment. Unknown ids, including ones that
// were already deleted, report ErrNotFound.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteAppointment", "appointment_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment deleted")
	}()

	existing, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return mapAppointmentRepoError("get appointment", err)
	}

	affected, err := s.appointments.DeleteAppointment(ctx, id)
	if err != nil {
		return mapAppointmentRepoError("delete appointment", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.warnings.Invalidate()
	s.publish(ctx, logger, notify.AppointmentDeleted, existing)
	return nil
}

// ListAppointments returns appointments ordered by start, with the overlaps
// found between them.
func (s *AppointmentService) ListAppointments(ctx context.Context, params ListAppointmentsParams) (list AppointmentList, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		return AppointmentList{}, nil
	}

	filter, vErr := buildListFilter(params)
	if vErr.HasErrors() {
		return AppointmentList{}, vErr
	}

	logger := s.loggerWith(ctx, "ListAppointments", "period", string(params.Period), "staff_count", len(filter.StaffIDs))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list appointments", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(list.Appointments), "warning_count", len(list.Warnings)).
			InfoContext(ctx, "appointments listed")
	}()

	var raw []Appointment
	raw, err = s.appointments.ListAppointments(ctx, filter)
	if err != nil {
		err = mapAppointmentRepoError("list appointments", err)
		return
	}

	list.Appointments = make([]Appointment, len(raw))
	copy(list.Appointments, raw)
	sortAppointments(list.Appointments)

	key := buildWarningCacheKey(filter, list.Appointments)
	if cached, ok := s.warnings.Get(key); ok {
		list.Warnings = cached
		return
	}
	list.Warnings = detectListConflicts(list.Appointments)
	s.warnings.Store(key, list.Warnings)
	return
}

// checkStaff reports a validation error when staffID is unknown, or inactive
// and requireActive is set. Lookup failures are returned separately.
func (s *AppointmentService) checkStaff(ctx context.Context, staffID string, requireActive bool) (*ValidationError, error) {
	vErr := &ValidationError{}
	if s.staff == nil {
		return vErr, nil
	}
	staff, err := s.staff.GetStaff(ctx, staffID)
	if err != nil {
		if isNotFoundError(err) {
			vErr.add("staff_id", "staff member does not exist")
			return vErr, nil
		}
		return nil, &PersistenceError{Op: "get staff", Err: err}
	}
	if requireActive && !staff.Active {
		vErr.add("staff_id", "staff member is inactive")
	}
	return vErr, nil
}

func (s *AppointmentService) write(ctx context.Context, appointment Appointment) error {
	affected, err := s.appointments.UpdateAppointment(ctx, appointment)
	if err != nil {
		return mapAppointmentRepoError("update appointment", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.warnings.Invalidate()
	return nil
}

// reload reads back a written appointment so callers see exactly what was stored.
func (s *AppointmentService) reload(ctx context.Context, id string) (AppointmentResult, error) {
	appointment, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return AppointmentResult{}, mapAppointmentRepoError("reload appointment", err)
	}
	return AppointmentResult{
		Appointment: appointment,
		Warnings:    s.conflictsFor(ctx, s.loggerWith(ctx, "detectConflicts", "appointment_id", id), appointment),
	}, nil
}

// conflictsFor lists the same staff member's nearby appointments and reports
// overlaps. A failed lookup is logged and yields no warnings.
func (s *AppointmentService) conflictsFor(ctx context.Context, logger *slog.Logger, appointment Appointment) []ConflictWarning {
	if appointment.Start.IsZero() || appointment.StaffID == "" {
		return nil
	}
	from := appointment.Start.Add(-conflictLookback)
	to := appointment.End()
	nearby, err := s.appointments.ListAppointments(ctx, AppointmentFilter{
		From:     &from,
		To:       &to,
		StaffIDs: []string{appointment.StaffID},
	})
	if err != nil {
		logger.WarnContext(ctx, "conflict check skipped", "error", err)
		return nil
	}

	existing := make([]scheduler.Block, 0, len(nearby))
	for _, other := range nearby {
		existing = append(existing, other.block())
	}
	return toConflictWarnings(appointment.ID, scheduler.DetectConflicts(existing, appointment.block()))
}

func (s *AppointmentService) publish(ctx context.Context, logger *slog.Logger, eventType notify.EventType, appointment Appointment) {
	event := notify.Event{
		Type:          eventType,
		AppointmentID: appointment.ID,
		StaffID:       appointment.StaffID,
		OccurredAt:    s.now(),
	}
	if !appointment.Start.IsZero() {
		event.Day = appointment.Start.Format(time.DateOnly)
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish change event", "error", err, "event_type", eventType)
	}
}

func applyPatch(existing Appointment, patch AppointmentPatch) Appointment {
	updated := existing
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.ClientName != nil {
		updated.ClientName = strings.TrimSpace(*patch.ClientName)
	}
	if patch.ClientPhone != nil {
		updated.ClientPhone = normalizeOptionalString(patch.ClientPhone)
	}
	if patch.ClientEmail != nil {
		updated.ClientEmail = normalizeOptionalString(patch.ClientEmail)
	}
	if patch.StaffID != nil {
		updated.StaffID = strings.TrimSpace(*patch.StaffID)
	}
	if patch.Start != nil {
		updated.Start = *patch.Start
	}
	if patch.DurationMinutes != nil {
		updated.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Notes != nil {
		updated.Notes = normalizeOptionalString(patch.Notes)
	}
	if patch.ClearPrice {
		updated.Price = nil
	} else if patch.Price != nil {
		price := *patch.Price
		updated.Price = &price
	}
	if patch.Status != nil {
		updated.Status = strings.TrimSpace(*patch.Status)
		if updated.Status == "" {
			updated.Status = DefaultStatus
		}
	}
	if patch.PaymentMethod != nil {
		updated.PaymentMethod = normalizeOptionalString(patch.PaymentMethod)
	}
	return updated
}

func buildListFilter(params ListAppointmentsParams) (AppointmentFilter, *ValidationError) {
	vErr := &ValidationError{}
	from := params.From
	to := params.To

	if params.Period != ListPeriodNone {
		if params.PeriodReference.IsZero() {
			vErr.add("period", "a reference date is required with a period")
			return AppointmentFilter{}, vErr
		}
		start, end, ok := computePeriodRange(params.Period, params.PeriodReference)
		if !ok {
			vErr.add("period", "period must be one of day, week or month")
			return AppointmentFilter{}, vErr
		}
		if from == nil {
			from = &start
		}
		if to == nil {
			to = &end
		}
	}
	if from != nil && to != nil && !from.Before(*to) {
		vErr.add("range", "from must be before to")
		return AppointmentFilter{}, vErr
	}

	staff := sortStrings(uniqueStrings(params.StaffIDs))
	if len(staff) == 0 {
		staff = nil
	}
	return AppointmentFilter{From: from, To: to, StaffIDs: staff}, vErr
}

// computePeriodRange returns the half-open range of the period containing
// reference, in reference's location.
func computePeriodRange(period ListPeriod, reference time.Time) (time.Time, time.Time, bool) {
	loc := reference.Location()
	switch period {
	case ListPeriodDay:
		start := scheduler.StartOfDay(reference, loc)
		return start, start.AddDate(0, 0, 1), true
	case ListPeriodWeek:
		start := scheduler.StartOfWeek(reference, loc)
		return start, start.AddDate(0, 0, 7), true
	case ListPeriodMonth:
		start := scheduler.StartOfMonth(reference, loc)
		return start, start.AddDate(0, 1, 0), true
	}
	return time.Time{}, time.Time{}, false
}

func sortAppointments(appointments []Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		if appointments[i].Start.Equal(appointments[j].Start) {
			return appointments[i].ID < appointments[j].ID
		}
		return appointments[i].Start.Before(appointments[j].Start)
	})
}

// detectListConflicts reports each overlapping same-staff pair once, from the
// earlier appointment's side.
func detectListConflicts(appointments []Appointment) []ConflictWarning {
	if len(appointments) <= 1 {
		return nil
	}
	blocks := make([]scheduler.Block, len(appointments))
	for i, appointment := range appointments {
		blocks[i] = appointment.block()
	}

	var warnings []ConflictWarning
	for i := range blocks {
		conflicts := scheduler.DetectConflicts(blocks[i+1:], blocks[i])
		warnings = append(warnings, toConflictWarnings(blocks[i].ID, conflicts)...)
	}
	return warnings
}

func toConflictWarnings(appointmentID string, conflicts []scheduler.Conflict) []ConflictWarning {
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, conflict := range conflicts {
		warnings = append(warnings, ConflictWarning{
			AppointmentID:     appointmentID,
			WithAppointmentID: conflict.WithID,
			StaffID:           conflict.StaffID,
			Start:             conflict.Start,
			End:               conflict.End,
		})
	}
	return warnings
}

func mapAppointmentRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFoundError(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("staff_id", "staff member does not exist")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("appointment", "appointment violates a storage constraint")
		return vErr
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
