package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/salon-scheduler/internal/scheduler"
)

// AppointmentLister loads appointments for a range.
type AppointmentLister interface {
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
}

// SequenceSource exposes the sequence number of the last change event.
type SequenceSource interface {
	LastSeq() uint64
}

// CalendarOptions configures the day grid.
type CalendarOptions struct {
	Location *time.Location
	Hours    scheduler.BusinessHours
	Layout   scheduler.LayoutOptions
}

// DefaultCalendarOptions returns the booking screen defaults in the local zone.
func DefaultCalendarOptions() CalendarOptions {
	return CalendarOptions{
		Location: time.Local,
		Hours:    scheduler.DefaultBusinessHours(),
		Layout:   scheduler.DefaultLayoutOptions(),
	}
}

// CalendarService builds the positioned day and week views.
type CalendarService struct {
	appointments AppointmentLister
	sequence     SequenceSource
	opts         CalendarOptions
	slots        []scheduler.TimeSlot
	logger       *slog.Logger
}

// NewCalendarService constructs a calendar service with the provided dependencies.
func NewCalendarService(appointments AppointmentLister, sequence SequenceSource, opts CalendarOptions) *CalendarService {
	return NewCalendarServiceWithLogger(appointments, sequence, opts, nil)
}

// NewCalendarServiceWithLogger constructs a calendar service with a specified logger.
func NewCalendarServiceWithLogger(appointments AppointmentLister, sequence SequenceSource, opts CalendarOptions, logger *slog.Logger) *CalendarService {
	defaults := DefaultCalendarOptions()
	if opts.Location == nil {
		opts.Location = defaults.Location
	}
	if opts.Hours.Validate() != nil {
		opts.Hours = defaults.Hours
	}
	if opts.Layout.SlotMinutes <= 0 {
		opts.Layout.SlotMinutes = opts.Hours.IntervalMinutes
	}
	if opts.Layout.SlotHeight <= 0 {
		opts.Layout.SlotHeight = defaults.Layout.SlotHeight
	}
	return &CalendarService{
		appointments: appointments,
		sequence:     sequence,
		opts:         opts,
		slots:        scheduler.GenerateSlots(opts.Hours, opts.Layout.SlotHeight),
		logger:       defaultLogger(logger),
	}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

// Slots returns the configured time ladder.
func (s *CalendarService) Slots() []scheduler.TimeSlot {
	if s == nil {
		return nil
	}
	out := make([]scheduler.TimeSlot, len(s.slots))
	copy(out, s.slots)
	return out
}

// DayView reloads the appointments of day and lays them out. An empty
// staffIDs shows everyone.
func (s *CalendarService) DayView(ctx context.Context, day time.Time, staffIDs []string) (view DayView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}
	start := scheduler.StartOfDay(day, s.opts.Location)

	logger := s.loggerWith(ctx, "DayView", "day", start.Format(time.DateOnly))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build day view", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("appointment_count", len(view.Appointments), "seq", view.Sequence).InfoContext(ctx, "day view built")
	}()

	var week WeekView
	week, err = s.buildRange(ctx, logger, start, 1, staffIDs)
	if err != nil {
		return
	}
	view = week.Days[0]
	return
}

// WeekView lays out the Monday-start week containing reference from a single
// range query.
func (s *CalendarService) WeekView(ctx context.Context, reference time.Time, staffIDs []string) (view WeekView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}
	start := scheduler.StartOfWeek(reference, s.opts.Location)

	logger := s.loggerWith(ctx, "WeekView", "week_start", start.Format(time.DateOnly))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build week view", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("seq", view.Sequence).InfoContext(ctx, "week view built")
	}()

	return s.buildRange(ctx, logger, start, 7, staffIDs)
}

// buildRange reads the sequence before loading so a change that lands during
// the load produces a newer sequence than the one reported.
func (s *CalendarService) buildRange(ctx context.Context, logger *slog.Logger, start time.Time, days int, staffIDs []string) (WeekView, error) {
	var seq uint64
	if s.sequence != nil {
		seq = s.sequence.LastSeq()
	}

	end := start.AddDate(0, 0, days)
	var appointments []Appointment
	if s.appointments != nil {
		filter, vErr := buildListFilter(ListAppointmentsParams{From: &start, To: &end, StaffIDs: staffIDs})
		if vErr.HasErrors() {
			return WeekView{}, vErr
		}
		var err error
		appointments, err = s.appointments.ListAppointments(ctx, filter)
		if err != nil {
			return WeekView{}, mapAppointmentRepoError("list appointments", err)
		}
	}
	sortAppointments(appointments)

	byID := make(map[string]Appointment, len(appointments))
	blocks := make([]scheduler.Block, 0, len(appointments))
	for _, appointment := range appointments {
		byID[appointment.ID] = appointment
		blocks = append(blocks, appointment.block())
	}
	buckets := make(map[string][]scheduler.Block)
	for _, bucket := range scheduler.BucketByDay(blocks, s.opts.Location) {
		if bucket.Day.IsZero() {
			for _, block := range bucket.Blocks {
				logger.WarnContext(ctx, "appointment without start ignored", "appointment_id", block.ID)
			}
			continue
		}
		buckets[bucket.Day.Format(time.DateOnly)] = bucket.Blocks
	}

	week := WeekView{Start: start, Sequence: seq, Days: make([]DayView, 0, days)}
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		layout := scheduler.LayoutDay(day, buckets[day.Format(time.DateOnly)], s.opts.Layout)
		for _, skipped := range layout.Skipped {
			logger.WarnContext(ctx, "appointment skipped in layout", "appointment_id", skipped.ID, "reason", skipped.Reason)
		}

		view := DayView{
			Day:          day,
			Slots:        s.Slots(),
			Appointments: make([]PositionedAppointment, 0, len(layout.Placements)),
			Sequence:     seq,
		}
		for _, placement := range layout.Placements {
			view.Appointments = append(view.Appointments, PositionedAppointment{
				Appointment: byID[placement.ID],
				Position:    placement.Position,
				Group:       placement.Group,
				Column:      placement.Column,
				Columns:     placement.Columns,
			})
		}
		week.Days = append(week.Days, view)
	}
	return week, nil
}
