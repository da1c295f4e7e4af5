package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/example/salon-scheduler/internal/scheduler"
)

type sequenceStub uint64

func (s sequenceStub) LastSeq() uint64 { return uint64(s) }

func calendarOptions() CalendarOptions {
	return CalendarOptions{
		Location: time.UTC,
		Hours:    scheduler.BusinessHours{StartHour: 9, EndHour: 19, IntervalMinutes: 30},
		Layout:   scheduler.DefaultLayoutOptions(),
	}
}

func TestCalendarService_DayView(t *testing.T) {
	t.Run("positions overlapping appointments side by side", func(t *testing.T) {
		staff := newStaffRepoStub(activeStaff("eddy", "Eddy", "#FF5722"), activeStaff("maria", "Maria", "#9C27B0"))
		repo := newAppointmentRepoStub(staff)
		repo.seed(
			Appointment{ID: "a", StaffID: "eddy", Start: refTime, DurationMinutes: 60},
			Appointment{ID: "b", StaffID: "maria", Start: refTime.Add(30 * time.Minute), DurationMinutes: 30},
			Appointment{ID: "c", StaffID: "eddy", Start: refTime.Add(3 * time.Hour), DurationMinutes: 90},
			Appointment{ID: "tomorrow", StaffID: "eddy", Start: refTime.AddDate(0, 0, 1), DurationMinutes: 30},
		)
		svc := NewCalendarServiceWithLogger(repo, sequenceStub(7), calendarOptions(), quietLogger())

		view, err := svc.DayView(context.Background(), refTime.Add(5*time.Hour), nil)
		if err != nil {
			t.Fatalf("DayView returned error: %v", err)
		}
		if !view.Day.Equal(time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected day %v", view.Day)
		}
		if view.Sequence != 7 {
			t.Fatalf("expected sequence 7, got %d", view.Sequence)
		}
		if len(view.Slots) != 20 || view.Slots[0].Label != "09:00" {
			t.Fatalf("unexpected slots %#v", view.Slots)
		}
		if len(view.Appointments) != 3 {
			t.Fatalf("expected 3 appointments, got %d", len(view.Appointments))
		}

		byID := make(map[string]PositionedAppointment)
		for _, positioned := range view.Appointments {
			byID[positioned.Appointment.ID] = positioned
		}
		a, b, c := byID["a"], byID["b"], byID["c"]
		if a.Position.Top != 540 || a.Position.Height != 60 {
			t.Fatalf("unexpected geometry for a: %#v", a.Position)
		}
		if a.Position.Width != 65 || b.Position.Width != 65 || a.Position.Left != 40 || b.Position.Left != 105 {
			t.Fatalf("expected a and b to share the band, got %#v and %#v", a.Position, b.Position)
		}
		if c.Position.Width != 130 || c.Position.Height != 90 {
			t.Fatalf("expected c alone at full width, got %#v", c.Position)
		}
		if a.Appointment.StaffName != "Eddy" || b.Appointment.StaffColor != "#9C27B0" {
			t.Fatalf("expected staff details on positioned appointments")
		}
	})

	t.Run("staff filter applies before layout", func(t *testing.T) {
		repo := newAppointmentRepoStub(nil)
		repo.seed(
			Appointment{ID: "a", StaffID: "eddy", Start: refTime, DurationMinutes: 60},
			Appointment{ID: "b", StaffID: "maria", Start: refTime, DurationMinutes: 60},
		)
		svc := NewCalendarService(repo, nil, calendarOptions())

		view, err := svc.DayView(context.Background(), refTime, []string{"maria"})
		if err != nil {
			t.Fatalf("DayView returned error: %v", err)
		}
		if len(view.Appointments) != 1 || view.Appointments[0].Position.Width != 130 {
			t.Fatalf("expected maria alone at full width, got %#v", view.Appointments)
		}
	})

	t.Run("skips malformed appointments with a warning", func(t *testing.T) {
		var capture captureHandler
		repo := newAppointmentRepoStub(nil)
		repo.seed(
			Appointment{ID: "good", StaffID: "eddy", Start: refTime, DurationMinutes: 30},
			Appointment{ID: "broken", StaffID: "eddy", Start: refTime, DurationMinutes: 0},
		)
		svc := NewCalendarServiceWithLogger(repo, nil, calendarOptions(), slog.New(&capture))

		view, err := svc.DayView(context.Background(), refTime, nil)
		if err != nil {
			t.Fatalf("DayView returned error: %v", err)
		}
		if len(view.Appointments) != 1 || view.Appointments[0].Appointment.ID != "good" {
			t.Fatalf("expected only the valid appointment, got %#v", view.Appointments)
		}
		if capture.count(slog.LevelWarn, "appointment skipped in layout") != 1 {
			t.Fatalf("expected skipped appointment to be logged")
		}
	})

	t.Run("surfaces storage failures", func(t *testing.T) {
		repo := newAppointmentRepoStub(nil)
		repo.listErr = errors.New("timeout")
		svc := NewCalendarService(repo, nil, calendarOptions())

		var pErr *PersistenceError
		if _, err := svc.DayView(context.Background(), refTime, nil); !errors.As(err, &pErr) {
			t.Fatalf("expected PersistenceError, got %v", err)
		}
	})
}

func TestCalendarService_WeekView(t *testing.T) {
	repo := newAppointmentRepoStub(nil)
	repo.seed(
		Appointment{ID: "mon", StaffID: "eddy", Start: refTime, DurationMinutes: 30},
		Appointment{ID: "wed", StaffID: "eddy", Start: refTime.AddDate(0, 0, 2), DurationMinutes: 30},
		Appointment{ID: "sun", StaffID: "eddy", Start: refTime.AddDate(0, 0, 6), DurationMinutes: 30},
		Appointment{ID: "next-mon", StaffID: "eddy", Start: refTime.AddDate(0, 0, 7), DurationMinutes: 30},
	)
	svc := NewCalendarService(repo, sequenceStub(3), calendarOptions())

	week, err := svc.WeekView(context.Background(), refTime.AddDate(0, 0, 4), nil)
	if err != nil {
		t.Fatalf("WeekView returned error: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected a single range query, got %d", repo.listCalls)
	}
	if len(week.Days) != 7 || week.Days[0].Day.Weekday() != time.Monday {
		t.Fatalf("expected seven days from Monday, got %d starting %v", len(week.Days), week.Days[0].Day.Weekday())
	}
	counts := make([]int, 7)
	for i, day := range week.Days {
		counts[i] = len(day.Appointments)
	}
	want := []int{1, 0, 1, 0, 0, 0, 1}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("unexpected per-day counts %v", counts)
		}
	}
	if week.Sequence != 3 || week.Days[6].Sequence != 3 {
		t.Fatalf("expected sequence carried to every day")
	}
}

func TestCalendarService_SlotsReturnsCopy(t *testing.T) {
	svc := NewCalendarService(nil, nil, calendarOptions())

	slots := svc.Slots()
	slots[0].Label = "changed"
	if svc.Slots()[0].Label != "09:00" {
		t.Fatalf("expected Slots to return a copy")
	}

	fallback := NewCalendarService(nil, nil, CalendarOptions{Hours: scheduler.BusinessHours{StartHour: 20, EndHour: 8, IntervalMinutes: 30}})
	if got := len(fallback.Slots()); got != 48 {
		t.Fatalf("expected invalid hours to fall back to the full day, got %d slots", got)
	}
}
