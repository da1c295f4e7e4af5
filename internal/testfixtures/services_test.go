package testfixtures

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/notify"
)

func TestServiceFactoryBooksAndRendersDay(t *testing.T) {
	factory := NewServiceFactory(WithClock(NewTickingClock(time.Time{}, time.Second)))
	ctx := context.Background()
	events := factory.Broker.Subscribe(ctx, 16)

	staff := factory.SeedStaff(t, NewStaffFixture(WithStaffName("Eddy"), WithStaffColor("#FF5722")))
	eddy := staff[0]
	if eddy.ID != "id-1" {
		t.Fatalf("expected generated id id-1, got %q", eddy.ID)
	}

	appointments := factory.NewAppointmentService()
	first, err := appointments.CreateAppointment(ctx, NewAppointmentFixture(eddy.ID).Input())
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}
	second, err := appointments.CreateAppointment(ctx, NewAppointmentFixture(eddy.ID, WithStartOffset(30*time.Minute)).Input())
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}
	if len(first.Warnings) != 0 || len(second.Warnings) != 1 || second.Warnings[0].WithAppointmentID != first.Appointment.ID {
		t.Fatalf("expected the second booking to warn about the first, got %#v / %#v", first.Warnings, second.Warnings)
	}
	if second.Appointment.StaffName != "Eddy" {
		t.Fatalf("expected staff name on stored appointment, got %q", second.Appointment.StaffName)
	}

	view, err := factory.NewCalendarService().DayView(ctx, ReferenceTime(), nil)
	if err != nil {
		t.Fatalf("DayView returned error: %v", err)
	}
	if len(view.Appointments) != 2 || view.Appointments[0].Columns != 2 {
		t.Fatalf("expected two side-by-side appointments, got %#v", view.Appointments)
	}
	if view.Sequence != 3 {
		t.Fatalf("expected sequence after three changes, got %d", view.Sequence)
	}

	want := []notify.EventType{notify.StaffChanged, notify.AppointmentCreated, notify.AppointmentCreated}
	for i, wantType := range want {
		select {
		case event := <-events:
			if event.Type != wantType || event.Seq != uint64(i+1) {
				t.Fatalf("event %d: expected %s #%d, got %s #%d", i, wantType, i+1, event.Type, event.Seq)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestServiceFactoryOnSQLite(t *testing.T) {
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory(WithStore(harness.Storage))
	ctx := context.Background()

	staff := factory.SeedStaff(t,
		NewStaffFixture(WithStaffName("Maria"), WithStaffColor("#9C27B0")),
		NewStaffFixture(WithStaffName("Luca"), WithStaffInactive()),
	)
	if staff[1].Active {
		t.Fatalf("expected inactive fixture to be deactivated")
	}

	appointments := factory.NewAppointmentService()
	_, err := appointments.CreateAppointment(ctx, NewAppointmentFixture(staff[1].ID).Input())
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected booking an inactive member to fail validation, got %v", err)
	}

	booked, err := appointments.CreateAppointment(ctx, NewAppointmentFixture(staff[0].ID, WithPrice(45), WithClientEmail("ada@example.com")).Input())
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}
	if err := factory.NewStaffService().DeleteStaff(ctx, staff[0].ID); !errors.As(err, &vErr) {
		t.Fatalf("expected referenced staff delete to be refused, got %v", err)
	}

	list, err := appointments.ListAppointments(ctx, application.ListAppointmentsParams{
		Period:          application.ListPeriodWeek,
		PeriodReference: ReferenceTime().AddDate(0, 0, 3),
	})
	if err != nil {
		t.Fatalf("ListAppointments returned error: %v", err)
	}
	if len(list.Appointments) != 1 || list.Appointments[0].ID != booked.Appointment.ID {
		t.Fatalf("unexpected week listing %#v", list.Appointments)
	}
	if got := list.Appointments[0]; got.Price == nil || *got.Price != 45 || got.ClientEmail == nil {
		t.Fatalf("expected optional fields persisted, got %#v", got)
	}
}

func TestDayViewSurvivesMalformedStoredStart(t *testing.T) {
	harness := NewSQLiteHarness(t)
	var logs bytes.Buffer
	factory := NewServiceFactory(WithStore(harness.Storage), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	ctx := context.Background()

	staff := factory.SeedStaff(t, NewStaffFixture(WithStaffName("Eddy")))
	booked, err := factory.NewAppointmentService().CreateAppointment(ctx, NewAppointmentFixture(staff[0].ID).Input())
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}

	raw, err := sql.Open("sqlite", harness.Path)
	if err != nil {
		t.Fatalf("failed to open raw handle: %v", err)
	}
	defer raw.Close()
	_, err = raw.ExecContext(ctx, `
		INSERT INTO appointments (id, title, client_name, staff_id, start_time, duration_minutes, status, created_at, updated_at)
		VALUES ('broken', 'Colour', 'Bianchi', ?, '2024-05-06T11:00', 30, 'scheduled', '2024-05-06T08:00:00Z', '2024-05-06T08:00:00Z')`,
		staff[0].ID)
	if err != nil {
		t.Fatalf("failed to insert raw row: %v", err)
	}

	view, err := factory.NewCalendarService().DayView(ctx, ReferenceTime(), nil)
	if err != nil {
		t.Fatalf("expected the day to render around a malformed row, got %v", err)
	}
	if len(view.Appointments) != 1 || view.Appointments[0].Appointment.ID != booked.Appointment.ID {
		t.Fatalf("expected only the valid appointment, got %#v", view.Appointments)
	}
	if !strings.Contains(logs.String(), "appointment without start ignored") || !strings.Contains(logs.String(), "broken") {
		t.Fatalf("expected the dropped appointment to be logged, got %s", logs.String())
	}
}

func TestFixturesAreDistinct(t *testing.T) {
	a, b := NewAppointmentFixture("s"), NewAppointmentFixture("s", WithDuration(90), WithStatus("completed"))
	if a.ID == b.ID || a.ClientName == b.ClientName {
		t.Fatalf("expected unique fixtures, got %q and %q", a.ID, b.ID)
	}
	if !b.Application().End().Equal(ReferenceTime().Add(90*time.Minute)) || b.Persistence().Status != "completed" {
		t.Fatalf("unexpected overrides %#v", b)
	}
	if member := NewStaffFixture(WithStaffID("eddy"), WithStaffPhone("555")); member.Persistence().ID != "eddy" || *member.Application().Phone != "555" {
		t.Fatalf("unexpected staff fixture %#v", member)
	}
}
