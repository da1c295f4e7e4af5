package adapters_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/salon-scheduler/internal/adapters"
	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/persistence"
	"github.com/example/salon-scheduler/internal/persistence/memory"
)

func TestAdaptersRoundTripThroughMemoryStore(t *testing.T) {
	t.Parallel()

	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	store := memory.New()
	staff := adapters.NewStaffRepository(store, rome)
	appointments := adapters.NewAppointmentRepository(store, rome)
	ctx := context.Background()

	created := time.Date(2024, time.May, 6, 7, 0, 0, 0, time.UTC)
	staffID, err := staff.CreateStaff(ctx, application.Staff{Name: "Eddy", Color: "#FF5722", Active: true, CreatedAt: created, UpdatedAt: created})
	if err != nil {
		t.Fatalf("CreateStaff returned error: %v", err)
	}

	price := 30.0
	start := time.Date(2024, time.May, 6, 22, 30, 0, 0, time.UTC)
	id, err := appointments.CreateAppointment(ctx, application.Appointment{
		Title: "Cut", ClientName: "Rossi", StaffID: staffID, Start: start, DurationMinutes: 60,
		Price: &price, Status: application.DefaultStatus, CreatedAt: created, UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}
	price = 99

	got, err := appointments.GetAppointment(ctx, id)
	if err != nil {
		t.Fatalf("GetAppointment returned error: %v", err)
	}
	if got.Start.Location() != rome || got.Start.Day() != 7 || !got.Start.Equal(start) {
		t.Fatalf("expected start converted to Rome, got %v", got.Start)
	}
	if got.Price == nil || *got.Price != 30 {
		t.Fatalf("expected stored price copied, got %v", got.Price)
	}
	if got.StaffName != "Eddy" || got.StaffColor != "#FF5722" {
		t.Fatalf("expected staff details, got %q %q", got.StaffName, got.StaffColor)
	}

	from := start.Add(-time.Hour)
	list, err := appointments.ListAppointments(ctx, application.AppointmentFilter{From: &from, StaffIDs: []string{staffID}})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one listed appointment, got %d, %v", len(list), err)
	}
	if count, err := appointments.CountAppointmentsForStaff(ctx, staffID); err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d, %v", count, err)
	}

	if _, err := appointments.GetAppointment(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected persistence.ErrNotFound to pass through, got %v", err)
	}

	members, err := staff.ListStaff(ctx)
	if err != nil || len(members) != 1 || members[0].CreatedAt.Location() != rome {
		t.Fatalf("unexpected staff listing %#v, %v", members, err)
	}
}

func TestConversionsKeepZeroTimes(t *testing.T) {
	t.Parallel()

	got := adapters.ToApplicationStaff(persistence.Staff{ID: "s"}, time.UTC)
	if !got.CreatedAt.IsZero() {
		t.Fatalf("expected zero time kept, got %v", got.CreatedAt)
	}
	back := adapters.ToPersistenceAppointment(application.Appointment{ID: "a", StaffName: "ignored"})
	if back.StaffName != "" {
		t.Fatalf("expected staff name dropped on write")
	}
}
