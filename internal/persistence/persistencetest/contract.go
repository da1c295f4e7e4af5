// Package persistencetest holds the behaviour every persistence backend must
// share. Backend packages call RunStoreContract from their own tests.
package persistencetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/salon-scheduler/internal/persistence"
)

// Factory returns an empty, migrated store. Cleanup is the factory's job.
type Factory func(t *testing.T) persistence.Store

var base = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

// NewStaff returns a minimal valid staff record.
func NewStaff(name, color string) persistence.Staff {
	return persistence.Staff{
		Name:      name,
		Color:     color,
		Active:    true,
		CreatedAt: base,
		UpdatedAt: base,
	}
}

// NewAppointment returns a minimal valid appointment for staffID.
func NewAppointment(staffID string, start time.Time, duration int) persistence.Appointment {
	return persistence.Appointment{
		Title:           "Cut",
		ClientName:      "Rossi",
		StaffID:         staffID,
		Start:           start,
		DurationMinutes: duration,
		Status:          "scheduled",
		CreatedAt:       base,
		UpdatedAt:       base,
	}
}

// RunStoreContract exercises the repository contract against a backend.
func RunStoreContract(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("staff lifecycle", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		staff := NewStaff("Maria", "#9C27B0")
		staff.Phone = ptr("+39 333 000")
		id, err := store.CreateStaff(ctx, staff)
		if err != nil {
			t.Fatalf("CreateStaff failed: %v", err)
		}
		if id == "" {
			t.Fatalf("expected backend to assign an id")
		}

		fetched, err := store.GetStaff(ctx, id)
		if err != nil {
			t.Fatalf("GetStaff failed: %v", err)
		}
		if fetched.Name != "Maria" || fetched.Color != "#9C27B0" || !fetched.Active {
			t.Fatalf("unexpected staff: %#v", fetched)
		}
		if fetched.Phone == nil || *fetched.Phone != "+39 333 000" {
			t.Fatalf("expected phone to round trip, got %v", fetched.Phone)
		}

		fetched.Active = false
		fetched.Name = "Maria B."
		fetched.Phone = nil
		affected, err := store.UpdateStaff(ctx, fetched)
		if err != nil || affected != 1 {
			t.Fatalf("UpdateStaff returned %d, %v", affected, err)
		}
		fetched, err = store.GetStaff(ctx, id)
		if err != nil {
			t.Fatalf("GetStaff after update failed: %v", err)
		}
		if fetched.Active || fetched.Name != "Maria B." || fetched.Phone != nil {
			t.Fatalf("unexpected updated staff: %#v", fetched)
		}

		affected, err = store.DeleteStaff(ctx, id)
		if err != nil || affected != 1 {
			t.Fatalf("DeleteStaff returned %d, %v", affected, err)
		}
		if _, err := store.GetStaff(ctx, id); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		affected, err = store.DeleteStaff(ctx, id)
		if err != nil || affected != 0 {
			t.Fatalf("expected second delete to affect nothing, got %d, %v", affected, err)
		}
	})

	t.Run("staff list is ordered by name", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		for _, name := range []string{"Luca", "eddy", "Giovanna"} {
			if _, err := store.CreateStaff(ctx, NewStaff(name, "#2196F3")); err != nil {
				t.Fatalf("CreateStaff(%s) failed: %v", name, err)
			}
		}
		staff, err := store.ListStaff(ctx)
		if err != nil {
			t.Fatalf("ListStaff failed: %v", err)
		}
		if len(staff) != 3 || staff[0].Name != "eddy" || staff[1].Name != "Giovanna" || staff[2].Name != "Luca" {
			t.Fatalf("unexpected order: %#v", staff)
		}
	})

	t.Run("appointment lifecycle", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		staffID, err := store.CreateStaff(ctx, NewStaff("Eddy", "#FF5722"))
		if err != nil {
			t.Fatalf("CreateStaff failed: %v", err)
		}

		start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
		appointment := NewAppointment(staffID, start, 60)
		appointment.ClientEmail = ptr("rossi@example.com")
		appointment.Notes = ptr("balayage")
		appointment.Price = ptr(45.5)
		appointment.PaymentMethod = ptr("card")

		id, err := store.CreateAppointment(ctx, appointment)
		if err != nil {
			t.Fatalf("CreateAppointment failed: %v", err)
		}
		if id == "" {
			t.Fatalf("expected backend to assign an id")
		}

		fetched, err := store.GetAppointment(ctx, id)
		if err != nil {
			t.Fatalf("GetAppointment failed: %v", err)
		}
		if !fetched.Start.Equal(start) || fetched.DurationMinutes != 60 {
			t.Fatalf("unexpected timing: %v for %d minutes", fetched.Start, fetched.DurationMinutes)
		}
		if fetched.StaffName != "Eddy" || fetched.StaffColor != "#FF5722" {
			t.Fatalf("expected staff enrichment, got %q %q", fetched.StaffName, fetched.StaffColor)
		}
		if fetched.Price == nil || *fetched.Price != 45.5 {
			t.Fatalf("expected price to round trip, got %v", fetched.Price)
		}
		if fetched.Notes == nil || *fetched.Notes != "balayage" {
			t.Fatalf("expected notes to round trip, got %v", fetched.Notes)
		}

		fetched.Start = start.Add(2 * time.Hour)
		fetched.Notes = nil
		affected, err := store.UpdateAppointment(ctx, fetched)
		if err != nil || affected != 1 {
			t.Fatalf("UpdateAppointment returned %d, %v", affected, err)
		}
		fetched, err = store.GetAppointment(ctx, id)
		if err != nil {
			t.Fatalf("GetAppointment after update failed: %v", err)
		}
		if !fetched.Start.Equal(start.Add(2*time.Hour)) || fetched.Notes != nil {
			t.Fatalf("unexpected updated appointment: %#v", fetched)
		}

		count, err := store.CountAppointmentsForStaff(ctx, staffID)
		if err != nil || count != 1 {
			t.Fatalf("CountAppointmentsForStaff returned %d, %v", count, err)
		}
		if _, err := store.DeleteStaff(ctx, staffID); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected referenced staff delete to fail, got %v", err)
		}

		affected, err = store.DeleteAppointment(ctx, id)
		if err != nil || affected != 1 {
			t.Fatalf("DeleteAppointment returned %d, %v", affected, err)
		}
		affected, err = store.DeleteAppointment(ctx, id)
		if err != nil || affected != 0 {
			t.Fatalf("expected second delete to affect nothing, got %d, %v", affected, err)
		}
		if _, err := store.GetAppointment(ctx, id); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		affected, err = store.UpdateAppointment(ctx, fetched)
		if err != nil || affected != 0 {
			t.Fatalf("expected update of deleted appointment to affect nothing, got %d, %v", affected, err)
		}
	})

	t.Run("appointment requires known staff", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		_, err := store.CreateAppointment(ctx, NewAppointment("missing-staff", base.Add(9*time.Hour), 30))
		if !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("list filters by half-open range and staff", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		eddy, err := store.CreateStaff(ctx, NewStaff("Eddy", "#FF5722"))
		if err != nil {
			t.Fatalf("CreateStaff failed: %v", err)
		}
		luca, err := store.CreateStaff(ctx, NewStaff("Luca", "#2196F3"))
		if err != nil {
			t.Fatalf("CreateStaff failed: %v", err)
		}

		day := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
		fixtures := []persistence.Appointment{
			NewAppointment(eddy, day.Add(-30*time.Minute), 60),
			NewAppointment(eddy, day, 30),
			NewAppointment(luca, day.Add(10*time.Hour), 60),
			NewAppointment(eddy, day.Add(15*time.Hour), 90),
			NewAppointment(luca, day.Add(24*time.Hour), 30),
		}
		for _, fixture := range fixtures {
			if _, err := store.CreateAppointment(ctx, fixture); err != nil {
				t.Fatalf("CreateAppointment failed: %v", err)
			}
		}

		from, to := day, day.Add(24*time.Hour)
		all, err := store.ListAppointments(ctx, persistence.AppointmentFilter{From: &from, To: &to})
		if err != nil {
			t.Fatalf("ListAppointments failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 appointments in day, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i].Start.Before(all[i-1].Start) {
				t.Fatalf("expected ascending start order, got %v before %v", all[i-1].Start, all[i].Start)
			}
		}
		if all[1].StaffName != "Luca" {
			t.Fatalf("expected enrichment on list, got %q", all[1].StaffName)
		}

		onlyLuca, err := store.ListAppointments(ctx, persistence.AppointmentFilter{From: &from, To: &to, StaffIDs: []string{luca}})
		if err != nil {
			t.Fatalf("ListAppointments with staff failed: %v", err)
		}
		if len(onlyLuca) != 1 || onlyLuca[0].StaffID != luca {
			t.Fatalf("expected only Luca's appointment, got %#v", onlyLuca)
		}

		everything, err := store.ListAppointments(ctx, persistence.AppointmentFilter{})
		if err != nil {
			t.Fatalf("ListAppointments without filter failed: %v", err)
		}
		if len(everything) != len(fixtures) {
			t.Fatalf("expected %d appointments, got %d", len(fixtures), len(everything))
		}
	})

	t.Run("start keeps sub-second precision", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		staffID, err := store.CreateStaff(ctx, NewStaff("Giovanna", "#4CAF50"))
		if err != nil {
			t.Fatalf("CreateStaff failed: %v", err)
		}
		start := base.Add(10*time.Hour + 500*time.Millisecond)
		id, err := store.CreateAppointment(ctx, NewAppointment(staffID, start, 30))
		if err != nil {
			t.Fatalf("CreateAppointment failed: %v", err)
		}
		got, err := store.GetAppointment(ctx, id)
		if err != nil {
			t.Fatalf("GetAppointment failed: %v", err)
		}
		if !got.Start.Equal(start) {
			t.Fatalf("expected start %v, got %v", start, got.Start)
		}

		from := start
		to := start.Add(time.Millisecond)
		listed, err := store.ListAppointments(ctx, persistence.AppointmentFilter{From: &from, To: &to})
		if err != nil {
			t.Fatalf("ListAppointments failed: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != id {
			t.Fatalf("expected the sub-second appointment inside a one millisecond range, got %#v", listed)
		}
	})
}
