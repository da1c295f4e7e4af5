package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/example/salon-scheduler/internal/persistence"
)

func ptr[T any](v T) *T {
	return &v
}

func TestAppointmentDocumentRoundTripJoinsStaff(t *testing.T) {
	t.Parallel()

	rome := time.FixedZone("CET", 3600)
	start := time.Date(2024, time.May, 6, 10, 30, 0, 0, rome)
	doc := appointmentToDocument(persistence.Appointment{
		Title:           "Colour",
		ClientName:      "Bianchi",
		StaffID:         "staff-1",
		Start:           start,
		DurationMinutes: 90,
		Price:           ptr(70.0),
	})
	if doc.Start.Location() != time.UTC {
		t.Fatalf("expected start stored in UTC, got %v", doc.Start.Location())
	}
	if doc.Status != "scheduled" {
		t.Fatalf("expected default status, got %q", doc.Status)
	}

	doc.ID = primitive.NewObjectID()
	staff := map[string]persistence.Staff{"staff-1": {ID: "staff-1", Name: "Giovanna", Color: "#4CAF50"}}
	appointment := doc.toPersistence(staff)
	if appointment.ID != doc.ID.Hex() {
		t.Fatalf("expected hex id %s, got %s", doc.ID.Hex(), appointment.ID)
	}
	if !appointment.Start.Equal(start) {
		t.Fatalf("expected start %v, got %v", start, appointment.Start)
	}
	if appointment.StaffName != "Giovanna" || appointment.StaffColor != "#4CAF50" {
		t.Fatalf("expected staff join, got %q %q", appointment.StaffName, appointment.StaffColor)
	}

	orphan := doc.toPersistence(nil)
	if orphan.StaffName != "" || orphan.StaffColor != "" {
		t.Fatalf("expected empty staff details without a join, got %q %q", orphan.StaffName, orphan.StaffColor)
	}
}

func TestAppointmentUpdateUnsetsClearedFields(t *testing.T) {
	t.Parallel()

	set, unset := appointmentUpdate(persistence.Appointment{
		Title:           "Cut",
		ClientName:      "Rossi",
		StaffID:         "staff-1",
		Start:           time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Notes:           ptr("fringe only"),
	})
	if set["notes"] != "fringe only" {
		t.Fatalf("expected notes in $set, got %v", set["notes"])
	}
	for _, key := range []string{"client_phone", "client_email", "payment_method", "price"} {
		if _, ok := unset[key]; !ok {
			t.Fatalf("expected %s in $unset, got %v", key, unset)
		}
		if _, ok := set[key]; ok {
			t.Fatalf("expected %s absent from $set", key)
		}
	}

	update := updateDocument(set, unset)
	if _, ok := update["$unset"]; !ok {
		t.Fatalf("expected $unset stage, got %v", update)
	}
	if _, ok := updateDocument(map[string]any{"name": "x"}, nil)["$unset"]; ok {
		t.Fatalf("expected no $unset stage when nothing is cleared")
	}
}

func TestStaffDocumentMarshalsOptionalPhone(t *testing.T) {
	t.Parallel()

	raw, err := bson.Marshal(staffToDocument(persistence.Staff{Name: "Luca", Color: "#2196F3", Active: true}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded bson.M
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["phone"]; ok {
		t.Fatalf("expected phone omitted, got %v", decoded)
	}
	if _, ok := decoded["_id"]; ok {
		t.Fatalf("expected _id omitted so the server assigns one, got %v", decoded)
	}
}

func TestAppointmentQuery(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	t.Run("empty filter matches everything", func(t *testing.T) {
		t.Parallel()
		if query := appointmentQuery(persistence.AppointmentFilter{}); len(query) != 0 {
			t.Fatalf("expected empty query, got %v", query)
		}
	})

	t.Run("range is half open", func(t *testing.T) {
		t.Parallel()
		query := appointmentQuery(persistence.AppointmentFilter{From: &from, To: &to})
		start, ok := query["start"].(bson.M)
		if !ok {
			t.Fatalf("expected start clause, got %v", query)
		}
		gte, _ := start["$gte"].(time.Time)
		lt, _ := start["$lt"].(time.Time)
		if !gte.Equal(from) || !lt.Equal(to) {
			t.Fatalf("unexpected range clause: %v", start)
		}
	})

	t.Run("staff filter uses $in", func(t *testing.T) {
		t.Parallel()
		query := appointmentQuery(persistence.AppointmentFilter{StaffIDs: []string{"a", "b"}})
		clause, ok := query["staff_id"].(bson.M)
		if !ok {
			t.Fatalf("expected staff clause, got %v", query)
		}
		ids, ok := clause["$in"].([]string)
		if !ok || len(ids) != 2 {
			t.Fatalf("unexpected $in clause: %v", clause)
		}
	})
}

func TestMapError(t *testing.T) {
	t.Parallel()

	if !errors.Is(mapError(mongo.ErrNoDocuments), persistence.ErrNotFound) {
		t.Fatalf("expected ErrNoDocuments to map to ErrNotFound")
	}
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	if !errors.Is(mapError(dup), persistence.ErrDuplicate) {
		t.Fatalf("expected duplicate key to map to ErrDuplicate")
	}
	other := fmt.Errorf("socket closed")
	if mapError(other) != other {
		t.Fatalf("expected unrelated errors to pass through")
	}
	if mapError(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}
}

type rawCursor struct {
	docs []bson.Raw
	pos  int
}

func (c *rawCursor) Next(context.Context) bool {
	c.pos++
	return c.pos <= len(c.docs)
}

func (c *rawCursor) Decode(val any) error {
	return bson.Unmarshal(c.docs[c.pos-1], val)
}

func (c *rawCursor) Err() error { return nil }

func TestDecodeAppointmentsSkipsUndecodableDocuments(t *testing.T) {
	good := primitive.NewObjectID()
	bad := primitive.NewObjectID()
	start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

	var docs []bson.Raw
	for _, doc := range []bson.M{
		{"_id": good, "title": "Cut", "staff_id": "eddy", "start": start, "duration_minutes": 60},
		{"_id": bad, "title": "Colour", "staff_id": "eddy", "start": true, "duration_minutes": 30},
	} {
		raw, err := bson.Marshal(doc)
		if err != nil {
			t.Fatalf("failed to marshal document: %v", err)
		}
		docs = append(docs, raw)
	}

	var logs bytes.Buffer
	decoded, err := decodeAppointments(context.Background(), &rawCursor{docs: docs}, slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("decodeAppointments returned error: %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != good || !decoded[0].Start.Equal(start) {
		t.Fatalf("expected only the valid document, got %#v", decoded)
	}
	if !strings.Contains(logs.String(), "skipping undecodable appointment") || !strings.Contains(logs.String(), bad.Hex()) {
		t.Fatalf("expected the skipped document to be logged, got %s", logs.String())
	}
}
