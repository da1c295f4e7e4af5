// Package notify fans out change events so open calendar views can refresh.
// Delivery is best effort: a slow subscriber loses events rather than
// blocking the writer, and clients compare sequence numbers to detect gaps.
package notify

import (
	"context"
	"time"
)

// EventType names a change to the schedule.
type EventType string

const (
	AppointmentCreated EventType = "appointment.created"
	AppointmentUpdated EventType = "appointment.updated"
	AppointmentMoved   EventType = "appointment.moved"
	AppointmentDeleted EventType = "appointment.deleted"
	StaffChanged       EventType = "staff.changed"
)

// Event describes one committed change. Day is the calendar day (YYYY-MM-DD)
// of the affected appointment, empty for staff changes.
type Event struct {
	Type          EventType `json:"type"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	StaffID       string    `json:"staff_id,omitempty"`
	Day           string    `json:"day,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	Seq           uint64    `json:"seq"`
	Origin        string    `json:"origin,omitempty"`
}

// Publisher accepts events after a change has been stored.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Discard drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, Event) error { return nil }
