package application

import (
	"time"

	"github.com/example/salon-scheduler/internal/scheduler"
)

// DefaultStatus is assigned to appointments created without a status.
const DefaultStatus = "scheduled"

// DurationPresets are the durations, in minutes, offered by the booking form.
// Any positive duration is accepted.
var DurationPresets = []int{30, 60, 90, 120, 150, 180}

// Appointment is a booking for one client with one staff member.
type Appointment struct {
	ID              string
	Title           string
	ClientName      string
	ClientPhone     *string
	ClientEmail     *string
	StaffID         string
	Start           time.Time
	DurationMinutes int
	Notes           *string
	Price           *float64
	Status          string
	PaymentMethod   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// StaffName and StaffColor are resolved from the staff registry on read.
	StaffName  string
	StaffColor string
}

// End is always derived from Start and DurationMinutes.
func (a Appointment) End() time.Time {
	return a.Start.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

func (a Appointment) block() scheduler.Block {
	return scheduler.Block{
		ID:              a.ID,
		StaffID:         a.StaffID,
		Start:           a.Start,
		DurationMinutes: a.DurationMinutes,
	}
}

// AppointmentInput captures caller provided fields for a new appointment.
type AppointmentInput struct {
	Title           string
	ClientName      string
	ClientPhone     *string
	ClientEmail     *string
	StaffID         string
	Start           time.Time
	DurationMinutes int
	Notes           *string
	Price           *float64
	Status          string
	PaymentMethod   *string
}

// AppointmentPatch lists the fields to change on an existing appointment. Nil
// fields keep their stored value. Optional string fields are cleared by an
// empty string.
type AppointmentPatch struct {
	Title           *string
	ClientName      *string
	ClientPhone     *string
	ClientEmail     *string
	StaffID         *string
	Start           *time.Time
	DurationMinutes *int
	Notes           *string
	Price           *float64
	ClearPrice      bool
	Status          *string
	PaymentMethod   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p AppointmentPatch) IsEmpty() bool {
	return p.Title == nil && p.ClientName == nil && p.ClientPhone == nil && p.ClientEmail == nil &&
		p.StaffID == nil && p.Start == nil && p.DurationMinutes == nil && p.Notes == nil &&
		p.Price == nil && !p.ClearPrice && p.Status == nil && p.PaymentMethod == nil
}

// ConflictWarning reports that an appointment overlaps another one for the
// same staff member. Warnings never block a write.
type ConflictWarning struct {
	AppointmentID     string
	WithAppointmentID string
	StaffID           string
	Start             time.Time
	End               time.Time
}

// AppointmentResult is a stored appointment and the overlaps it produced.
type AppointmentResult struct {
	Appointment Appointment
	Warnings    []ConflictWarning
}

// ListPeriod identifies the range preset requested for appointment listings.
type ListPeriod string

const (
	// ListPeriodNone indicates no preset; caller supplied explicit bounds.
	ListPeriodNone ListPeriod = ""
	// ListPeriodDay constrains results to a single day.
	ListPeriodDay ListPeriod = "day"
	// ListPeriodWeek constrains results to the Monday-start week containing the reference time.
	ListPeriodWeek ListPeriod = "week"
	// ListPeriodMonth constrains results to the month containing the reference time.
	ListPeriodMonth ListPeriod = "month"
)

// ListAppointmentsParams selects appointments by start time and staff. From is
// inclusive and To exclusive. A Period fills whichever bound is missing. An
// empty StaffIDs selects everyone.
type ListAppointmentsParams struct {
	From            *time.Time
	To              *time.Time
	Period          ListPeriod
	PeriodReference time.Time
	StaffIDs        []string
}

// AppointmentFilter narrows queries issued to the appointment repository.
type AppointmentFilter struct {
	From     *time.Time
	To       *time.Time
	StaffIDs []string
}

// AppointmentList is a listing and the overlaps found within it.
type AppointmentList struct {
	Appointments []Appointment
	Warnings     []ConflictWarning
}

// Staff is a service provider appointments can be assigned to.
type Staff struct {
	ID        string
	Name      string
	Color     string
	Phone     *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaffInput captures caller provided staff fields.
type StaffInput struct {
	Name  string
	Color string
	Phone *string
}

// PositionedAppointment is an appointment placed on the day grid.
type PositionedAppointment struct {
	Appointment Appointment
	Position    scheduler.Position
	Group       int
	Column      int
	Columns     int
}

// DayView is everything needed to render one calendar column. Sequence is the
// last change event observed before the data was loaded.
type DayView struct {
	Day          time.Time
	Slots        []scheduler.TimeSlot
	Appointments []PositionedAppointment
	Sequence     uint64
}

// WeekView is seven consecutive days starting on Monday.
type WeekView struct {
	Start    time.Time
	Days     []DayView
	Sequence uint64
}
