package persistence

import "time"

// Staff is a service provider stored by a backend.
type Staff struct {
	ID        string
	Name      string
	Color     string
	Phone     *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is a stored booking. StaffName and StaffColor are filled on reads
// from the referenced staff record and ignored on writes. The end of an
// appointment is never stored; it is derived from Start and DurationMinutes.
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

	StaffName  string
	StaffColor string
}
