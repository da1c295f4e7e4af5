package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/persistence"
)

var (
	staffCounter       uint64
	appointmentCounter uint64
)

// referenceTime is a Monday morning so week and day fixtures line up.
var referenceTime = time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Staff fixtures -----------------------------

// StaffFixture is a deterministic staff member.
type StaffFixture struct {
	ID        string
	Name      string
	Color     string
	Phone     *string
	Active    bool
	CreatedAt time.Time
}

// StaffOption configures the generated staff fixture.
type StaffOption func(*StaffFixture)

// NewStaffFixture returns an active staff member with a unique name.
func NewStaffFixture(opts ...StaffOption) StaffFixture {
	idx := atomic.AddUint64(&staffCounter, 1)
	fixture := StaffFixture{
		ID:        fmt.Sprintf("staff-%03d", idx),
		Name:      fmt.Sprintf("Stylist %03d", idx),
		Color:     "#2196F3",
		Active:    true,
		CreatedAt: referenceTime.Add(-time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithStaffID(id string) StaffOption {
	return func(f *StaffFixture) { f.ID = id }
}

func WithStaffName(name string) StaffOption {
	return func(f *StaffFixture) { f.Name = name }
}

func WithStaffColor(color string) StaffOption {
	return func(f *StaffFixture) { f.Color = color }
}

func WithStaffPhone(phone string) StaffOption {
	return func(f *StaffFixture) { f.Phone = &phone }
}

// WithStaffInactive marks the fixture as deactivated.
func WithStaffInactive() StaffOption {
	return func(f *StaffFixture) { f.Active = false }
}

func (f StaffFixture) Application() application.Staff {
	return application.Staff{
		ID:        f.ID,
		Name:      f.Name,
		Color:     f.Color,
		Phone:     f.Phone,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

func (f StaffFixture) Persistence() persistence.Staff {
	return persistence.Staff{
		ID:        f.ID,
		Name:      f.Name,
		Color:     f.Color,
		Phone:     f.Phone,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// Input returns the fields a caller would submit to register the member.
func (f StaffFixture) Input() application.StaffInput {
	return application.StaffInput{Name: f.Name, Color: f.Color, Phone: f.Phone}
}

// -------------------------- Appointment fixtures --------------------------

// AppointmentFixture is a deterministic booking. It starts at ReferenceTime
// and lasts an hour unless overridden.
type AppointmentFixture struct {
	ID              string
	Title           string
	ClientName      string
	ClientEmail     *string
	StaffID         string
	Start           time.Time
	DurationMinutes int
	Price           *float64
	Status          string
	CreatedAt       time.Time
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*AppointmentFixture)

// NewAppointmentFixture returns a booking for staffID.
func NewAppointmentFixture(staffID string, opts ...AppointmentOption) AppointmentFixture {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	fixture := AppointmentFixture{
		ID:              fmt.Sprintf("appt-%03d", idx),
		Title:           "Cut and style",
		ClientName:      fmt.Sprintf("Client %03d", idx),
		StaffID:         staffID,
		Start:           referenceTime,
		DurationMinutes: 60,
		Status:          application.DefaultStatus,
		CreatedAt:       referenceTime.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithAppointmentID(id string) AppointmentOption {
	return func(f *AppointmentFixture) { f.ID = id }
}

func WithTitle(title string) AppointmentOption {
	return func(f *AppointmentFixture) { f.Title = title }
}

func WithClient(name string) AppointmentOption {
	return func(f *AppointmentFixture) { f.ClientName = name }
}

func WithClientEmail(email string) AppointmentOption {
	return func(f *AppointmentFixture) { f.ClientEmail = &email }
}

func WithStart(start time.Time) AppointmentOption {
	return func(f *AppointmentFixture) { f.Start = start }
}

// WithStartOffset shifts the start relative to ReferenceTime.
func WithStartOffset(d time.Duration) AppointmentOption {
	return func(f *AppointmentFixture) { f.Start = referenceTime.Add(d) }
}

func WithDuration(minutes int) AppointmentOption {
	return func(f *AppointmentFixture) { f.DurationMinutes = minutes }
}

func WithPrice(price float64) AppointmentOption {
	return func(f *AppointmentFixture) { f.Price = &price }
}

func WithStatus(status string) AppointmentOption {
	return func(f *AppointmentFixture) { f.Status = status }
}

func (f AppointmentFixture) Application() application.Appointment {
	return application.Appointment{
		ID:              f.ID,
		Title:           f.Title,
		ClientName:      f.ClientName,
		ClientEmail:     f.ClientEmail,
		StaffID:         f.StaffID,
		Start:           f.Start,
		DurationMinutes: f.DurationMinutes,
		Price:           f.Price,
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

func (f AppointmentFixture) Persistence() persistence.Appointment {
	return persistence.Appointment{
		ID:              f.ID,
		Title:           f.Title,
		ClientName:      f.ClientName,
		ClientEmail:     f.ClientEmail,
		StaffID:         f.StaffID,
		Start:           f.Start,
		DurationMinutes: f.DurationMinutes,
		Price:           f.Price,
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// Input returns the fields a caller would submit to book the appointment.
func (f AppointmentFixture) Input() application.AppointmentInput {
	return application.AppointmentInput{
		Title:           f.Title,
		ClientName:      f.ClientName,
		ClientEmail:     f.ClientEmail,
		StaffID:         f.StaffID,
		Start:           f.Start,
		DurationMinutes: f.DurationMinutes,
		Price:           f.Price,
		Status:          f.Status,
	}
}
