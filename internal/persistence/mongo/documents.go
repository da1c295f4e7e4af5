package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/salon-scheduler/internal/persistence"
)

type staffDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Color     string             `bson:"color"`
	Phone     *string            `bson:"phone,omitempty"`
	Active    bool               `bson:"active"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// appointmentDocument keeps staff_id as the hex string used everywhere else
// so filters can compare it directly.
type appointmentDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	ClientName      string             `bson:"client_name"`
	ClientPhone     *string            `bson:"client_phone,omitempty"`
	ClientEmail     *string            `bson:"client_email,omitempty"`
	StaffID         string             `bson:"staff_id"`
	Start           time.Time          `bson:"start"`
	DurationMinutes int                `bson:"duration_minutes"`
	Notes           *string            `bson:"notes,omitempty"`
	Price           *float64           `bson:"price,omitempty"`
	Status          string             `bson:"status"`
	PaymentMethod   *string            `bson:"payment_method,omitempty"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func staffToDocument(staff persistence.Staff) staffDocument {
	return staffDocument{
		Name:      staff.Name,
		Color:     staff.Color,
		Phone:     staff.Phone,
		Active:    staff.Active,
		CreatedAt: staff.CreatedAt.UTC(),
		UpdatedAt: staff.UpdatedAt.UTC(),
	}
}

func (d staffDocument) toPersistence() persistence.Staff {
	return persistence.Staff{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Color:     d.Color,
		Phone:     d.Phone,
		Active:    d.Active,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func appointmentToDocument(appointment persistence.Appointment) appointmentDocument {
	status := appointment.Status
	if status == "" {
		status = "scheduled"
	}
	return appointmentDocument{
		Title:           appointment.Title,
		ClientName:      appointment.ClientName,
		ClientPhone:     appointment.ClientPhone,
		ClientEmail:     appointment.ClientEmail,
		StaffID:         appointment.StaffID,
		Start:           appointment.Start.UTC(),
		DurationMinutes: appointment.DurationMinutes,
		Notes:           appointment.Notes,
		Price:           appointment.Price,
		Status:          status,
		PaymentMethod:   appointment.PaymentMethod,
		CreatedAt:       appointment.CreatedAt.UTC(),
		UpdatedAt:       appointment.UpdatedAt.UTC(),
	}
}

// toPersistence converts the document and joins staff when it is known.
func (d appointmentDocument) toPersistence(staff map[string]persistence.Staff) persistence.Appointment {
	appointment := persistence.Appointment{
		ID:              d.ID.Hex(),
		Title:           d.Title,
		ClientName:      d.ClientName,
		ClientPhone:     d.ClientPhone,
		ClientEmail:     d.ClientEmail,
		StaffID:         d.StaffID,
		Start:           d.Start.UTC(),
		DurationMinutes: d.DurationMinutes,
		Notes:           d.Notes,
		Price:           d.Price,
		Status:          d.Status,
		PaymentMethod:   d.PaymentMethod,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	if member, ok := staff[d.StaffID]; ok {
		appointment.StaffName = member.Name
		appointment.StaffColor = member.Color
	}
	return appointment
}

// appointmentUpdate is the $set document for UpdateAppointment. Optional
// fields that are nil go into $unset so a cleared value does not linger.
func appointmentUpdate(appointment persistence.Appointment) (set, unset map[string]any) {
	doc := appointmentToDocument(appointment)
	set = map[string]any{
		"title":            doc.Title,
		"client_name":      doc.ClientName,
		"staff_id":         doc.StaffID,
		"start":            doc.Start,
		"duration_minutes": doc.DurationMinutes,
		"status":           doc.Status,
		"updated_at":       doc.UpdatedAt,
	}
	unset = map[string]any{}
	optional := map[string]*string{
		"client_phone":   doc.ClientPhone,
		"client_email":   doc.ClientEmail,
		"notes":          doc.Notes,
		"payment_method": doc.PaymentMethod,
	}
	for key, value := range optional {
		if value != nil {
			set[key] = *value
		} else {
			unset[key] = ""
		}
	}
	if doc.Price != nil {
		set["price"] = *doc.Price
	} else {
		unset["price"] = ""
	}
	return set, unset
}

func staffUpdate(staff persistence.Staff) (set, unset map[string]any) {
	doc := staffToDocument(staff)
	set = map[string]any{
		"name":       doc.Name,
		"color":      doc.Color,
		"active":     doc.Active,
		"updated_at": doc.UpdatedAt,
	}
	unset = map[string]any{}
	if doc.Phone != nil {
		set["phone"] = *doc.Phone
	} else {
		unset["phone"] = ""
	}
	return set, unset
}
