package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/salon-scheduler/internal/persistence"
)

// CreateAppointment inserts an appointment for an existing staff member.
func (s *Storage) CreateAppointment(ctx context.Context, appointment persistence.Appointment) (string, error) {
	if err := s.requireStaff(ctx, appointment.StaffID); err != nil {
		return "", err
	}
	result, err := s.appointments.InsertOne(ctx, appointmentToDocument(appointment))
	if err != nil {
		return "", mapError(err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetAppointment retrieves an appointment with its staff details.
func (s *Storage) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	var doc appointmentDocument
	if err := s.appointments.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return persistence.Appointment{}, mapError(err)
	}
	staff, err := s.staffByID(ctx, []string{doc.StaffID})
	if err != nil {
		return persistence.Appointment{}, err
	}
	return doc.toPersistence(staff), nil
}

// UpdateAppointment overwrites the mutable appointment fields.
func (s *Storage) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(appointment.ID)
	if err != nil {
		return 0, nil
	}
	if err := s.requireStaff(ctx, appointment.StaffID); err != nil {
		return 0, err
	}
	result, err := s.appointments.UpdateOne(ctx, bson.M{"_id": objectID}, updateDocument(appointmentUpdate(appointment)))
	if err != nil {
		return 0, mapError(err)
	}
	return result.MatchedCount, nil
}

// DeleteAppointment removes an appointment.
func (s *Storage) DeleteAppointment(ctx context.Context, id string) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	result, err := s.appointments.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return 0, mapError(err)
	}
	return result.DeletedCount, nil
}

// ListAppointments returns matching appointments ordered by start.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.appointments.Find(ctx, appointmentQuery(filter), opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cursor.Close(ctx)
	docs, err := decodeAppointments(ctx, cursor, s.logger)
	if err != nil {
		return nil, mapError(err)
	}

	staffIDs := make([]string, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if _, ok := seen[doc.StaffID]; ok {
			continue
		}
		seen[doc.StaffID] = struct{}{}
		staffIDs = append(staffIDs, doc.StaffID)
	}
	staff, err := s.staffByID(ctx, staffIDs)
	if err != nil {
		return nil, err
	}

	appointments := make([]persistence.Appointment, 0, len(docs))
	for _, doc := range docs {
		appointments = append(appointments, doc.toPersistence(staff))
	}
	return appointments, nil
}

// CountAppointmentsForStaff counts appointments assigned to a staff member.
func (s *Storage) CountAppointmentsForStaff(ctx context.Context, staffID string) (int, error) {
	count, err := s.appointments.CountDocuments(ctx, bson.M{"staff_id": staffID})
	if err != nil {
		return 0, mapError(err)
	}
	return int(count), nil
}

// documentCursor is the part of *mongo.Cursor used to decode one document at
// a time.
type documentCursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
}

// decodeAppointments skips documents that do not decode so one bad record
// cannot hide the rest of a listing.
func decodeAppointments(ctx context.Context, cursor documentCursor, logger *slog.Logger) ([]appointmentDocument, error) {
	docs := make([]appointmentDocument, 0)
	for cursor.Next(ctx) {
		var doc appointmentDocument
		if err := cursor.Decode(&doc); err != nil {
			var ref struct {
				ID any `bson:"_id"`
			}
			_ = cursor.Decode(&ref)
			logger.WarnContext(ctx, "skipping undecodable appointment", "appointment_id", fmt.Sprint(ref.ID), "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, cursor.Err()
}
