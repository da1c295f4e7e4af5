package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/salon-scheduler/internal/persistence"
)

// CreateStaff inserts a staff member and returns its ObjectID in hex.
func (s *Storage) CreateStaff(ctx context.Context, staff persistence.Staff) (string, error) {
	result, err := s.staff.InsertOne(ctx, staffToDocument(staff))
	if err != nil {
		return "", mapError(err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetStaff retrieves a staff member. Malformed ids are reported as not found.
func (s *Storage) GetStaff(ctx context.Context, id string) (persistence.Staff, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return persistence.Staff{}, persistence.ErrNotFound
	}
	var doc staffDocument
	if err := s.staff.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return persistence.Staff{}, mapError(err)
	}
	return doc.toPersistence(), nil
}

// UpdateStaff overwrites the mutable staff fields.
func (s *Storage) UpdateStaff(ctx context.Context, staff persistence.Staff) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(staff.ID)
	if err != nil {
		return 0, nil
	}
	result, err := s.staff.UpdateOne(ctx, bson.M{"_id": objectID}, updateDocument(staffUpdate(staff)))
	if err != nil {
		return 0, mapError(err)
	}
	return result.MatchedCount, nil
}

// DeleteStaff removes a staff member that no appointment references. Without
// a replica set there is no transaction, so an appointment inserted between
// the check and the delete is not detected.
func (s *Storage) DeleteStaff(ctx context.Context, id string) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	referenced, err := s.CountAppointmentsForStaff(ctx, id)
	if err != nil {
		return 0, err
	}
	if referenced > 0 {
		return 0, persistence.ErrForeignKeyViolation
	}
	result, err := s.staff.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return 0, mapError(err)
	}
	return result.DeletedCount, nil
}

// ListStaff returns every staff member ordered by name, ignoring case.
func (s *Storage) ListStaff(ctx context.Context) ([]persistence.Staff, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})
	return s.findStaff(ctx, bson.M{}, opts)
}

func (s *Storage) findStaff(ctx context.Context, query bson.M, opts ...*options.FindOptions) ([]persistence.Staff, error) {
	cursor, err := s.staff.Find(ctx, query, opts...)
	if err != nil {
		return nil, mapError(err)
	}
	var docs []staffDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}
	staff := make([]persistence.Staff, 0, len(docs))
	for _, doc := range docs {
		staff = append(staff, doc.toPersistence())
	}
	return staff, nil
}

// staffByID loads the staff members with the given hex ids. Ids that are not
// valid ObjectIDs cannot exist and are skipped.
func (s *Storage) staffByID(ctx context.Context, ids []string) (map[string]persistence.Staff, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objectID, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, objectID)
		}
	}
	result := make(map[string]persistence.Staff, len(objectIDs))
	if len(objectIDs) == 0 {
		return result, nil
	}
	staff, err := s.findStaff(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, err
	}
	for _, member := range staff {
		result[member.ID] = member
	}
	return result, nil
}

func (s *Storage) requireStaff(ctx context.Context, id string) error {
	if _, err := s.GetStaff(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.ErrForeignKeyViolation
		}
		return err
	}
	return nil
}
