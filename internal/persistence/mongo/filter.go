package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/example/salon-scheduler/internal/persistence"
)

// appointmentQuery translates the half-open range and staff filter to BSON.
func appointmentQuery(filter persistence.AppointmentFilter) bson.M {
	query := bson.M{}
	start := bson.M{}
	if filter.From != nil {
		start["$gte"] = filter.From.UTC()
	}
	if filter.To != nil {
		start["$lt"] = filter.To.UTC()
	}
	if len(start) > 0 {
		query["start"] = start
	}
	if len(filter.StaffIDs) > 0 {
		ids := make([]string, len(filter.StaffIDs))
		copy(ids, filter.StaffIDs)
		query["staff_id"] = bson.M{"$in": ids}
	}
	return query
}

func updateDocument(set, unset map[string]any) bson.M {
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
