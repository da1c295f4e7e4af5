package persistence

import "time"

// Matches reports whether an appointment starting at start for staffID passes
// the filter. Backends that cannot express the filter natively use it after
// loading.
func (f AppointmentFilter) Matches(staffID string, start time.Time) bool {
	if f.From != nil && start.Before(*f.From) {
		return false
	}
	if f.To != nil && !start.Before(*f.To) {
		return false
	}
	if len(f.StaffIDs) == 0 {
		return true
	}
	for _, id := range f.StaffIDs {
		if id == staffID {
			return true
		}
	}
	return false
}
