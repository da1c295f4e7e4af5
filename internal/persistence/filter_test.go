package persistence

import (
	"testing"
	"time"
)

func TestAppointmentFilterMatches(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name    string
		filter  AppointmentFilter
		staffID string
		start   time.Time
		want    bool
	}{
		{name: "empty filter matches", staffID: "s1", start: from, want: true},
		{name: "from is inclusive", filter: AppointmentFilter{From: &from}, staffID: "s1", start: from, want: true},
		{name: "before from", filter: AppointmentFilter{From: &from}, staffID: "s1", start: from.Add(-time.Minute), want: false},
		{name: "to is exclusive", filter: AppointmentFilter{To: &to}, staffID: "s1", start: to, want: false},
		{name: "staff selected", filter: AppointmentFilter{StaffIDs: []string{"s2", "s1"}}, staffID: "s1", start: from, want: true},
		{name: "staff not selected", filter: AppointmentFilter{StaffIDs: []string{"s2"}}, staffID: "s1", start: from, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.filter.Matches(tc.staffID, tc.start); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
