package scheduler

import "time"

// Conflict details a same-staff overlap that callers can present as a warning.
type Conflict struct {
	WithID  string
	StaffID string
	Start   time.Time
	End     time.Time
}

// DetectConflicts returns the existing blocks booked for the candidate's staff
// member whose interval overlaps the candidate. The candidate itself is skipped
// when present in existing, so it can be used for moves and updates.
func DetectConflicts(existing []Block, candidate Block) []Conflict {
	if !candidate.valid() || candidate.StaffID == "" {
		return nil
	}

	var conflicts []Conflict
	for _, block := range existing {
		if block.StaffID != candidate.StaffID {
			continue
		}
		if candidate.ID != "" && block.ID == candidate.ID {
			continue
		}
		if !block.valid() || !candidate.Overlaps(block) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithID:  block.ID,
			StaffID: block.StaffID,
			Start:   block.Start,
			End:     block.End(),
		})
	}
	return conflicts
}
