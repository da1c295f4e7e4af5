package scheduler

import "time"

// Block is the scheduling view of an appointment: who, when and for how long.
type Block struct {
	ID              string
	StaffID         string
	Start           time.Time
	DurationMinutes int
}

// End returns the derived end of the block.
func (b Block) End() time.Time {
	return b.Start.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two blocks intersect using half-open intervals, so a
// block ending exactly when another starts does not overlap it.
func (b Block) Overlaps(other Block) bool {
	return Overlaps(b.Start, b.End(), other.Start, other.End())
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func (b Block) valid() bool {
	return !b.Start.IsZero() && b.DurationMinutes > 0
}
