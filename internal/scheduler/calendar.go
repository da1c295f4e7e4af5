package scheduler

import (
	"sort"
	"time"
)

// StartOfDay returns local midnight of t in loc. A nil loc keeps t's location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Monday midnight of the week containing t.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	start := StartOfDay(t, loc)
	// Go counts Sunday as 0.
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	start := StartOfDay(t, loc)
	return time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
}

// WeekDays lists the seven Monday-start days of the week containing t.
func WeekDays(t time.Time, loc *time.Location) []time.Time {
	monday := StartOfWeek(t, loc)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// SameDay reports whether t falls on the calendar day of day, compared in
// day's location.
func SameDay(day, t time.Time) bool {
	t = t.In(day.Location())
	y1, m1, d1 := day.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DayBucket holds the blocks that start on one calendar day.
type DayBucket struct {
	Day    time.Time
	Blocks []Block
}

// BucketByDay groups blocks by the day their start falls on in loc, keeping the
// input order inside each bucket. Blocks without a start land in a bucket with
// a zero Day so LayoutDay can still report them.
func BucketByDay(blocks []Block, loc *time.Location) []DayBucket {
	index := make(map[time.Time]int)
	var buckets []DayBucket
	for _, block := range blocks {
		var day time.Time
		if !block.Start.IsZero() {
			day = StartOfDay(block.Start, loc)
		}
		i, ok := index[day]
		if !ok {
			buckets = append(buckets, DayBucket{Day: day})
			i = len(buckets) - 1
			index[day] = i
		}
		buckets[i].Blocks = append(buckets[i].Blocks, block)
	}
	sort.SliceStable(buckets, func(a, b int) bool {
		return buckets[a].Day.Before(buckets[b].Day)
	})
	return buckets
}
