package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// BusinessHours bounds the bookable ladder of a day. EndHour is exclusive.
type BusinessHours struct {
	StartHour       int
	EndHour         int
	IntervalMinutes int
}

// DefaultBusinessHours is a full-day grid with 30 minute granularity.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{StartHour: 0, EndHour: 24, IntervalMinutes: 30}
}

// Validate reports configuration errors.
func (h BusinessHours) Validate() error {
	var errs []error
	if h.StartHour < 0 || h.StartHour > 23 {
		errs = append(errs, fmt.Errorf("start hour %d out of range", h.StartHour))
	}
	if h.EndHour < 1 || h.EndHour > 24 {
		errs = append(errs, fmt.Errorf("end hour %d out of range", h.EndHour))
	}
	if h.StartHour >= h.EndHour {
		errs = append(errs, fmt.Errorf("start hour %d must be before end hour %d", h.StartHour, h.EndHour))
	}
	if h.IntervalMinutes <= 0 || 60%h.IntervalMinutes != 0 {
		errs = append(errs, fmt.Errorf("interval %d must divide an hour", h.IntervalMinutes))
	}
	return errors.Join(errs...)
}

// TimeSlot is one row of the day ladder.
type TimeSlot struct {
	Hour     int
	Minute   int
	Label    string
	Position float64
}

// GenerateSlots builds the ordered ladder for hours. It returns nil when hours
// do not validate.
func GenerateSlots(hours BusinessHours, slotHeight float64) []TimeSlot {
	if hours.Validate() != nil {
		return nil
	}
	perHour := 60 / hours.IntervalMinutes
	slots := make([]TimeSlot, 0, (hours.EndHour-hours.StartHour)*perHour)
	for hour := hours.StartHour; hour < hours.EndHour; hour++ {
		for minute := 0; minute < 60; minute += hours.IntervalMinutes {
			index := hour*perHour + minute/hours.IntervalMinutes
			slots = append(slots, TimeSlot{
				Hour:     hour,
				Minute:   minute,
				Label:    fmt.Sprintf("%02d:%02d", hour, minute),
				Position: float64(index) * slotHeight,
			})
		}
	}
	return slots
}

// SlotStart converts a clicked "HH:MM" label into an absolute time on day.
func SlotStart(day time.Time, label string) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(label, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("invalid slot label %q: %w", label, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid slot label %q", label)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}
