package services

import (
	"fmt"
	"time"

	"clinic-crm-server/internal/config"
)

// SlotPolicy defines when the clinic accepts bookings: which weekday is
// closed, the working window (inclusive of both bounds) and the default
// slot step. It is pure configuration with no state.
type SlotPolicy struct {
	ClosedWeekday time.Weekday
	StartMinutes  int // minutes after midnight, e.g. 540 for 09:00
	EndMinutes    int // e.g. 1080 for 18:00
	SlotMinutes   int
}

// DefaultSlotPolicy is the clinic's standing schedule: Monday to Saturday,
// 09:00 to 18:00, 30-minute slots.
func DefaultSlotPolicy() SlotPolicy {
	return SlotPolicy{
		ClosedWeekday: time.Sunday,
		StartMinutes:  9 * 60,
		EndMinutes:    18 * 60,
		SlotMinutes:   30,
	}
}

// NewSlotPolicy builds a policy from clinic configuration, falling back to
// the defaults for any value that does not parse.
func NewSlotPolicy(cfg config.ClinicConfig) SlotPolicy {
	policy := DefaultSlotPolicy()
	if start, err := ParseClock(cfg.WorkingStart); err == nil {
		policy.StartMinutes = start
	}
	if end, err := ParseClock(cfg.WorkingEnd); err == nil {
		policy.EndMinutes = end
	}
	if cfg.SlotMinutes > 0 {
		policy.SlotMinutes = cfg.SlotMinutes
	}
	return policy
}

// ParseClock converts "HH:MM" to minutes after midnight. The input must be
// exactly two digits, a colon and two digits.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid clock value %q", s)
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes after midnight to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IsWorkingDay reports whether the clinic is open on the given date.
func (p SlotPolicy) IsWorkingDay(date time.Time) bool {
	return date.Weekday() != p.ClosedWeekday
}

// IsWorkingTime reports whether the slot falls on a working day inside the
// working window. Both window bounds are inclusive.
func (p SlotPolicy) IsWorkingTime(date time.Time, timeOfDay string) bool {
	if !p.IsWorkingDay(date) {
		return false
	}
	minutes, err := ParseClock(timeOfDay)
	if err != nil {
		return false
	}
	return minutes >= p.StartMinutes && minutes <= p.EndMinutes
}

// Slots returns every slot start time for the given duration, ordered,
// such that slot start + duration still fits inside the working window.
func (p SlotPolicy) Slots(durationMinutes int) []string {
	if durationMinutes <= 0 {
		durationMinutes = p.SlotMinutes
	}
	var slots []string
	for start := p.StartMinutes; start+durationMinutes <= p.EndMinutes; start += durationMinutes {
		slots = append(slots, FormatClock(start))
	}
	return slots
}
