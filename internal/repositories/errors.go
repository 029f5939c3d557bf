package repositories

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSlotTaken is returned when a slot-locked write loses the slot to
	// another live appointment.
	ErrSlotTaken = errors.New("slot already taken")
)
