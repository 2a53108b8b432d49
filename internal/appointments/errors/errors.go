package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrSlotTaken is the unique index on active (doctor, dateTime) pairs firing.
	ErrSlotTaken = errors.New("time slot already booked")

	// ErrStaleState means the document changed between read and conditional write.
	ErrStaleState = errors.New("appointment was modified concurrently")
)
