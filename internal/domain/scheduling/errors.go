package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrSlotConflict       = errors.New("machine is already booked for the selected time")
	ErrMachineUnavailable = errors.New("machine is not available for booking")
	ErrInvalidWindow      = errors.New("scheduled end must be after scheduled start")
)

// SlotConflictError carries the sessions that hold the requested window.
// Conflicts may be empty when the conflict was detected by a storage constraint.
type SlotConflictError struct {
	MachineID int64
	Conflicts []int64
}

func (e *SlotConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return fmt.Sprintf("machine %d: %s", e.MachineID, ErrSlotConflict)
	}
	return fmt.Sprintf("machine %d: %s (sessions %v)", e.MachineID, ErrSlotConflict, e.Conflicts)
}

func (e *SlotConflictError) Unwrap() error { return ErrSlotConflict }
