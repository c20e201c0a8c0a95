package scheduling

import (
	"context"
	"time"

	"trainingdesk/internal/domain/machine"
)

// Finder lists the non-cancelled sessions on a machine overlapping [start, end).
// excludeID > 0 leaves that session out (used when moving a session).
type Finder interface {
	FindOverlapping(ctx context.Context, machineID int64, start, end time.Time, excludeID int64) ([]int64, error)
}

// Locker is a Finder bound to an open transaction that can also lock the machine row.
type Locker interface {
	Finder
	LockMachine(ctx context.Context, machineID int64) (*machine.Machine, error)
}

type Availability struct {
	Available bool    `json:"available"`
	Conflicts []int64 `json:"conflicts"`
}

// CheckAvailability is the read-only check. Its answer may be stale by the time the
// caller acts on it; use Allocator.Reserve to book.
func CheckAvailability(ctx context.Context, f Finder, machineID int64, start, end time.Time, excludeID int64) (Availability, error) {
	if !end.After(start) {
		return Availability{}, ErrInvalidWindow
	}
	ids, err := f.FindOverlapping(ctx, machineID, start, end, excludeID)
	if err != nil {
		return Availability{}, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return Availability{Available: len(ids) == 0, Conflicts: ids}, nil
}

// Allocator reserves machine windows. It must be built on a transaction-scoped Locker:
// the machine row lock taken by Reserve is what keeps two overlapping reservations
// from both observing a free window.
type Allocator struct {
	tx Locker
}

func NewAllocator(tx Locker) *Allocator {
	return &Allocator{tx: tx}
}

// Reserve locks the machine and verifies [start, end) is free on it. The reservation
// itself is the session row the caller inserts before the transaction commits.
func (a *Allocator) Reserve(ctx context.Context, machineID int64, start, end time.Time, excludeID int64) error {
	if !end.After(start) {
		return ErrInvalidWindow
	}

	m, err := a.tx.LockMachine(ctx, machineID)
	if err != nil {
		return err
	}
	if !m.IsAvailable {
		return ErrMachineUnavailable
	}

	avail, err := CheckAvailability(ctx, a.tx, machineID, start, end, excludeID)
	if err != nil {
		return err
	}
	if !avail.Available {
		return &SlotConflictError{MachineID: machineID, Conflicts: avail.Conflicts}
	}
	return nil
}
