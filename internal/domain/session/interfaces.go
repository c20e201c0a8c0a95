package session

import (
	"context"
	"time"

	"trainingdesk/internal/domain/ledger"
	"trainingdesk/internal/domain/machine"
	"trainingdesk/internal/domain/member"
	"trainingdesk/internal/domain/scheduling"
	"trainingdesk/internal/domain/subscription"
)

// Store is the persistence boundary of the lifecycle manager. Every mutating
// operation runs against the Store handed to the InTx callback, so slot check,
// session write and credit movement commit or roll back together.
type Store interface {
	ledger.Store
	scheduling.Locker

	InTx(ctx context.Context, fn func(tx Store) error) error

	GetMachine(ctx context.Context, id int64) (*machine.Machine, error)

	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id int64) (*Session, error)
	// GetForUpdate reads the session and locks its row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int64) (*Session, error)
	UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error
	// UpdateFields applies patch and stamps updated_at with at.
	UpdateFields(ctx context.Context, id int64, patch Patch, at time.Time) error
	Delete(ctx context.Context, id int64) error

	GetMember(ctx context.Context, id int64) (*member.Member, error)
	FindOrCreateTrialMember(ctx context.Context, email, name, phone string) (*member.Member, error)
	// CountAttendedSessions counts the member's sessions that have started or completed.
	CountAttendedSessions(ctx context.Context, memberID int64) (int64, error)
	ActiveSubscriptionForMember(ctx context.Context, memberID int64, at time.Time) (*subscription.Subscription, error)

	// ListForMachine returns non-cancelled sessions on the machine overlapping [from, to).
	ListForMachine(ctx context.Context, machineID int64, from, to time.Time) ([]Session, error)
	// UncountedContractual returns, oldest first and locked, the member's non-cancelled
	// contractual sessions that no subscription has been debited for yet.
	UncountedContractual(ctx context.Context, memberID int64) ([]Session, error)
	// CountCompletedSince counts completed sessions starting at or after since.
	// A nil since counts all of them.
	CountCompletedSince(ctx context.Context, memberID int64, since *time.Time) (int64, error)
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	MachineID               *int64
	ScheduledStart          *time.Time
	ScheduledEnd            *time.Time
	TrainerID               *int64
	CountedInSubscriptionID *int64
	ClearCountedIn          bool
	Notes                   *string
}

func (p Patch) Empty() bool {
	return p.MachineID == nil && p.ScheduledStart == nil && p.ScheduledEnd == nil &&
		p.TrainerID == nil && p.CountedInSubscriptionID == nil && !p.ClearCountedIn && p.Notes == nil
}

// EventSink receives every committed command. Sinks must not block for long;
// their errors are logged and never fail the operation.
type EventSink interface {
	Publish(ctx context.Context, cmd Command) error
}
