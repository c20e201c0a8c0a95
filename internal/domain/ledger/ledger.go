// Package ledger moves session credits on a member's subscription.
//
// Subscriptions belong to billing; the ledger only increments or decrements
// used_sessions. Every call is expected to run inside the caller's transaction so
// that the debit commits or rolls back together with the session row that
// references it through counted_in_subscription_id.
package ledger

import (
	"context"

	"trainingdesk/internal/domain/subscription"
)

// Store is the subscription access the ledger needs. Implementations must be bound
// to the current transaction.
type Store interface {
	// GetSubscription reads the subscription row and holds a write lock on it
	// until the transaction ends.
	GetSubscription(ctx context.Context, id int64) (*subscription.Subscription, error)
	// AdjustUsedSessions adds delta to used_sessions. A positive delta is applied
	// only while it keeps used_sessions within total_sessions_snapshot; a negative
	// delta is floored at zero. applied is false when no row was changed.
	AdjustUsedSessions(ctx context.Context, id int64, delta int) (applied bool, err error)
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Consume debits one credit. It fails with *NoRemainingCreditsError when the
// subscription is exhausted.
func (l *Ledger) Consume(ctx context.Context, subscriptionID int64) error {
	sub, err := l.store.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.RemainingSessions() <= 0 {
		return exhausted(sub)
	}

	applied, err := l.store.AdjustUsedSessions(ctx, subscriptionID, 1)
	if err != nil {
		return err
	}
	if !applied {
		// lost a race with a writer that does not take the row lock
		return exhausted(sub)
	}
	return nil
}

// Restore gives one credit back to exactly the subscription that was debited.
// used_sessions never drops below zero.
func (l *Ledger) Restore(ctx context.Context, subscriptionID int64) error {
	if _, err := l.store.GetSubscription(ctx, subscriptionID); err != nil {
		return err
	}
	_, err := l.store.AdjustUsedSessions(ctx, subscriptionID, -1)
	return err
}

func exhausted(sub *subscription.Subscription) error {
	return &NoRemainingCreditsError{
		SubscriptionID: sub.ID,
		Total:          sub.TotalSessionsSnapshot,
		Used:           sub.UsedSessions,
	}
}
