package ledger

import (
	"errors"
	"fmt"
)

var ErrNoRemainingCredits = errors.New("subscription has no remaining sessions")

// NoRemainingCreditsError reports the balance observed when a debit was refused.
type NoRemainingCreditsError struct {
	SubscriptionID int64
	Total          int
	Used           int
}

func (e *NoRemainingCreditsError) Error() string {
	return fmt.Sprintf("subscription %d: %s (used %d of %d)", e.SubscriptionID, ErrNoRemainingCredits, e.Used, e.Total)
}

func (e *NoRemainingCreditsError) Unwrap() error { return ErrNoRemainingCredits }
