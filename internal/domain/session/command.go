package session

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCreated        Kind = "session.created"
	KindStatusChanged  Kind = "session.status_changed"
	KindRescheduled    Kind = "session.rescheduled"
	KindDeleted        Kind = "session.deleted"
	KindCreditAssigned Kind = "session.credit_assigned"
	// KindUnchanged is returned by idempotent re-invocations that changed nothing.
	KindUnchanged Kind = "session.unchanged"
)

// Command describes one committed change to a session: the row before and after.
// Before is nil for creations and After is nil for deletions.
type Command struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	SessionID int64     `json:"session_id"`
	Before    *Session  `json:"before,omitempty"`
	After     *Session  `json:"after,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Cache is a caller-side view of sessions kept in sync by applying commands.
type Cache interface {
	Put(s Session)
	Remove(id int64)
}

func newCommand(kind Kind, id int64, before, after *Session, at time.Time) Command {
	return Command{
		ID:        uuid.New(),
		Kind:      kind,
		SessionID: id,
		Before:    before.clone(),
		After:     after.clone(),
		IssuedAt:  at,
	}
}

// Apply brings cache to the post-command state.
func (c Command) Apply(cache Cache) {
	if c.After != nil {
		cache.Put(*c.After)
		return
	}
	cache.Remove(c.SessionID)
}

// Revert undoes Apply, restoring the pre-command state.
func (c Command) Revert(cache Cache) {
	if c.Before != nil {
		cache.Put(*c.Before)
		return
	}
	cache.Remove(c.SessionID)
}

func (c Command) Unchanged() bool {
	return c.Kind == KindUnchanged
}
