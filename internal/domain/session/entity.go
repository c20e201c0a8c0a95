package session

import (
	"strings"
	"time"

	"trainingdesk/internal/domain/scheduling"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"

	// statusDeleted only appears in transition errors; it is never stored.
	statusDeleted Status = "deleted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Type classifies a session and decides its credit and participant rules.
type Type string

const (
	TypeTrial         Type = "trial"
	TypeMember        Type = "member"
	TypeContractual   Type = "contractual"
	TypeMakeup        Type = "makeup"
	TypeMultiSite     Type = "multi_site"
	TypeCollaboration Type = "collaboration"
	TypeNonBookable   Type = "non_bookable"
)

// Types lists every session type in display order.
var Types = []Type{
	TypeTrial, TypeMember, TypeContractual, TypeMakeup,
	TypeMultiSite, TypeCollaboration, TypeNonBookable,
}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// ConsumesCredit reports whether booking the type debits the member's subscription.
// Contractual sessions are debited later, when credits are assigned explicitly.
func (t Type) ConsumesCredit() bool {
	switch t {
	case TypeMember, TypeMakeup:
		return true
	case TypeTrial, TypeContractual, TypeMultiSite, TypeCollaboration, TypeNonBookable:
		return false
	default:
		panic("session: unknown type " + string(t))
	}
}

// Guest is an external participant who is not a registered member.
type Guest struct {
	Name   string `json:"name,omitempty" gorm:"size:255"`
	Email  string `json:"email,omitempty" gorm:"size:255"`
	Phone  string `json:"phone,omitempty" gorm:"size:64"`
	Origin string `json:"origin,omitempty" gorm:"size:255"` // partner gym or organisation
}

func (g Guest) IsZero() bool {
	return strings.TrimSpace(g.Name) == "" &&
		strings.TrimSpace(g.Email) == "" &&
		strings.TrimSpace(g.Phone) == "" &&
		strings.TrimSpace(g.Origin) == ""
}

// Session is one booking of a machine for a fixed window.
type Session struct {
	ID                      int64      `json:"id" gorm:"primaryKey"`
	MachineID               int64      `json:"machine_id" gorm:"not null;index:idx_sessions_machine_window,priority:1"`
	TrainerID               *int64     `json:"trainer_id,omitempty" gorm:"index"`
	ScheduledStart          time.Time  `json:"scheduled_start" gorm:"not null;index:idx_sessions_machine_window,priority:2"`
	ScheduledEnd            time.Time  `json:"scheduled_end" gorm:"not null"`
	Status                  Status     `json:"status" gorm:"type:varchar(16);not null;index"`
	Type                    Type       `json:"session_type" gorm:"column:session_type;type:varchar(24);not null"`
	MemberID                *int64     `json:"member_id,omitempty" gorm:"index"`
	Guest                   Guest      `json:"guest" gorm:"embedded;embeddedPrefix:guest_"`
	CountedInSubscriptionID *int64     `json:"counted_in_subscription_id,omitempty" gorm:"index"`
	Notes                   string     `json:"notes"`
	StartedAt               *time.Time `json:"started_at,omitempty"`
	CompletedAt             *time.Time `json:"completed_at,omitempty"`
	CancelledAt             *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (Session) TableName() string { return "training_sessions" }

func (s *Session) Window() scheduling.TimeSlot {
	return scheduling.TimeSlot{Start: s.ScheduledStart, End: s.ScheduledEnd}
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
