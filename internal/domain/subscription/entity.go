package subscription

import "time"

// Status of a subscription. Subscriptions are owned by billing; booking only
// reads them and moves the used_sessions counter.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Subscription is a prepaid bundle of training sessions held by one member.
type Subscription struct {
	ID                    int64     `json:"id" gorm:"primaryKey"`
	MemberID              int64     `json:"member_id" gorm:"not null;index"`
	Status                Status    `json:"status" gorm:"type:varchar(16);not null;index"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"`
	TotalSessionsSnapshot int       `json:"total_sessions_snapshot" gorm:"not null"`
	UsedSessions          int       `json:"used_sessions" gorm:"not null"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

// RemainingSessions is the number of credits still available.
func (s *Subscription) RemainingSessions() int {
	return s.TotalSessionsSnapshot - s.UsedSessions
}

// CoversDate reports whether the subscription is active on the calendar day of t.
func (s *Subscription) CoversDate(t time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(s.StartDate.Year(), s.StartDate.Month(), s.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(s.EndDate.Year(), s.EndDate.Month(), s.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}
