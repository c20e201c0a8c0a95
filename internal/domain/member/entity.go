package member

import (
	"strings"
	"time"
)

// Member is the participant of a training session. Master data is managed elsewhere;
// this subsystem only reads members and creates bare trial members.
type Member struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	Email           string     `json:"email" gorm:"uniqueIndex;not null"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone,omitempty"`
	LastCheckupAt   *time.Time `json:"last_checkup_at,omitempty"`
	LatestPaymentAt *time.Time `json:"latest_payment_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Member) TableName() string { return "members" }

// NormalizeEmail is the form under which emails are stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
