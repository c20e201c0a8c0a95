package settings

import (
	"time"

	"trainingdesk/internal/domain/planning"
)

// WorkingHours is the facility opening window for one weekday.
type WorkingHours struct {
	DayOfWeek int    `json:"day_of_week"` // 0=Sunday ... 6=Saturday
	OpenTime  string `json:"open_time"`   // "07:00"
	CloseTime string `json:"close_time"`  // "21:00"
	IsClosed  bool   `json:"is_closed"`
}

// Settings is the single facility-wide configuration row.
type Settings struct {
	ID                      int64          `json:"id" gorm:"primaryKey"`
	SubscriptionWarningDays int            `json:"subscription_warning_days" gorm:"not null"`
	BodyCheckupSessions     int            `json:"body_checkup_sessions" gorm:"not null"`
	PaymentReminderDays     int            `json:"payment_reminder_days" gorm:"not null"`
	OpeningHours            []WorkingHours `json:"opening_hours" gorm:"serializer:json"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

func (Settings) TableName() string { return "facility_settings" }

// Planning returns the indicator thresholds.
func (s *Settings) Planning() planning.Settings {
	return planning.Settings{
		SubscriptionWarningDays: s.SubscriptionWarningDays,
		BodyCheckupSessions:     s.BodyCheckupSessions,
		PaymentReminderDays:     s.PaymentReminderDays,
	}
}

// HoursFor returns the opening hours for the weekday of day.
// Days missing from the configuration are treated as closed.
func (s *Settings) HoursFor(day time.Time) WorkingHours {
	dow := int(day.Weekday())
	for _, h := range s.OpeningHours {
		if h.DayOfWeek == dow {
			return h
		}
	}
	return WorkingHours{DayOfWeek: dow, IsClosed: true}
}

// DefaultWorkingHours: Mon-Sat 07:00-21:00, Sunday closed.
func DefaultWorkingHours() []WorkingHours {
	hours := make([]WorkingHours, 7)
	for i := 0; i < 7; i++ {
		hours[i] = WorkingHours{
			DayOfWeek: i,
			OpenTime:  "07:00",
			CloseTime: "21:00",
			IsClosed:  i == 0,
		}
	}
	return hours
}

func Default() *Settings {
	return &Settings{
		SubscriptionWarningDays: 7,
		BodyCheckupSessions:     10,
		PaymentReminderDays:     30,
		OpeningHours:            DefaultWorkingHours(),
	}
}
