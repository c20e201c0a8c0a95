// Package planning computes the display warnings shown next to a training session.
// Everything here is pure: no storage, no clock, no errors.
package planning

import "time"

// Settings holds the thresholds configured by the facility.
type Settings struct {
	SubscriptionWarningDays int `json:"subscription_warning_days"`
	BodyCheckupSessions     int `json:"body_checkup_sessions"`
	PaymentReminderDays     int `json:"payment_reminder_days"`
}

// Data is the optional member context pulled from storage for one session.
// A nil field means the underlying fact is unknown and suppresses its indicator.
type Data struct {
	SubscriptionEndDate  *time.Time
	SessionsSinceCheckup *int
	LatestPaymentDate    *time.Time
}

type SubscriptionWarning struct {
	DaysRemaining int       `json:"days_remaining"`
	EndDate       time.Time `json:"end_date"`
}

type CheckupReminder struct {
	SessionsSinceCheckup int `json:"sessions_since_checkup"`
	Threshold            int `json:"threshold"`
}

type PaymentReminder struct {
	DaysSincePayment  int       `json:"days_since_payment"`
	LatestPaymentDate time.Time `json:"latest_payment_date"`
}

type Indicators struct {
	SubscriptionWarning *SubscriptionWarning `json:"subscription_warning,omitempty"`
	CheckupReminder     *CheckupReminder     `json:"checkup_reminder,omitempty"`
	PaymentReminder     *PaymentReminder     `json:"payment_reminder,omitempty"`
}

// Empty reports whether no indicator fired.
func (i Indicators) Empty() bool {
	return i.SubscriptionWarning == nil && i.CheckupReminder == nil && i.PaymentReminder == nil
}

// Compute evaluates every indicator for a session taking place on sessionDate.
//
// The subscription warning fires when the subscription ends between 0 and
// SubscriptionWarningDays calendar days after the session. The checkup reminder fires
// once SessionsSinceCheckup reaches BodyCheckupSessions; a non-positive threshold
// disables it. The payment reminder fires when at least PaymentReminderDays have passed
// since the latest payment, so a zero threshold fires for any recorded payment.
func Compute(data Data, sessionDate time.Time, settings Settings) Indicators {
	var out Indicators

	if data.SubscriptionEndDate != nil {
		days := DaysBetween(sessionDate, *data.SubscriptionEndDate)
		if days >= 0 && days <= settings.SubscriptionWarningDays {
			out.SubscriptionWarning = &SubscriptionWarning{
				DaysRemaining: days,
				EndDate:       *data.SubscriptionEndDate,
			}
		}
	}

	if settings.BodyCheckupSessions > 0 {
		count := 0
		if data.SessionsSinceCheckup != nil {
			count = *data.SessionsSinceCheckup
		}
		if count >= settings.BodyCheckupSessions {
			out.CheckupReminder = &CheckupReminder{
				SessionsSinceCheckup: count,
				Threshold:            settings.BodyCheckupSessions,
			}
		}
	}

	if data.LatestPaymentDate != nil {
		days := DaysBetween(*data.LatestPaymentDate, sessionDate)
		if days >= settings.PaymentReminderDays {
			out.PaymentReminder = &PaymentReminder{
				DaysSincePayment:  days,
				LatestPaymentDate: *data.LatestPaymentDate,
			}
		}
	}

	return out
}

// DaysBetween returns the number of calendar days from `from` to `to`.
// Each instant is reduced to its own calendar date first, so 23:59 → 00:01 is one day.
func DaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
