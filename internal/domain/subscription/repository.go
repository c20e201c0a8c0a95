package subscription

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository reads subscriptions for booking decisions and display.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Subscription, error)
	// GetActiveForMember returns the member's active subscription covering the day of at,
	// or nil when there is none. Subscriptions with credits left win over exhausted ones;
	// among equals the latest start wins.
	GetActiveForMember(ctx context.Context, memberID int64, at time.Time) (*Subscription, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Subscription, error) {
	var sub Subscription
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) GetActiveForMember(ctx context.Context, memberID int64, at time.Time) (*Subscription, error) {
	var subs []Subscription
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND status = ?", memberID, StatusActive).
		Order("start_date DESC, id DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}

	// Date coverage is checked in Go so SQLite and Postgres agree on calendar days.
	var exhausted *Subscription
	for i := range subs {
		if !subs[i].CoversDate(at) {
			continue
		}
		if subs[i].RemainingSessions() > 0 {
			return &subs[i], nil
		}
		if exhausted == nil {
			exhausted = &subs[i]
		}
	}
	return exhausted, nil
}
