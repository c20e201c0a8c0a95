package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trainingdesk/internal/domain/subscription"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store over db. Pass the transaction handle, not the pool.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetSubscription(ctx context.Context, id int64) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sub, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) AdjustUsedSessions(ctx context.Context, id int64, delta int) (bool, error) {
	q := s.db.WithContext(ctx).Model(&subscription.Subscription{})

	var res *gorm.DB
	if delta >= 0 {
		res = q.Where("id = ? AND used_sessions + ? <= total_sessions_snapshot", id, delta).
			Updates(map[string]any{
				"used_sessions": gorm.Expr("used_sessions + ?", delta),
				"updated_at":    time.Now().UTC(),
			})
	} else {
		res = q.Where("id = ?", id).
			Updates(map[string]any{
				"used_sessions": gorm.Expr("CASE WHEN used_sessions + ? < 0 THEN 0 ELSE used_sessions + ? END", delta, delta),
				"updated_at":    time.Now().UTC(),
			})
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
