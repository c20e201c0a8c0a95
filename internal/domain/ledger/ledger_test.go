package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"trainingdesk/internal/domain/subscription"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&subscription.Subscription{}))
	return db
}

func seedSubscription(t *testing.T, db *gorm.DB, total, used int) *subscription.Subscription {
	t.Helper()
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		MemberID:              1,
		Status:                subscription.StatusActive,
		StartDate:             now.AddDate(0, -1, 0),
		EndDate:               now.AddDate(0, 1, 0),
		TotalSessionsSnapshot: total,
		UsedSessions:          used,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func usedSessions(t *testing.T, db *gorm.DB, id int64) int {
	t.Helper()
	var sub subscription.Subscription
	require.NoError(t, db.First(&sub, id).Error)
	return sub.UsedSessions
}

func inTx(db *gorm.DB, fn func(l *Ledger) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(New(NewStore(tx)))
	})
}

func TestConsume_DebitsOneCredit(t *testing.T) {
	db := setupTestDB(t)
	sub := seedSubscription(t, db, 10, 9)
	ctx := context.Background()

	err := inTx(db, func(l *Ledger) error { return l.Consume(ctx, sub.ID) })
	require.NoError(t, err)
	assert.Equal(t, 10, usedSessions(t, db, sub.ID))

	err = inTx(db, func(l *Ledger) error { return l.Consume(ctx, sub.ID) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRemainingCredits)

	var credits *NoRemainingCreditsError
	require.True(t, errors.As(err, &credits))
	assert.Equal(t, sub.ID, credits.SubscriptionID)
	assert.Equal(t, 10, credits.Total)
	assert.Equal(t, 10, credits.Used)
	assert.Equal(t, 10, usedSessions(t, db, sub.ID))
}

func TestConsume_UnknownSubscription(t *testing.T) {
	db := setupTestDB(t)

	err := inTx(db, func(l *Ledger) error { return l.Consume(context.Background(), 404) })
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
}

func TestRestore_FloorsAtZero(t *testing.T) {
	db := setupTestDB(t)
	sub := seedSubscription(t, db, 5, 1)
	ctx := context.Background()

	require.NoError(t, inTx(db, func(l *Ledger) error { return l.Restore(ctx, sub.ID) }))
	assert.Equal(t, 0, usedSessions(t, db, sub.ID))

	require.NoError(t, inTx(db, func(l *Ledger) error { return l.Restore(ctx, sub.ID) }))
	assert.Equal(t, 0, usedSessions(t, db, sub.ID))
}

func TestConsume_RollsBackWithTransaction(t *testing.T) {
	db := setupTestDB(t)
	sub := seedSubscription(t, db, 3, 0)
	boom := errors.New("persist failed")

	err := inTx(db, func(l *Ledger) error {
		if err := l.Consume(context.Background(), sub.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, usedSessions(t, db, sub.ID))
}

func TestConsume_ConcurrentLastCredit(t *testing.T) {
	db := setupTestDB(t)
	sub := seedSubscription(t, db, 10, 9)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		exhausted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := inTx(db, func(l *Ledger) error { return l.Consume(ctx, sub.ID) })
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrNoRemainingCredits):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, exhausted)
	assert.Equal(t, 10, usedSessions(t, db, sub.ID))
}

func TestAdjustUsedSessions_RefusesOverdraw(t *testing.T) {
	db := setupTestDB(t)
	sub := seedSubscription(t, db, 2, 2)

	applied, err := NewStore(db).AdjustUsedSessions(context.Background(), sub.ID, 1)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 2, usedSessions(t, db, sub.ID))
}
