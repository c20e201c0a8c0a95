package settings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func setupTestRepository(t *testing.T) Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:settings_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Settings{}))
	return NewRepository(db)
}

func TestGet_ReturnsDefaultsWhenEmpty(t *testing.T) {
	repo := setupTestRepository(t)

	s, err := repo.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Default().SubscriptionWarningDays, s.SubscriptionWarningDays)
	assert.Len(t, s.OpeningHours, 7)
}

func TestSaveThenGet(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	in := &Settings{
		SubscriptionWarningDays: 3,
		BodyCheckupSessions:     12,
		PaymentReminderDays:     45,
		OpeningHours: []WorkingHours{
			{DayOfWeek: 1, OpenTime: "06:00", CloseTime: "22:00"},
		},
	}
	require.NoError(t, repo.Save(ctx, in))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SubscriptionWarningDays)
	assert.Equal(t, 12, got.Planning().BodyCheckupSessions)
	require.Len(t, got.OpeningHours, 1)
	assert.Equal(t, "06:00", got.OpeningHours[0].OpenTime)
}

func TestHoursFor_MissingDayIsClosed(t *testing.T) {
	s := &Settings{OpeningHours: []WorkingHours{{DayOfWeek: 1, OpenTime: "06:00", CloseTime: "22:00"}}}

	monday := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	assert.False(t, s.HoursFor(monday).IsClosed)
	assert.True(t, s.HoursFor(tuesday).IsClosed)
}
