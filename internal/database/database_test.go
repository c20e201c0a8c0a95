package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestConnectAndMigrate_SQLite(t *testing.T) {
	db, err := Connect("file:database_test?mode=memory&cache=shared", Options{LogLevel: logger.Silent})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, Migrate(db))
	// idempotent
	require.NoError(t, Migrate(db))

	for _, table := range []string{"machines", "members", "subscriptions", "facility_settings", "training_sessions"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn("training_sessions", "guest_name"))
	assert.True(t, db.Migrator().HasColumn("training_sessions", "counted_in_subscription_id"))
}
