package member

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:member_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Member{}))
	return db
}

func TestFindOrCreate_CreatesThenFinds(t *testing.T) {
	dir := NewDirectory(setupTestDB(t))
	ctx := context.Background()

	m, created, err := dir.FindOrCreate(ctx, "  Trial@Example.com ", " Tina ", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "trial@example.com", m.Email)
	assert.Equal(t, "Tina", m.Name)

	again, created, err := dir.FindOrCreate(ctx, "trial@example.com", "Other", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)
}

func TestFindOrCreate_InvalidEmail(t *testing.T) {
	dir := NewDirectory(setupTestDB(t))

	_, _, err := dir.FindOrCreate(context.Background(), "   ", "x", "")

	assert.ErrorIs(t, err, ErrInvalidEmail)
}

// A concurrent writer registered the email between lookup and insert: the insert
// must yield the stored member and leave the transaction usable.
func TestInsertOrGet_ConflictKeepsTransactionUsable(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stored := &Member{Email: "race@example.com", Name: "First"}
	require.NoError(t, db.Create(stored).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		d := &directory{db: tx}

		got, created, err := d.insertOrGet(ctx, &Member{Email: "race@example.com", Name: "Second"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, stored.ID, got.ID)
		assert.Equal(t, "First", got.Name)

		// the transaction still accepts statements
		other := &Member{Email: "next@example.com"}
		return tx.Create(other).Error
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&Member{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}
