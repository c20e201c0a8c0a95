package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache map[int64]Session

func (c mapCache) Put(s Session)   { c[s.ID] = s }
func (c mapCache) Remove(id int64) { delete(c, id) }

func TestCommand_ApplyRevert(t *testing.T) {
	now := time.Now().UTC()
	scheduled := &Session{ID: 1, MachineID: 1, Status: StatusScheduled}
	started := &Session{ID: 1, MachineID: 1, Status: StatusInProgress}

	t.Run("create", func(t *testing.T) {
		cache := mapCache{}
		cmd := newCommand(KindCreated, 1, nil, scheduled, now)

		cmd.Apply(cache)
		require.Contains(t, cache, int64(1))
		assert.Equal(t, StatusScheduled, cache[1].Status)

		cmd.Revert(cache)
		assert.NotContains(t, cache, int64(1))
	})

	t.Run("status change", func(t *testing.T) {
		cache := mapCache{1: *scheduled}
		cmd := newCommand(KindStatusChanged, 1, scheduled, started, now)

		cmd.Apply(cache)
		assert.Equal(t, StatusInProgress, cache[1].Status)

		cmd.Revert(cache)
		assert.Equal(t, StatusScheduled, cache[1].Status)
	})

	t.Run("delete", func(t *testing.T) {
		cache := mapCache{1: *started}
		cmd := newCommand(KindDeleted, 1, started, nil, now)

		cmd.Apply(cache)
		assert.NotContains(t, cache, int64(1))

		cmd.Revert(cache)
		assert.Equal(t, StatusInProgress, cache[1].Status)
	})
}

func TestCommand_SnapshotsAreCopies(t *testing.T) {
	s := &Session{ID: 5, Status: StatusScheduled}
	cmd := newCommand(KindCreated, 5, nil, s, time.Now())

	s.Status = StatusCancelled
	assert.Equal(t, StatusScheduled, cmd.After.Status)
	assert.NotEqual(t, cmd.ID.String(), newCommand(KindCreated, 5, nil, s, time.Now()).ID.String())
}

func TestTransitionsTable(t *testing.T) {
	all := []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}
	allowed := map[[2]Status]bool{
		{StatusScheduled, StatusInProgress}: true,
		{StatusScheduled, StatusCancelled}:  true,
		{StatusInProgress, StatusCompleted}: true,
		{StatusInProgress, StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusScheduled.Terminal())
	assert.False(t, StatusInProgress.Terminal())
}

func TestType_ConsumesCredit(t *testing.T) {
	for _, typ := range Types {
		want := typ == TypeMember || typ == TypeMakeup
		assert.Equal(t, want, typ.ConsumesCredit(), string(typ))
	}
	assert.False(t, Type("yoga").Valid())
}
