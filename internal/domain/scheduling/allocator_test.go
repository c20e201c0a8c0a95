package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trainingdesk/internal/domain/machine"
)

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) FindOverlapping(ctx context.Context, machineID int64, start, end time.Time, excludeID int64) ([]int64, error) {
	args := m.Called(ctx, machineID, start, end, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockLocker) LockMachine(ctx context.Context, machineID int64) (*machine.Machine, error) {
	args := m.Called(ctx, machineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*machine.Machine), args.Error(1)
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("free window", func(t *testing.T) {
		l := new(MockLocker)
		l.On("FindOverlapping", ctx, int64(1), at(10, 30), at(11, 0), int64(0)).Return(nil, nil)

		got, err := CheckAvailability(ctx, l, 1, at(10, 30), at(11, 0), 0)
		require.NoError(t, err)
		assert.True(t, got.Available)
		assert.Empty(t, got.Conflicts)
		l.AssertExpectations(t)
	})

	t.Run("occupied window lists conflicts", func(t *testing.T) {
		l := new(MockLocker)
		l.On("FindOverlapping", ctx, int64(1), at(10, 15), at(10, 45), int64(0)).Return([]int64{7}, nil)

		got, err := CheckAvailability(ctx, l, 1, at(10, 15), at(10, 45), 0)
		require.NoError(t, err)
		assert.False(t, got.Available)
		assert.Equal(t, []int64{7}, got.Conflicts)
	})

	t.Run("inverted window", func(t *testing.T) {
		l := new(MockLocker)
		_, err := CheckAvailability(ctx, l, 1, at(11, 0), at(10, 0), 0)
		assert.ErrorIs(t, err, ErrInvalidWindow)
		l.AssertNotCalled(t, "FindOverlapping")
	})
}

func TestAllocator_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("locks machine then checks", func(t *testing.T) {
		l := new(MockLocker)
		l.On("LockMachine", ctx, int64(1)).Return(&machine.Machine{ID: 1, IsAvailable: true}, nil).Once()
		l.On("FindOverlapping", ctx, int64(1), at(10, 30), at(11, 0), int64(0)).Return([]int64{}, nil).Once()

		err := NewAllocator(l).Reserve(ctx, 1, at(10, 30), at(11, 0), 0)
		require.NoError(t, err)
		l.AssertExpectations(t)
	})

	t.Run("conflict", func(t *testing.T) {
		l := new(MockLocker)
		l.On("LockMachine", ctx, int64(1)).Return(&machine.Machine{ID: 1, IsAvailable: true}, nil)
		l.On("FindOverlapping", ctx, int64(1), at(10, 15), at(10, 45), int64(0)).Return([]int64{3}, nil)

		err := NewAllocator(l).Reserve(ctx, 1, at(10, 15), at(10, 45), 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSlotConflict)

		var conflict *SlotConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, int64(1), conflict.MachineID)
		assert.Equal(t, []int64{3}, conflict.Conflicts)
	})

	t.Run("excluded session is passed through", func(t *testing.T) {
		l := new(MockLocker)
		l.On("LockMachine", ctx, int64(2)).Return(&machine.Machine{ID: 2, IsAvailable: true}, nil)
		l.On("FindOverlapping", ctx, int64(2), at(10, 0), at(10, 30), int64(9)).Return(nil, nil)

		require.NoError(t, NewAllocator(l).Reserve(ctx, 2, at(10, 0), at(10, 30), 9))
		l.AssertExpectations(t)
	})

	t.Run("unavailable machine", func(t *testing.T) {
		l := new(MockLocker)
		l.On("LockMachine", ctx, int64(3)).Return(&machine.Machine{ID: 3, IsAvailable: false}, nil)

		err := NewAllocator(l).Reserve(ctx, 3, at(10, 0), at(10, 30), 0)
		assert.ErrorIs(t, err, ErrMachineUnavailable)
		l.AssertNotCalled(t, "FindOverlapping")
	})

	t.Run("unknown machine", func(t *testing.T) {
		l := new(MockLocker)
		l.On("LockMachine", ctx, int64(4)).Return(nil, machine.ErrNotFound)

		err := NewAllocator(l).Reserve(ctx, 4, at(10, 0), at(10, 30), 0)
		assert.ErrorIs(t, err, machine.ErrNotFound)
	})
}
