package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingdesk/internal/domain/scheduling"
)

func TestMapWriteError_ExclusionViolationIsSlotConflict(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23P01", ConstraintName: "training_sessions_no_overlap"}

	err := mapWriteError(fmt.Errorf("insert session: %w", pgErr), 3)

	var conflict *scheduling.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(3), conflict.MachineID)
	assert.ErrorIs(t, err, scheduling.ErrSlotConflict)
}

func TestMapWriteError_PassesOtherErrorsThrough(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	assert.Same(t, error(unique), mapWriteError(unique, 3))

	plain := errors.New("disk full")
	assert.Equal(t, plain, mapWriteError(plain, 3))
	assert.NoError(t, mapWriteError(nil, 3))
}
