package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour, "trainingdesk")

	token, err := svc.GenerateToken(42, RoleStaff)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, RoleStaff, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := New("secret", time.Hour, "trainingdesk")

	other, err := New("other-secret", time.Hour, "trainingdesk").GenerateToken(1, RoleStaff)
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := New("secret", time.Hour, "someone-else").GenerateToken(1, RoleStaff)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := New("secret", -time.Minute, "trainingdesk").GenerateToken(1, RoleStaff)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
