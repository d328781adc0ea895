package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, expiresIn, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateSSEToken_RejectsOtherTokens(t *testing.T) {
	svc := NewJWTService("test-secret")

	access, _, err := svc.GenerateAccessToken("user-1", RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, _, err := NewJWTService("other-secret").GenerateSSEToken("user-1")
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTService("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := expired.GenerateSSEToken("user-1")
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateAccessToken_Claims(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, _, err := svc.GenerateAccessToken("user-1", RoleOperator, time.Hour)
	require.NoError(t, err)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "operator", claims["role"])
	assert.Equal(t, TokenTypeAccess, claims["type"])
}
