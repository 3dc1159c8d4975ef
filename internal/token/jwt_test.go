package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriflow/identity/internal/model"
)

func TestJWT_GenerateAndParseSessionToken(t *testing.T) {
	manager := NewJWT("test-secret", time.Hour)
	accountID := uuid.New()

	tokenString, err := manager.GenerateSessionToken(accountID)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsedID, err := manager.ParseSessionToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, accountID, parsedID)
}

func TestJWT_ParseSessionToken_WrongSecret(t *testing.T) {
	manager := NewJWT("test-secret", time.Hour)
	other := NewJWT("other-secret", time.Hour)

	tokenString, err := manager.GenerateSessionToken(uuid.New())
	require.NoError(t, err)

	_, err = other.ParseSessionToken(tokenString)
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestJWT_ParseSessionToken_Expired(t *testing.T) {
	manager := NewJWT("test-secret", -time.Minute)

	tokenString, err := manager.GenerateSessionToken(uuid.New())
	require.NoError(t, err)

	_, err = manager.ParseSessionToken(tokenString)
	assert.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestJWT_ParseSessionToken_Garbage(t *testing.T) {
	manager := NewJWT("test-secret", time.Hour)

	_, err := manager.ParseSessionToken("not-a-token")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}
