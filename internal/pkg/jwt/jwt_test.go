package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService("secret", "1h")

	tokenString, expiresAt, err := svc.GenerateAccessToken("user-1", "company-1")
	require.NoError(t, err)
	assert.NotZero(t, expiresAt)

	token, err := svc.JWTAuth().Decode(tokenString)
	require.NoError(t, err)
	companyID, _ := token.Get("company_id")
	tokenType, _ := token.Get("type")
	assert.Equal(t, "company-1", companyID)
	assert.Equal(t, TypeAccess, tokenType)
}

func TestGenerateAccessTokenBadDuration(t *testing.T) {
	svc := NewJWTService("secret", "forever")

	_, _, err := svc.GenerateAccessToken("user-1", "company-1")

	assert.Error(t, err)
}

func TestValidateSSEToken(t *testing.T) {
	svc := NewJWTService("secret", "1h")

	sseToken, expiresIn, err := svc.GenerateSSEToken("user-1", "company-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(sseToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateSSETokenRejectsAccessToken(t *testing.T) {
	svc := NewJWTService("secret", "1h")
	accessToken, _, err := svc.GenerateAccessToken("user-1", "company-1")
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(accessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateSSETokenWrongSecret(t *testing.T) {
	sseToken, _, err := NewJWTService("secret", "1h").GenerateSSEToken("user-1", "company-1")
	require.NoError(t, err)

	_, err = NewJWTService("other", "1h").ValidateSSEToken(sseToken)

	assert.Error(t, err)
}
