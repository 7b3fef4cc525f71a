package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(7, "alice", 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "copilotflow", claims.Issuer)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	InitJWT("secret-a")
	token, err := GenerateToken(1, "bob", 1)
	require.NoError(t, err)

	InitJWT("secret-b")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	InitJWT("test-secret")

	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestGenerateTokenRequiresInit(t *testing.T) {
	jwtSecret = nil
	defer InitJWT("test-secret")

	_, err := GenerateToken(1, "bob", 1)
	assert.Error(t, err)
}
