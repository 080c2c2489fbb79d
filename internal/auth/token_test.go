package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	signed, err := tokens.Generate(42)
	require.NoError(t, err)

	claims, err := tokens.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokens("secret-a", time.Hour).Generate(42)
	require.NoError(t, err)

	_, err = NewTokens("secret-b", time.Hour).Validate(signed)
	require.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	signed, err := NewTokens("test-secret", -time.Minute).Generate(42)
	require.NoError(t, err)

	_, err = NewTokens("test-secret", time.Hour).Validate(signed)
	require.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewTokens("test-secret", time.Hour).Validate("not-a-token")
	require.Error(t, err)
}
