package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("sess-1", "+919595107293", "Vishwajeet Bhangare", true, "secret", 7)
	require.NoError(t, err)

	claims, err := ValidateSessionToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "+919595107293", claims.Phone)
	assert.True(t, claims.Master)

	_, err = ValidateSessionToken(token, "other")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExpiredSessionToken(t *testing.T) {
	token, err := GenerateSessionToken("sess-1", "+919130368298", "Shrikant Sathe", false, "secret", -1)
	require.NoError(t, err)

	_, err = ValidateSessionToken(token, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}
