package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestJWT(accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestJWT(time.Minute, time.Hour)

	tok, _, err := m.GenerateAccessToken("user-1", "janed", "jane@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := m.ParseAccessToken(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "janed", claims.Username)
	require.Equal(t, "jane@x.com", claims.Email)
}

func TestTokensSignedWithIndependentSecrets(t *testing.T) {
	m := newTestJWT(time.Minute, time.Hour)

	access, refresh, err := m.GenerateTokenPair("user-1", "janed", "jane@x.com")
	require.NoError(t, err)

	// an access token must not validate as a refresh token and vice versa
	_, err = m.ParseRefreshToken(access)
	require.Error(t, err)
	_, err = m.ParseAccessToken(refresh)
	require.Error(t, err)
}

func TestParseAccessToken_Expired(t *testing.T) {
	m := newTestJWT(-time.Second, time.Hour)

	tok, _, err := m.GenerateAccessToken("user-1", "janed", "jane@x.com")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok)
	require.Error(t, err)
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	m := newTestJWT(time.Minute, time.Hour)
	other := &JWTManager{AccessSecret: []byte("different"), RefreshSecret: []byte("different"), AccessTTL: time.Minute, RefreshTTL: time.Hour}

	tok, _, err := m.GenerateAccessToken("user-1", "janed", "jane@x.com")
	require.NoError(t, err)

	_, err = other.ParseAccessToken(tok)
	require.Error(t, err)
}
