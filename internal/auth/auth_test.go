package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"script-analysis-backend/internal/auth"
	"script-analysis-backend/internal/config"
)

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, auth.CheckPassword("correct horse battery staple", hash))
	assert.False(t, auth.CheckPassword("correct horse battery", hash))
	assert.False(t, auth.CheckPassword("correct horse battery staple", "not-a-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := auth.IssueToken("test-secret", userID, "ann@example.com", "ann", time.Hour)
	require.NoError(t, err)

	identity, err := auth.ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), identity.UserID)
	assert.Equal(t, "ann@example.com", identity.Email)
	assert.Equal(t, "ann", identity.Username)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := auth.IssueToken("test-secret", uuid.New(), "ann@example.com", "ann", time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken("another-secret", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := auth.IssueToken("test-secret", uuid.New(), "ann@example.com", "ann", -time.Minute)
	require.NoError(t, err)

	_, err = auth.ParseToken("test-secret", token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := auth.ParseToken("test-secret", "not.a.token")
	assert.Error(t, err)
}

func TestParseTokenRejectsNonHMAC(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = auth.ParseToken("test-secret", signed)
	assert.Error(t, err)
}

func TestVerifyState(t *testing.T) {
	assert.True(t, auth.VerifyState("a1b2c3d4e5f60718293a4b5c6d7e8f90"))
	assert.False(t, auth.VerifyState("too-short"))
	assert.False(t, auth.VerifyState("a1b2c3d4e5f60718293a4b5c6d7e8f9!"))
	assert.False(t, auth.VerifyState(""))
}

func TestAuthURLGoogle(t *testing.T) {
	cfg := &config.Config{
		GoogleClientID:     "google-client",
		GoogleClientSecret: "google-secret",
		GoogleRedirectURI:  "http://localhost:8000/api/auth/oauth/google/callback",
		OAuthStateSecret:   "state-secret",
	}
	svc := auth.NewOAuthService(cfg)

	url, state, err := svc.AuthURL(auth.ProviderGoogle)
	require.NoError(t, err)
	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "client_id=google-client")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=consent")
	assert.Contains(t, url, "state="+state)
	assert.True(t, auth.VerifyState(state))
}

func TestAuthURLApple(t *testing.T) {
	cfg := &config.Config{
		AppleClientID:       "com.example.app",
		AppleTeamID:         "TEAM123456",
		AppleKeyID:          "KEY1234567",
		ApplePrivateKeyPath: "/tmp/apple.p8",
		AppleRedirectURI:    "http://localhost:8000/api/auth/oauth/apple/callback",
		OAuthStateSecret:    "state-secret",
	}
	svc := auth.NewOAuthService(cfg)

	url, state, err := svc.AuthURL(auth.ProviderApple)
	require.NoError(t, err)
	assert.Contains(t, url, "appleid.apple.com")
	assert.Contains(t, url, "response_mode=form_post")
	assert.True(t, auth.VerifyState(state))
}

func TestAuthURLUnconfiguredProvider(t *testing.T) {
	svc := auth.NewOAuthService(&config.Config{})

	_, _, err := svc.AuthURL(auth.ProviderGoogle)
	assert.ErrorIs(t, err, auth.ErrProviderNotConfigured)

	_, _, err = svc.AuthURL("github")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown oauth provider")
}

func TestStateUniquePerCall(t *testing.T) {
	cfg := &config.Config{
		GoogleClientID:     "google-client",
		GoogleClientSecret: "google-secret",
		OAuthStateSecret:   "state-secret",
	}
	svc := auth.NewOAuthService(cfg)

	_, first, err := svc.AuthURL(auth.ProviderGoogle)
	require.NoError(t, err)
	_, second, err := svc.AuthURL(auth.ProviderGoogle)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
