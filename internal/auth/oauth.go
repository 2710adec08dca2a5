package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"script-analysis-backend/internal/config"
)

const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"

	appleAudience     = "https://appleid.apple.com"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// ErrProviderNotConfigured is returned when a flow is requested for a
// provider whose credentials are absent from the environment.
var ErrProviderNotConfigured = errors.New("oauth provider not configured")

// Identity is what a provider tells us about the person who signed in.
type Identity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Picture    string
	Verified   bool
}

// OAuthService drives the Google and Apple authorization-code flows. A nil
// provider config means that provider was not configured.
type OAuthService struct {
	cfg    *config.Config
	google *oauth2.Config
	apple  *oauth2.Config
}

func NewOAuthService(cfg *config.Config) *OAuthService {
	svc := &OAuthService{cfg: cfg}

	if cfg.GoogleOAuthConfigured() {
		svc.google = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		}
	}
	if cfg.AppleOAuthConfigured() {
		// ClientSecret stays empty here; Apple wants a freshly signed ES256
		// assertion per exchange instead of a static secret.
		svc.apple = &oauth2.Config{
			ClientID:    cfg.AppleClientID,
			RedirectURL: cfg.AppleRedirectURI,
			Scopes:      []string{"name", "email"},
			Endpoint:    endpoints.Apple,
		}
	}
	return svc
}

// AuthURL builds the provider consent URL and the state parameter to carry
// through the round trip.
func (s *OAuthService) AuthURL(provider string) (string, string, error) {
	switch provider {
	case ProviderGoogle:
		if s.google == nil {
			return "", "", ErrProviderNotConfigured
		}
		state := s.generateState(provider)
		url := s.google.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
		return url, state, nil
	case ProviderApple:
		if s.apple == nil {
			return "", "", ErrProviderNotConfigured
		}
		state := s.generateState(provider)
		url := s.apple.AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "form_post"))
		return url, state, nil
	default:
		return "", "", fmt.Errorf("unknown oauth provider %q", provider)
	}
}

// Exchange trades the authorization code for the provider's view of the user.
func (s *OAuthService) Exchange(ctx context.Context, provider, code string) (*Identity, error) {
	switch provider {
	case ProviderGoogle:
		return s.exchangeGoogle(ctx, code)
	case ProviderApple:
		return s.exchangeApple(ctx, code)
	default:
		return nil, fmt.Errorf("unknown oauth provider %q", provider)
	}
}

func (s *OAuthService) generateState(provider string) string {
	sum := sha256.Sum256([]byte(provider + ":" + uuid.NewString() + ":" + s.cfg.OAuthStateSecret))
	return hex.EncodeToString(sum[:])[:32]
}

// VerifyState checks the shape of a returned state parameter. The flow keeps
// no server-side session, so shape is all there is to check.
func VerifyState(state string) bool {
	if len(state) != 32 {
		return false
	}
	for _, r := range state {
		alnum := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !alnum {
			return false
		}
	}
	return true
}

func (s *OAuthService) exchangeGoogle(ctx context.Context, code string) (*Identity, error) {
	if s.google == nil {
		return nil, ErrProviderNotConfigured
	}

	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange google code: %w", err)
	}

	client := s.google.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google profile request returned status %d", resp.StatusCode)
	}

	var profile struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode google profile: %w", err)
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("google profile is missing id or email")
	}

	return &Identity{
		Provider:   ProviderGoogle,
		ProviderID: profile.ID,
		Email:      profile.Email,
		Name:       profile.Name,
		Picture:    profile.Picture,
		Verified:   profile.VerifiedEmail,
	}, nil
}

func (s *OAuthService) exchangeApple(ctx context.Context, code string) (*Identity, error) {
	if s.apple == nil {
		return nil, ErrProviderNotConfigured
	}

	secret, err := s.appleClientSecret()
	if err != nil {
		return nil, err
	}
	conf := *s.apple
	conf.ClientSecret = secret

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange apple code: %w", err)
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, fmt.Errorf("apple token response has no id_token")
	}

	// The id_token arrives straight from Apple's token endpoint over TLS, so
	// the claims are read without a local signature check.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode apple id_token: %w", err)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("apple id_token has no subject")
	}
	email, _ := claims["email"].(string)

	verified := false
	switch v := claims["email_verified"].(type) {
	case bool:
		verified = v
	case string:
		verified = v == "true"
	}

	// Apple only shares the real name on the very first consent, and only to
	// the form_post body, so fall back to a stable placeholder.
	name := "Apple User"
	if len(sub) >= 8 {
		name = "Apple User " + sub[:8]
	}

	return &Identity{
		Provider:   ProviderApple,
		ProviderID: sub,
		Email:      email,
		Name:       name,
		Verified:   verified,
	}, nil
}

// appleClientSecret signs the short-lived assertion Apple requires in place
// of a static client secret.
func (s *OAuthService) appleClientSecret() (string, error) {
	pemBytes, err := os.ReadFile(s.cfg.ApplePrivateKeyPath)
	if err != nil {
		return "", fmt.Errorf("failed to read apple private key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return "", fmt.Errorf("failed to parse apple private key: %w", err)
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": s.cfg.AppleTeamID,
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": appleAudience,
		"sub": s.cfg.AppleClientID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.cfg.AppleKeyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign apple client secret: %w", err)
	}
	return signed, nil
}
