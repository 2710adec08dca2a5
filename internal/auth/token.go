package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType is the scheme reported alongside issued access tokens.
const TokenType = "bearer"

// TokenIdentity is the validated subject of an access token.
type TokenIdentity struct {
	UserID   string
	Email    string
	Username string
}

// IssueToken signs an HS256 access token carrying the user identity.
func IssueToken(secret string, userID uuid.UUID, email, username string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":      userID.String(),
		"email":    email,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature and expiry and extracts the identity claims.
// Only HMAC tokens are accepted; anything signed another way fails before the
// key is even consulted.
func ParseToken(secret, tokenString string) (*TokenIdentity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		if secret == "" {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token has no subject claim")
	}

	identity := &TokenIdentity{UserID: sub}
	identity.Email, _ = claims["email"].(string)
	identity.Username, _ = claims["username"].(string)
	return identity, nil
}
