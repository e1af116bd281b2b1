// internal/app/system/auth/tokens.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Access tokens are short-lived HS256 JWTs; refresh tokens are opaque
// values owned by the refresh-token store. TTLs follow the cookie
// contract: access 1h, refresh 7d.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// ErrTokenExpired reports an access token past its TTL. The caller is
// expected to attempt a refresh rather than surface this.
var ErrTokenExpired = errors.New("access token expired")

// ErrTokenInvalid reports a malformed or tampered access token.
var ErrTokenInvalid = errors.New("access token invalid")

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is the result of sign-in or refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// mintAccessToken signs a new access token for the user.
func mintAccessToken(secret []byte, userID, role string, now time.Time) (string, time.Time, error) {
	exp := now.Add(AccessTokenTTL)
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// ParseAccessToken verifies a token and returns its claims.
// Expired tokens return ErrTokenExpired so callers can distinguish
// "refresh now" from "reject".
func ParseAccessToken(secret []byte, token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
