package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APIKeyClaims identifies a caller allowed to trigger sync runs.
type APIKeyClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignAPIKey mints a signed API key for a caller. Used by cmd/apikeygen.
func SignAPIKey(secret, subject, role string, ttl time.Duration) (string, error) {
	claims := APIKeyClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAPIKey validates a signed API key and returns its claims.
func ParseAPIKey(secret, tokenString string) (*APIKeyClaims, error) {
	claims := &APIKeyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

type claimsKey struct{}

// SetClaims stores validated claims on the request context.
func SetClaims(ctx context.Context, claims *APIKeyClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims returns the claims set by the auth middleware, if any.
func GetClaims(ctx context.Context) (*APIKeyClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*APIKeyClaims)
	return claims, ok
}
