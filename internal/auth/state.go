package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The OAuth state parameter is a short-lived signed token carrying the
// post-link redirect target, so the callback cannot be pointed at arbitrary
// URLs.

const stateTTL = 10 * time.Minute

// SignState issues a state token embedding the redirect target.
func SignState(secret, redirect string) (string, error) {
	claims := jwt.MapClaims{
		"redirect": redirect,
		"exp":      time.Now().Add(stateTTL).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// ParseState validates a state token and returns the redirect target.
func ParseState(secret, state string) (string, error) {
	token, err := jwt.Parse(state, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid state: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid state claims")
	}
	redirect, _ := claims["redirect"].(string)
	return redirect, nil
}
