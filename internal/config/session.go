package config

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionExpiry reads the exp claim of a JWT session token without
// verifying its signature. ok is false when the token is not a JWT or has
// no expiry.
func SessionExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	t, err := claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time, true
}

// SessionWarning returns a message when authToken is a JWT that expired
// before now, and "" otherwise. The backend remains the authority on
// whether the token is accepted.
func SessionWarning(authToken string, now time.Time) string {
	if authToken == "" {
		return ""
	}
	exp, ok := SessionExpiry(authToken)
	if !ok || exp.After(now) {
		return ""
	}
	return fmt.Sprintf("auth token expired at %s", exp.UTC().Format(time.RFC3339))
}
