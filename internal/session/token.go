package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether a stored token carries an already-expired
// exp claim. The parse is unverified: the server stays the authority on
// token validity, this check only skips the round trip that is certain
// to fail.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not a JWT we can read; let the server decide.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
