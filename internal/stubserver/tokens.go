package stubserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errInvalidToken = errors.New("invalid or expired token")
	errMissingToken = errors.New("authorization token required")
)

// tokenManager issues and validates the stub's session tokens.
type tokenManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// tokenClaims are the custom JWT claims for a stub session.
type tokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

func newTokenManager(secretKey string, tokenDuration time.Duration) *tokenManager {
	return &tokenManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// generate creates a new session token for the given user.
func (m *tokenManager) generate(userID int64) (string, error) {
	claims := &tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// validate parses and validates a session token, returning the claims
// if valid.
func (m *tokenManager) validate(tokenString string) (*tokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}
