package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("invalid token")

var (
	errMissingSecret = errors.New("security: jwt secret is empty")
	errMissingTTL    = errors.New("security: token lifetime must be positive")
)

// Claims carries the roles granted to a calling service.
type Claims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for subject with the given roles, expiring after ttl.
func IssueToken(secret, subject string, roles []string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errMissingSecret
	}
	if ttl <= 0 {
		return "", errMissingTTL
	}
	claims := Claims{
		Authorities: NormalizeRoles(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.TrimSpace(subject),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseToken verifies an HS256 token and returns its claims. Tokens without exp are rejected.
func ParseToken(secret, tokenString string) (*Claims, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errMissingSecret
	}
	claims := &Claims{}
	token, errParse := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if errParse != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, errParse)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
