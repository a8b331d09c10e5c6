package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/avellar/chat-service/internal/domain"
)

// TokenLifetime matches the front end's expectation of week-long logins.
const TokenLifetime = 7 * 24 * time.Hour

// ErrNoSecret signals a server misconfiguration, not a caller error.
var ErrNoSecret = errors.New("signing secret is not configured")

// TokenClaims are the claims carried by issued bearer tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"id"`
}

// IssueToken signs a token for the given user.
func IssueToken(secret string, userID domain.UserID) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: int64(userID),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken parses and validates a bearer token, returning the caller's
// user id. Any parse or validation failure maps to domain.ErrForbidden.
func VerifyToken(secret, tokenString string) (domain.UserID, error) {
	if secret == "" {
		return 0, ErrNoSecret
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrForbidden
	}

	return domain.UserID(claims.UserID), nil
}
