package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for a token that fails signature, expiry or claim checks
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims are carried by the session cookie. Roles are resolved per request, not stored here.
type SessionClaims struct {
	Username string `json:"name"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret []byte, ttl time.Duration, issuer string) *TokenManager {
	return &TokenManager{secret: secret, ttl: ttl, issuer: issuer, now: time.Now}
}

// TTL is the lifetime of a freshly issued token
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session token for the account
func (m *TokenManager) Issue(userID uuid.UUID, username string) (string, error) {
	now := m.now()
	claims := SessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims
func (m *TokenManager) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// NeedsRefresh reports whether more than half of the token lifetime has elapsed (sliding expiration)
func (m *TokenManager) NeedsRefresh(claims *SessionClaims) bool {
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return true
	}
	half := claims.ExpiresAt.Sub(claims.IssuedAt.Time) / 2
	return m.now().After(claims.IssuedAt.Add(half))
}
