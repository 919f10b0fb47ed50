// Package auth implements the cryptographic pieces of the server: password
// hashing and HS256 access tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenValidity is the lifetime of an access token.
const DefaultTokenValidity = time.Hour

// Claims are the registered claims plus the user id and email.
// Subject carries the user id as well, for standard consumers.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// TokenManager issues and verifies stateless access tokens. The secret is
// fixed for the lifetime of the manager; there is no revocation, expiry is
// the only way a token stops being valid.
type TokenManager struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// TokenManagerOption customizes a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewTokenManager builds a manager signing with secret. An empty secret is
// rejected so that a missing configuration can never disable verification.
func NewTokenManager(secret []byte, validity time.Duration, opts ...TokenManagerOption) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty token signing secret")
	}
	if validity <= 0 {
		validity = DefaultTokenValidity
	}

	m := &TokenManager{
		secret:   append([]byte(nil), secret...),
		validity: validity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Validity reports how long issued tokens live.
func (m *TokenManager) Validity() time.Duration {
	return m.validity
}

// Issue signs a token binding userID and email for the configured validity.
func (m *TokenManager) Issue(userID, email string) (string, error) {
	now := m.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
			ID:        uuid.NewString(),
		},
		UserID: userID,
		Email:  email,
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks the signature first and the expiry second. Every failure
// matches common.ErrInvalidToken; an expired token also matches
// common.ErrTokenExpired.
func (m *TokenManager) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}

	return &Identity{ID: userID, Email: claims.Email}, nil
}
