// Package jwt issues and verifies the bearer tokens of the API.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/worknotes/internal/authz"
	"github.com/bissquit/worknotes/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Config contains token settings.
type Config struct {
	SecretKey string
	// TokenDuration is the token lifetime. Zero issues tokens without expiry.
	TokenDuration time.Duration
}

// Claims is the token payload.
type Claims struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens.
type Authenticator struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// NewAuthenticator creates a new token authenticator.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is empty")
	}
	return &Authenticator{
		secret:   []byte(cfg.SecretKey),
		duration: cfg.TokenDuration,
		now:      time.Now,
	}, nil
}

// Issue creates a token for the user.
func (a *Authenticator) Issue(user *domain.User) (string, error) {
	now := a.now()
	claims := Claims{
		Username: user.Username,
		ID:       user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if a.duration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.duration))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the token and returns the identity it asserts.
func (a *Authenticator) Verify(token string) (authz.Identity, error) {
	tok, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return authz.Identity{}, fmt.Errorf("%w: %v", authz.ErrUnauthenticated, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.ID == "" {
		return authz.Identity{}, fmt.Errorf("%w: invalid claims", authz.ErrUnauthenticated)
	}

	return authz.Identity{UserID: claims.ID, Username: claims.Username}, nil
}
