package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

// Session is the caller's identity as seen by the storefront.
// The token is opaque to us: backends verify it, we only read claims
// to attribute orders and to skip calls for sessions already expired.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// FromToken reads the user id and expiry from an auth-service token
func FromToken(token string) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("empty token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("failed to parse token: %w", err)
	}

	s := Session{Token: token}

	switch v := claims["user_id"].(type) {
	case string:
		s.UserID = v
	case float64:
		s.UserID = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if s.UserID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			s.UserID = sub
		}
	}
	if s.UserID == "" {
		return Session{}, fmt.Errorf("token has no user_id claim")
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}

	return s, nil
}

// Valid reports whether the session can still be presented to backends
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" || s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// WithSession stores the session in ctx
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
