// Package auth provides the authentication collaborators consulted when
// requesting capabilities documents.
//
// An [Authenticator] answers two questions: whether the caller is currently
// authenticated, and which bearer token to send. Implementations:
//   - [Anonymous]: never authenticated
//   - [Static]: a fixed token, e.g. from a flag or environment variable
//   - [SessionAuthenticator]: a token persisted by "wmscap auth login"
//
// # Sessions
//
// Sessions store the access token with an optional expiry in a [Store]. The
// [FileStore] keeps one JSON file per session under
// ~/.config/wmscap/sessions/ with mode 0600.
//
// # Token Expiry
//
// Tokens that are JWTs are considered unauthenticated once their "exp"
// claim has passed. The signature is not verified; verification is the
// authentication proxy's job. Opaque tokens never expire on their own.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sentinel errors for session operations.
var (
	// ErrNotLoggedIn is returned when no live session exists.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrEmptyToken is returned when creating a session without a token.
	ErrEmptyToken = errors.New("empty access token")
)

// Authenticator reports the caller's authentication state. Token returns
// "" whenever the caller is not authenticated, so a single Token call is
// enough to both decide and authorize a request.
type Authenticator interface {
	IsAuthenticated() bool
	Token() string
}

// Anonymous is an [Authenticator] that is never authenticated.
type Anonymous struct{}

func (Anonymous) IsAuthenticated() bool { return false }
func (Anonymous) Token() string         { return "" }

// StaticToken is an [Authenticator] backed by a fixed token.
type StaticToken struct {
	token string
}

// Static returns an Authenticator for token. An empty token is never
// authenticated.
func Static(token string) StaticToken {
	return StaticToken{token: token}
}

func (s StaticToken) IsAuthenticated() bool {
	return s.token != "" && !TokenExpired(s.token)
}

func (s StaticToken) Token() string {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.token
}

// TokenExpired reports whether token is a JWT whose exp claim lies in the
// past. Tokens that are not JWTs, or carry no exp claim, are never expired.
func TokenExpired(token string) bool {
	exp, ok := tokenExpiry(token)
	return ok && time.Now().After(exp)
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Session stores an access token with its lifetime.
type Session struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsExpired returns true if the session has an expiry that has passed, or if
// its token is an expired JWT.
func (s *Session) IsExpired() bool {
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return true
	}
	return TokenExpired(s.AccessToken)
}

// NewSession creates a session for token. A positive ttl sets the expiry;
// otherwise the expiry is taken from the token's exp claim when it is a JWT,
// and left unset for opaque tokens.
func NewSession(token string, ttl time.Duration) (*Session, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	now := time.Now()
	sess := &Session{
		ID:          uuid.NewString(),
		AccessToken: token,
		CreatedAt:   now,
	}
	if ttl > 0 {
		sess.ExpiresAt = now.Add(ttl)
	} else if exp, ok := tokenExpiry(token); ok {
		sess.ExpiresAt = exp
	}
	return sess, nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session under its ID.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
}
