// Package identity wraps the external identity provider.
//
// The provider is the source of truth for credentials: it stores passwords,
// issues bearer tokens, and verifies them. This backend never hashes or
// stores a production password — it consumes the provider through the
// Provider interface and keeps only its own caregiver profile records.
//
// Two implementations exist:
//   - HostedClient talks to a GoTrue-style HTTP auth service and verifies
//     access tokens locally with the provider's shared JWT secret.
//   - LocalProvider is an in-process stand-in for development and tests.
package identity

import (
	"context"
	"errors"
	"time"
)

// Identity is the verified subject of a bearer token: the provider's user id
// plus the email registered with it. It carries identity facts only — no
// local caregiver data.
type Identity struct {
	SubjectID string
	Email     string
}

// Session is a provider-issued login session.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Registration is the outcome of a successful signup. Some providers return
// a session immediately; others (email confirmation flows) do not, so
// Session may be nil.
type Registration struct {
	Identity Identity
	Session  *Session
}

var (
	// ErrInvalidToken: the bearer token failed verification (bad signature,
	// expired, malformed). The caller maps this to Unauthenticated.
	ErrInvalidToken = errors.New("identity: invalid token")

	// ErrInvalidCredentials: login rejected by the provider.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrAlreadyRegistered: the provider already has an account for this
	// email.
	ErrAlreadyRegistered = errors.New("identity: email already registered")
)

// Provider is the contract every identity backend must implement.
//
// Verify is called on every authenticated request, so implementations keep
// it cheap (local signature check, no provider round trip). No method
// retries: a failure surfaces immediately and the request boundary decides
// what to do with it.
type Provider interface {
	Verify(ctx context.Context, accessToken string) (*Identity, error)
	Register(ctx context.Context, email, password string) (*Registration, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}
