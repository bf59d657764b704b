package identity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"
)

// localAccount is one credential record held by LocalProvider.
type localAccount struct {
	subjectID    string
	passwordHash []byte
}

// LocalProvider is an in-process Provider for development and tests.
//
// It keeps bcrypt-hashed credentials in memory and issues the same HS256
// access tokens a hosted provider would, so everything downstream (the
// verifier, the scope guard, reconciliation) behaves identically in both
// modes. State is lost on restart — that is the point of a dev provider.
type LocalProvider struct {
	mu       sync.RWMutex
	accounts map[string]*localAccount // keyed by email
	secret   []byte
	verifier *TokenVerifier
	tokenTTL time.Duration
}

// NewLocalProvider creates a LocalProvider signing tokens with the given
// secret. Tokens live for one hour.
func NewLocalProvider(secret string) (*LocalProvider, error) {
	verifier, err := NewTokenVerifier(secret)
	if err != nil {
		return nil, err
	}
	return &LocalProvider{
		accounts: make(map[string]*localAccount),
		secret:   []byte(secret),
		verifier: verifier,
		tokenTTL: time.Hour,
	}, nil
}

// Verify checks a token issued by this provider.
func (p *LocalProvider) Verify(_ context.Context, accessToken string) (*Identity, error) {
	return p.verifier.Verify(accessToken)
}

// Register creates an account and returns an immediate session, mirroring an
// auto-confirming hosted provider.
func (p *LocalProvider) Register(_ context.Context, email, password string) (*Registration, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return nil, ErrAlreadyRegistered
	}
	account := &localAccount{
		subjectID:    xid.New().String(),
		passwordHash: hash,
	}
	p.accounts[email] = account
	p.mu.Unlock()

	session, err := p.Issue(account.subjectID, email)
	if err != nil {
		return nil, err
	}
	return &Registration{
		Identity: Identity{SubjectID: account.subjectID, Email: email},
		Session:  session,
	}, nil
}

// Login checks the password and returns a fresh session.
func (p *LocalProvider) Login(_ context.Context, email, password string) (*Session, error) {
	p.mu.RLock()
	account, ok := p.accounts[email]
	p.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.Issue(account.subjectID, email)
}

// Issue signs an access token for the given subject and email without a
// credential check. Exists for dev seeding and tests — for example,
// simulating a provider-side account recreation by issuing a token with a
// brand-new subject id for an existing email.
func (p *LocalProvider) Issue(subjectID, email string) (*Session, error) {
	token, expires, err := signAccessToken(p.secret, subjectID, email, p.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expires,
	}, nil
}

// Reset drops the account for email, so a later Register produces a new
// subject id. Mirrors a user deleting and recreating their provider account.
func (p *LocalProvider) Reset(email string) {
	p.mu.Lock()
	delete(p.accounts, email)
	p.mu.Unlock()
}
