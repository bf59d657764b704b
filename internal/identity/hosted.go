package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// HostedConfig configures the client for a GoTrue-style hosted auth service.
type HostedConfig struct {
	// BaseURL is the root of the auth service, e.g. "https://auth.example.com".
	BaseURL string
	// JWTSecret is the shared secret the provider signs access tokens with.
	JWTSecret string
	// Timeout bounds every provider HTTP call. A timed-out call surfaces as
	// an error to the caller; there are no retries. Defaults to 10s.
	Timeout time.Duration
}

// HostedClient implements Provider against a hosted auth service.
//
// Register and Login go over HTTP; Verify stays local, checking the token
// signature with the shared secret. That keeps the per-request hot path free
// of provider round trips — the provider is only on the wire for the two
// credential operations.
type HostedClient struct {
	baseURL  string
	verifier *TokenVerifier
	oauth    *oauth2.Config
	client   *http.Client
	logger   *slog.Logger
}

// NewHostedClient creates a HostedClient.
//
// Login uses the OAuth2 resource-owner password grant against the provider's
// token endpoint. This is a first-party backend holding the user's submitted
// credentials for the duration of one call, which is exactly the flow that
// grant exists for.
func NewHostedClient(cfg HostedConfig, logger *slog.Logger) (*HostedClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity: provider base URL is required")
	}
	verifier, err := NewTokenVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	return &HostedClient{
		baseURL:  base,
		verifier: verifier,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  base + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// Verify checks the access token locally and returns the identity it encodes.
func (c *HostedClient) Verify(_ context.Context, accessToken string) (*Identity, error) {
	return c.verifier.Verify(accessToken)
}

// signupResponse is the part of the provider's signup payload we care about.
// Providers that auto-confirm accounts include a session inline.
type signupResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Register creates an account at the provider.
// A duplicate email returns ErrAlreadyRegistered; the caller decides whether
// that is a conflict or a local-sync situation.
func (c *HostedClient) Register(ctx context.Context, email, password string) (*Registration, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("identity: encoding signup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/signup", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("identity: building signup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: calling provider signup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// fall through to decode
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrAlreadyRegistered
	case resp.StatusCode == http.StatusBadRequest:
		// GoTrue reports duplicates as 400 with a message; sniff for it.
		var errBody struct {
			Msg string `json:"msg"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if strings.Contains(strings.ToLower(errBody.Msg), "already registered") {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("identity: provider signup rejected: %s", errBody.Msg)
	default:
		return nil, fmt.Errorf("identity: provider signup returned status %d", resp.StatusCode)
	}

	var sr signupResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("identity: decoding signup response: %w", err)
	}
	if sr.ID == "" {
		return nil, errors.New("identity: provider signup returned no user id")
	}

	reg := &Registration{
		Identity: Identity{SubjectID: sr.ID, Email: sr.Email},
	}
	if sr.AccessToken != "" {
		reg.Session = &Session{
			AccessToken: sr.AccessToken,
			TokenType:   sr.TokenType,
			ExpiresAt:   time.Now().Add(time.Duration(sr.ExpiresIn) * time.Second),
		}
	}
	return reg, nil
}

// Login exchanges email+password for a session via the password grant.
func (c *HostedClient) Login(ctx context.Context, email, password string) (*Session, error) {
	// oauth2 picks its HTTP client out of the context; inject ours so the
	// configured timeout applies to the token call too.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)

	token, err := c.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) &&
			(retrieveErr.Response.StatusCode == http.StatusBadRequest ||
				retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
			c.logger.Warn("provider rejected login", slog.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity: provider login: %w", err)
	}

	return &Session{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.Expiry,
	}, nil
}
