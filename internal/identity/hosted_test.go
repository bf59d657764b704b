package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthServer imitates the two provider endpoints the HostedClient uses.
func fakeAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body.Email == "taken@test" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"msg": "User already registered"})
			return
		}

		token, _, err := signAccessToken([]byte(testSecret), "subj-1", body.Email, time.Hour)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":           "subj-1",
			"email":        body.Email,
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.FormValue("grant_type") != "password" {
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}
		if r.FormValue("password") != "secret123" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}

		token, _, err := signAccessToken([]byte(testSecret), "subj-1", r.FormValue("username"), time.Hour)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestHostedClient(t *testing.T, baseURL string) *HostedClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c, err := NewHostedClient(HostedConfig{BaseURL: baseURL, JWTSecret: testSecret}, logger)
	require.NoError(t, err)
	return c
}

func TestHostedClientRegister(t *testing.T) {
	srv := fakeAuthServer(t)
	c := newTestHostedClient(t, srv.URL)

	reg, err := c.Register(context.Background(), "x@test", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "subj-1", reg.Identity.SubjectID)
	assert.Equal(t, "x@test", reg.Identity.Email)
	require.NotNil(t, reg.Session)

	// The inline session token verifies locally.
	ident, err := c.Verify(context.Background(), reg.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "subj-1", ident.SubjectID)
}

func TestHostedClientRegisterDuplicate(t *testing.T) {
	srv := fakeAuthServer(t)
	c := newTestHostedClient(t, srv.URL)

	_, err := c.Register(context.Background(), "taken@test", "secret123")
	assert.True(t, errors.Is(err, ErrAlreadyRegistered), "error = %v", err)
}

func TestHostedClientLogin(t *testing.T) {
	srv := fakeAuthServer(t)
	c := newTestHostedClient(t, srv.URL)

	session, err := c.Login(context.Background(), "x@test", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)

	ident, err := c.Verify(context.Background(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "x@test", ident.Email)
}

func TestHostedClientLoginInvalidCredentials(t *testing.T) {
	srv := fakeAuthServer(t)
	c := newTestHostedClient(t, srv.URL)

	_, err := c.Login(context.Background(), "x@test", "wrong-pass")
	assert.True(t, errors.Is(err, ErrInvalidCredentials), "error = %v", err)
}
