package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rifathasan/caretrack/internal/apperror"
	"github.com/rifathasan/caretrack/internal/identity"
	"github.com/rifathasan/caretrack/internal/model"
)

// contextKey is an unexported type for context keys in this package. Only
// this package can create a key of this type, so no other package can read
// or shadow the caregiver value.
type contextKey string

const caregiverKey contextKey = "caregiver"

// Guard is the request-boundary gate: it requires a bearer token, verifies
// it with the provider, resolves it to a local caregiver, and attaches the
// caregiver to the request context. Any failure stops the request before a
// resource handler runs.
type Guard struct {
	provider identity.Provider
	resolver *Resolver
	logger   *slog.Logger
}

// NewGuard creates a Guard.
func NewGuard(provider identity.Provider, resolver *Resolver, logger *slog.Logger) *Guard {
	return &Guard{
		provider: provider,
		resolver: resolver,
		logger:   logger,
	}
}

// RequireCaregiver enforces authentication on protected routes.
//
// Failure taxonomy at this boundary:
//   - missing/malformed Authorization header → 401, no detail
//   - provider rejects the token            → 401, no detail
//   - token fine, no caregiver profile      → 404 profile_not_found
//   - anything else                          → 500, detail only in the log
func (g *Guard) RequireCaregiver(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeGuardError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
			return
		}

		ident, err := g.provider.Verify(r.Context(), token)
		if err != nil {
			g.logger.Warn("token verification failed", slog.String("error", err.Error()))
			writeGuardError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
			return
		}

		caregiver, err := g.resolver.Resolve(r.Context(), ident)
		if err != nil {
			if errors.Is(err, apperror.ErrProfileNotFound) {
				writeGuardError(w, http.StatusNotFound, "profile_not_found", "caregiver profile not found")
				return
			}
			g.logger.Error("resolving caregiver failed",
				slog.String("subjectID", ident.SubjectID),
				slog.String("error", err.Error()),
			)
			writeGuardError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
			return
		}

		ctx := context.WithValue(r.Context(), caregiverKey, caregiver)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CaregiverFromContext retrieves the resolved caregiver from the request
// context. Returns (nil, false) on routes not behind RequireCaregiver.
func CaregiverFromContext(ctx context.Context) (*model.Caregiver, bool) {
	caregiver, ok := ctx.Value(caregiverKey).(*model.Caregiver)
	return caregiver, ok && caregiver != nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// writeGuardError writes the same JSON error shape the handlers use.
// The guard cannot import the handler package (handlers import this one),
// so it writes the body itself.
func writeGuardError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
