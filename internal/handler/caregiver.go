// Package handler contains the HTTP layer: request parsing, response
// shaping, and nothing else. Business rules live in the service package;
// authentication lives in the auth guard.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rifathasan/caretrack/internal/auth"
	"github.com/rifathasan/caretrack/internal/identity"
	"github.com/rifathasan/caretrack/internal/service"
)

// CaregiverHandler serves registration, login, and the current profile.
//
// ROUTES:
//
//	POST /api/caregivers/signup → HandleSignup
//	POST /api/caregivers/login  → HandleLogin
//	GET  /api/caregivers/me     → HandleMe (behind the scope guard)
type CaregiverHandler struct {
	caregivers *service.CaregiverService
	logger     *slog.Logger
}

// NewCaregiverHandler creates a CaregiverHandler.
func NewCaregiverHandler(caregivers *service.CaregiverService, logger *slog.Logger) *CaregiverHandler {
	return &CaregiverHandler{
		caregivers: caregivers,
		logger:     logger,
	}
}

// caregiverView is the profile shape returned to clients.
type caregiverView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type signupResponse struct {
	Message   string            `json:"message"`
	Caregiver caregiverView     `json:"caregiver"`
	Session   *identity.Session `json:"session,omitempty"`
}

// HandleSignup registers a caregiver.
//
// 201 on a fresh registration; 200 when signup re-synced an existing local
// profile to a recreated provider account.
func (h *CaregiverHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid signup JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.caregivers.Signup(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	message := "Caregiver registered successfully"
	if result.Synced {
		status = http.StatusOK
		message = "Caregiver synced successfully"
	}

	writeJSON(w, status, signupResponse{
		Message: message,
		Caregiver: caregiverView{
			ID:    result.Caregiver.ID,
			Name:  result.Caregiver.Name,
			Email: result.Caregiver.Email,
		},
		Session: result.Session,
	})
}

type loginResponse struct {
	Message string            `json:"message"`
	Session *identity.Session `json:"session"`
}

// HandleLogin exchanges credentials for a provider session.
func (h *CaregiverHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	session, err := h.caregivers.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Session: session,
	})
}

// HandleMe returns the resolved caregiver's profile. The guard has already
// authenticated and attached it; this handler only reads the context.
func (h *CaregiverHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caregiver, ok := auth.CaregiverFromContext(r.Context())
	if !ok {
		// Only reachable if the route was wired without the guard.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]caregiverView{
		"caregiver": {
			ID:    caregiver.ID,
			Name:  caregiver.Name,
			Email: caregiver.Email,
		},
	})
}
