package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rifathasan/caretrack/internal/auth"
	"github.com/rifathasan/caretrack/internal/model"
	"github.com/rifathasan/caretrack/internal/service"
)

// MemberHandler serves the owner-scoped member CRUD routes. Every route
// sits behind the scope guard; the owner is always the caregiver the guard
// attached to the request context, never anything client-supplied.
//
// ROUTES:
//
//	POST   /api/members      → HandleCreate
//	GET    /api/members      → HandleList
//	PUT    /api/members/{id} → HandleUpdate
//	DELETE /api/members/{id} → HandleDelete
type MemberHandler struct {
	members *service.MemberService
	logger  *slog.Logger
}

// NewMemberHandler creates a MemberHandler.
func NewMemberHandler(members *service.MemberService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{
		members: members,
		logger:  logger,
	}
}

// owner extracts the authenticated caregiver, writing a 401 if the guard
// was somehow bypassed.
func (h *MemberHandler) owner(w http.ResponseWriter, r *http.Request) (*model.Caregiver, bool) {
	caregiver, ok := auth.CaregiverFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return nil, false
	}
	return caregiver, true
}

// HandleCreate adds a member under the authenticated caregiver.
func (h *MemberHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caregiver, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in service.CreateMemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid member JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	member, err := h.members.Create(r.Context(), caregiver.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

// HandleList returns all members owned by the authenticated caregiver.
func (h *MemberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caregiver, ok := h.owner(w, r)
	if !ok {
		return
	}

	members, err := h.members.List(r.Context(), caregiver.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

// HandleUpdate applies a partial update to one of the caregiver's members.
// A member id owned by someone else is indistinguishable from a missing id.
func (h *MemberHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caregiver, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in service.UpdateMemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid member JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	member, err := h.members.Update(r.Context(), caregiver.ID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

// HandleDelete removes one of the caregiver's members.
func (h *MemberHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caregiver, ok := h.owner(w, r)
	if !ok {
		return
	}

	if err := h.members.Delete(r.Context(), caregiver.ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Member deleted successfully",
	})
}
