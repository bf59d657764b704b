// Package auth hosts the identity reconciliation layer and the request-level
// scope guard.
//
// REQUEST FLOW:
//
//	Guard (HTTP middleware) → identity.Provider.Verify → Resolver.Resolve
//	                        → caregiver attached to the request context
//
// Handlers never parse tokens and repositories never see one — the guard is
// the only place authentication happens, and the resolver is the only place
// an external identity is mapped to a local caregiver.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rifathasan/caretrack/internal/apperror"
	"github.com/rifathasan/caretrack/internal/identity"
	"github.com/rifathasan/caretrack/internal/model"
	"github.com/rifathasan/caretrack/internal/repository"
)

// Resolver maps a verified provider identity to exactly one local caregiver,
// healing provider-side drift on the way.
type Resolver struct {
	caregivers repository.CaregiverRepository
	logger     *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(caregivers repository.CaregiverRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		caregivers: caregivers,
		logger:     logger,
	}
}

// Resolve returns the caregiver bound to the identity.
//
// Fast path: lookup by the provider subject id. Fallback: lookup by email —
// this catches the case where the provider account was deleted and recreated,
// giving an existing caregiver a brand-new subject id. When the email
// matches, the caregiver's subject binding is rewritten in place, so the
// local id (and with it every owned member) survives the provider reset.
//
// A verified identity matching neither key is NOT provisioned here; resolve
// never creates caregivers. Registration is the only path that does.
func (r *Resolver) Resolve(ctx context.Context, ident *identity.Identity) (*model.Caregiver, error) {
	if ident == nil {
		return nil, fmt.Errorf("auth: identity must not be nil")
	}

	caregiver, err := r.caregivers.GetBySubjectID(ctx, ident.SubjectID)
	if err == nil {
		return caregiver, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("auth: looking up caregiver by subject: %w", err)
	}

	// Drift case: the subject id is new to us, but the email may belong to
	// an existing caregiver whose provider account was recreated.
	caregiver, err = r.caregivers.GetByEmail(ctx, ident.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		r.logger.Warn("verified identity has no caregiver profile",
			slog.String("subjectID", ident.SubjectID),
		)
		return nil, apperror.ProfileNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("auth: looking up caregiver by email: %w", err)
	}

	healed, err := r.caregivers.RebindSubjectID(ctx, ident.Email, ident.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("auth: rebinding subject id for caregiver %s: %w", caregiver.ID, err)
	}

	r.logger.Info("healed caregiver subject binding",
		slog.String("caregiverID", healed.ID),
		slog.String("oldSubjectID", caregiver.ExternalSubjectID),
		slog.String("newSubjectID", ident.SubjectID),
	)

	return healed, nil
}
