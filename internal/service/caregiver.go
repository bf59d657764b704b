package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/rifathasan/caretrack/internal/apperror"
	"github.com/rifathasan/caretrack/internal/identity"
	"github.com/rifathasan/caretrack/internal/model"
	"github.com/rifathasan/caretrack/internal/repository"
)

const (
	minPasswordLength = 6
	minNameLength     = 2
)

// CaregiverService orchestrates caregiver registration and login between
// the external identity provider (credentials, tokens) and the local
// caregiver directory (profile, member ownership).
type CaregiverService struct {
	provider   identity.Provider
	caregivers repository.CaregiverRepository
	logger     *slog.Logger
}

// NewCaregiverService creates a CaregiverService.
func NewCaregiverService(provider identity.Provider, caregivers repository.CaregiverRepository, logger *slog.Logger) *CaregiverService {
	return &CaregiverService{
		provider:   provider,
		caregivers: caregivers,
		logger:     logger,
	}
}

// SignupInput is the submitted registration body.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignupResult bundles the caregiver profile with the provider session so
// the handler can respond in one step. Synced is true when signup found an
// existing local profile for the email and rebound it to the fresh provider
// account instead of creating a new one.
type SignupResult struct {
	Caregiver *model.Caregiver
	Session   *identity.Session
	Synced    bool
}

// LoginInput is the submitted login body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateEmail(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return "", apperror.ValidationFailed("email", "invalid email format")
	}
	return value, nil
}

// Signup registers the caregiver with the provider and creates the local
// profile.
//
// Two failure shapes at the directory matter:
//   - the provider already knows the email → Conflict, surfaced as-is;
//   - the provider accepted a FRESH account but the local directory already
//     has a profile for the email. The profile predates a provider-side
//     reset, so instead of failing we rebind it to the new subject id and
//     return it. Failing here would strand the caregiver's members behind a
//     subject id that can never log in again.
func (s *CaregiverService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	name := strings.TrimSpace(in.Name)
	if len(name) < minNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be at least %d characters", minNameLength))
	}

	reg, err := s.provider.Register(ctx, email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrAlreadyRegistered) {
			return nil, apperror.Conflict("caregiver", "email already registered")
		}
		s.logger.Error("provider signup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering with provider: %w", err)
	}

	caregiver := &model.Caregiver{
		ExternalSubjectID: reg.Identity.SubjectID,
		Email:             email,
		Name:              name,
	}

	createErr := s.caregivers.Create(ctx, caregiver)
	if createErr == nil {
		s.logger.Info("caregiver registered",
			slog.String("caregiverID", caregiver.ID),
			slog.String("subjectID", reg.Identity.SubjectID),
		)
		return &SignupResult{Caregiver: caregiver, Session: reg.Session}, nil
	}

	if errors.Is(createErr, apperror.ErrConflict) {
		healed, err := s.caregivers.RebindSubjectID(ctx, email, reg.Identity.SubjectID)
		if err == nil {
			s.logger.Info("synced existing caregiver to new provider account",
				slog.String("caregiverID", healed.ID),
				slog.String("subjectID", reg.Identity.SubjectID),
			)
			return &SignupResult{Caregiver: healed, Session: reg.Session, Synced: true}, nil
		}
		s.logger.Error("failed to sync caregiver after conflict",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, createErr
	}

	s.logger.Error("failed to create caregiver",
		slog.String("email", email),
		slog.String("error", createErr.Error()),
	)
	return nil, fmt.Errorf("creating caregiver: %w", createErr)
}

// Login checks credentials with the provider and returns its session.
// Invalid credentials collapse into Unauthenticated with no detail.
func (s *CaregiverService) Login(ctx context.Context, in LoginInput) (*identity.Session, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	session, err := s.provider.Login(ctx, email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			s.logger.Warn("login rejected", slog.String("email", email))
			return nil, apperror.Unauthenticated()
		}
		s.logger.Error("provider login failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("logging in with provider: %w", err)
	}

	return session, nil
}
