// Package service contains the business logic layer: validation, access
// scoping, and orchestration between the identity provider, the
// repositories, and the event recorders. Services know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rifathasan/caretrack/internal/apperror"
	"github.com/rifathasan/caretrack/internal/event"
	"github.com/rifathasan/caretrack/internal/model"
	"github.com/rifathasan/caretrack/internal/repository"
)

// MinBirthYear is the lower bound for a member's birth year. The upper
// bound is the current year, evaluated per call.
const MinBirthYear = 1900

// MemberService handles business logic for member records.
//
// Every operation takes the owning caregiver's id as its first argument and
// passes it straight into the repository's owner filter. The id comes from
// the scope guard's resolved caregiver — never from request input — so a
// caller cannot name someone else's scope.
type MemberService struct {
	members repository.MemberRepository
	events  event.Recorder
	logger  *slog.Logger
}

// NewMemberService creates a MemberService.
func NewMemberService(members repository.MemberRepository, events event.Recorder, logger *slog.Logger) *MemberService {
	return &MemberService{
		members: members,
		events:  events,
		logger:  logger,
	}
}

// CreateMemberInput is the submitted body for creating a member.
// Status is optional and defaults to active.
type CreateMemberInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Relationship string `json:"relationship"`
	BirthYear    int    `json:"birthYear"`
	Status       string `json:"status"`
}

// UpdateMemberInput is a partial update: nil means "leave unchanged".
type UpdateMemberInput struct {
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Relationship *string `json:"relationship"`
	BirthYear    *int    `json:"birthYear"`
	Status       *string `json:"status"`
}

func validateRequiredText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return value, nil
}

func validateBirthYear(year int) error {
	if year < MinBirthYear {
		return apperror.ValidationFailed("birthYear",
			fmt.Sprintf("birthYear must be %d or later", MinBirthYear))
	}
	if current := time.Now().Year(); year > current {
		return apperror.ValidationFailed("birthYear",
			fmt.Sprintf("birthYear must not be after %d", current))
	}
	return nil
}

func parseStatus(value string) (model.MemberStatus, error) {
	status := model.MemberStatus(strings.TrimSpace(value))
	if !status.Valid() {
		return "", apperror.ValidationFailed("status", "status must be active or inactive")
	}
	return status, nil
}

// Create validates the submitted fields and persists a new member for the
// owner. Emits member_added after the write commits.
func (s *MemberService) Create(ctx context.Context, ownerID string, in CreateMemberInput) (*model.Member, error) {
	firstName, err := validateRequiredText("firstName", in.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := validateRequiredText("lastName", in.LastName)
	if err != nil {
		return nil, err
	}
	relationship, err := validateRequiredText("relationship", in.Relationship)
	if err != nil {
		return nil, err
	}
	if err := validateBirthYear(in.BirthYear); err != nil {
		return nil, err
	}

	status := model.MemberStatusActive
	if in.Status != "" {
		status, err = parseStatus(in.Status)
		if err != nil {
			return nil, err
		}
	}

	member := &model.Member{
		OwnerID:      ownerID,
		FirstName:    firstName,
		LastName:     lastName,
		Relationship: relationship,
		BirthYear:    in.BirthYear,
		Status:       status,
	}

	if err := s.members.Create(ctx, member); err != nil {
		s.logger.Error("failed to create member",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating member: %w", err)
	}

	s.events.Record(ctx, event.Event{
		Name:     event.MemberAdded,
		OwnerID:  ownerID,
		MemberID: member.ID,
	})

	return member, nil
}

// List returns all members owned by ownerID.
func (s *MemberService) List(ctx context.Context, ownerID string) ([]model.Member, error) {
	members, err := s.members.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list members",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// Update applies a partial update to one of the owner's members.
//
// The submitted fields are validated before the store is touched, so a body
// that is both invalid and aimed at a foreign member fails with the
// validation error. Then the existence and ownership check happen as one
// filtered lookup: a foreign-owned id is NotFound, same as a missing one.
// Emits member_updated after the write commits.
func (s *MemberService) Update(ctx context.Context, ownerID, id string, in UpdateMemberInput) (*model.Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "member id is required")
	}

	var (
		firstName, lastName, relationship string
		status                            model.MemberStatus
		err                               error
	)
	if in.FirstName != nil {
		if firstName, err = validateRequiredText("firstName", *in.FirstName); err != nil {
			return nil, err
		}
	}
	if in.LastName != nil {
		if lastName, err = validateRequiredText("lastName", *in.LastName); err != nil {
			return nil, err
		}
	}
	if in.Relationship != nil {
		if relationship, err = validateRequiredText("relationship", *in.Relationship); err != nil {
			return nil, err
		}
	}
	if in.BirthYear != nil {
		if err = validateBirthYear(*in.BirthYear); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if status, err = parseStatus(*in.Status); err != nil {
			return nil, err
		}
	}

	member, err := s.members.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		member.FirstName = firstName
	}
	if in.LastName != nil {
		member.LastName = lastName
	}
	if in.Relationship != nil {
		member.Relationship = relationship
	}
	if in.BirthYear != nil {
		member.BirthYear = *in.BirthYear
	}
	if in.Status != nil {
		member.Status = status
	}

	if err := s.members.Update(ctx, member); err != nil {
		s.logger.Error("failed to update member",
			slog.String("ownerID", ownerID),
			slog.String("memberID", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.events.Record(ctx, event.Event{
		Name:     event.MemberUpdated,
		OwnerID:  ownerID,
		MemberID: member.ID,
	})

	return member, nil
}

// Delete removes one of the owner's members. A foreign-owned id is NotFound.
// Emits member_removed after the write commits.
func (s *MemberService) Delete(ctx context.Context, ownerID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "member id is required")
	}

	if err := s.members.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.events.Record(ctx, event.Event{
		Name:     event.MemberRemoved,
		OwnerID:  ownerID,
		MemberID: id,
	})

	return nil
}
