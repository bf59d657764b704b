// Package repository defines the storage interfaces consumed by the service
// layer. Services depend on these interfaces, never on the sqlite package —
// tests inject in-memory mocks, production injects the sqlite implementation.
package repository

import (
	"context"

	"github.com/rifathasan/caretrack/internal/model"
)

// CaregiverRepository is the system-of-record for caregiver profiles.
//
// Create returns apperror.ErrConflict when the email or external subject id
// is already taken (the database enforces both unique keys). The lookup
// methods return apperror.ErrNotFound for a missing record.
type CaregiverRepository interface {
	Create(ctx context.Context, caregiver *model.Caregiver) error
	GetBySubjectID(ctx context.Context, subjectID string) (*model.Caregiver, error)
	GetByEmail(ctx context.Context, email string) (*model.Caregiver, error)

	// RebindSubjectID points the caregiver identified by email at a new
	// provider subject id and returns the updated record. This is the
	// reconciliation heal: a single guarded UPDATE on the unique email key,
	// safe to run concurrently (the last writer overwrites idempotently, and
	// no new row can appear). Returns apperror.ErrNotFound if no caregiver
	// has that email.
	RebindSubjectID(ctx context.Context, email, subjectID string) (*model.Caregiver, error)
}

// MemberRepository stores dependent records. Every method takes the owning
// caregiver's id and applies it as an equality filter — there is deliberately
// no way to address a member without naming its owner.
//
// Update and Delete return apperror.ErrNotFound when no row matches both the
// member id and the owner id; a foreign-owned member is indistinguishable
// from a missing one.
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Member, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Member, error)
	Update(ctx context.Context, member *model.Member) error
	Delete(ctx context.Context, ownerID, id string) error
}
