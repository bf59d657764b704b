package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/rifathasan/caretrack/internal/apperror"
	"github.com/rifathasan/caretrack/internal/model"
	"github.com/rifathasan/caretrack/internal/repository"
)

// CaregiverStore implements repository.CaregiverRepository on the shared
// connection pool.
type CaregiverStore struct {
	conn *sql.DB
}

// Caregivers returns the caregiver repository backed by this database.
func (db *DB) Caregivers() *CaregiverStore {
	return &CaregiverStore{conn: db.conn}
}

var _ repository.CaregiverRepository = (*CaregiverStore)(nil)

const caregiverColumns = `id, external_subject_id, email, name, created_at, updated_at`

func scanCaregiver(row *sql.Row) (*model.Caregiver, error) {
	var c model.Caregiver
	err := row.Scan(
		&c.ID,
		&c.ExternalSubjectID,
		&c.Email,
		&c.Name,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new caregiver, generating its local ID.
// The unique indexes on email and external_subject_id turn a duplicate into
// apperror.ErrConflict with the offending field named.
func (s *CaregiverStore) Create(ctx context.Context, caregiver *model.Caregiver) error {
	now := time.Now()
	caregiver.ID = xid.New().String()
	caregiver.CreatedAt = now
	caregiver.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO caregivers (id, external_subject_id, email, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		caregiver.ID,
		caregiver.ExternalSubjectID,
		caregiver.Email,
		caregiver.Name,
		caregiver.CreatedAt,
		caregiver.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "caregivers.email") {
			return apperror.Conflict("caregiver", "email already registered")
		}
		if isUniqueViolation(err, "caregivers.external_subject_id") {
			return apperror.Conflict("caregiver", "subject id already bound")
		}
		return fmt.Errorf("sqlite: inserting caregiver (email=%s): %w", caregiver.Email, err)
	}
	return nil
}

// GetBySubjectID retrieves a caregiver by the provider-issued subject id.
// This is the reconciliation fast path, hit on every authenticated request.
func (s *CaregiverStore) GetBySubjectID(ctx context.Context, subjectID string) (*model.Caregiver, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+caregiverColumns+` FROM caregivers WHERE external_subject_id = ?`, subjectID)

	c, err := scanCaregiver(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("caregiver", subjectID)
		}
		return nil, fmt.Errorf("sqlite: getting caregiver by subject %s: %w", subjectID, err)
	}
	return c, nil
}

// GetByEmail retrieves a caregiver by email — the fallback correlation key
// when the provider-side account was recreated.
func (s *CaregiverStore) GetByEmail(ctx context.Context, email string) (*model.Caregiver, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+caregiverColumns+` FROM caregivers WHERE email = ?`, email)

	c, err := scanCaregiver(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("caregiver", email)
		}
		return nil, fmt.Errorf("sqlite: getting caregiver by email %s: %w", email, err)
	}
	return c, nil
}

// RebindSubjectID points the caregiver with this email at a new provider
// subject id. A single UPDATE keyed on the unique email column: concurrent
// heals for the same caregiver target the same row, so the slower writer
// just overwrites the faster one with the same value. The path never
// inserts, so no duplicate caregiver can appear.
func (s *CaregiverStore) RebindSubjectID(ctx context.Context, email, subjectID string) (*model.Caregiver, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE caregivers SET external_subject_id = ?, updated_at = ? WHERE email = ?`,
		subjectID, time.Now(), email)
	if err != nil {
		if isUniqueViolation(err, "caregivers.external_subject_id") {
			// Another caregiver already holds this subject id — resolving
			// it here would steal their identity, so surface a conflict.
			return nil, apperror.Conflict("caregiver", "subject id already bound")
		}
		return nil, fmt.Errorf("sqlite: rebinding subject for %s: %w", email, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: rebinding subject for %s: %w", email, err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("caregiver", email)
	}

	return s.GetByEmail(ctx, email)
}
