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

// MemberStore implements repository.MemberRepository on the shared
// connection pool.
type MemberStore struct {
	conn *sql.DB
}

// Members returns the member repository backed by this database.
func (db *DB) Members() *MemberStore {
	return &MemberStore{conn: db.conn}
}

var _ repository.MemberRepository = (*MemberStore)(nil)

const memberColumns = `id, owner_id, first_name, last_name, relationship, birth_year, status, created_at, updated_at`

// Every query below filters on owner_id. The ownership check and the
// existence check are the same WHERE clause — a member owned by someone else
// produces sql.ErrNoRows exactly like a member that does not exist.

// Create inserts a new member for its owner, generating the local ID.
func (s *MemberStore) Create(ctx context.Context, member *model.Member) error {
	now := time.Now()
	member.ID = xid.New().String()
	member.CreatedAt = now
	member.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO members (id, owner_id, first_name, last_name, relationship, birth_year, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.OwnerID,
		member.FirstName,
		member.LastName,
		member.Relationship,
		member.BirthYear,
		string(member.Status),
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting member (owner=%s): %w", member.OwnerID, err)
	}
	return nil
}

// GetByID retrieves one member scoped to its owner.
func (s *MemberStore) GetByID(ctx context.Context, ownerID, id string) (*model.Member, error) {
	var m model.Member
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(
		&m.ID,
		&m.OwnerID,
		&m.FirstName,
		&m.LastName,
		&m.Relationship,
		&m.BirthYear,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("member", id)
		}
		return nil, fmt.Errorf("sqlite: getting member %s: %w", id, err)
	}
	return &m, nil
}

// ListByOwner returns all members for one caregiver, oldest first.
func (s *MemberStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Member, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE owner_id = ? ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing members for %s: %w", ownerID, err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(
			&m.ID,
			&m.OwnerID,
			&m.FirstName,
			&m.LastName,
			&m.Relationship,
			&m.BirthYear,
			&m.Status,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating member rows: %w", err)
	}

	return members, nil
}

// Update persists the member's mutable fields, keyed on (id, owner_id).
func (s *MemberStore) Update(ctx context.Context, member *model.Member) error {
	member.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE members
		 SET first_name = ?, last_name = ?, relationship = ?, birth_year = ?, status = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		member.FirstName,
		member.LastName,
		member.Relationship,
		member.BirthYear,
		string(member.Status),
		member.UpdatedAt,
		member.ID,
		member.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating member %s: %w", member.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating member %s: %w", member.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("member", member.ID)
	}
	return nil
}

// Delete removes the member, keyed on (id, owner_id).
func (s *MemberStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM members WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting member %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting member %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("member", id)
	}
	return nil
}
