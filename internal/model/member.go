package model

import "time"

// MemberStatus is the lifecycle state of a member record.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s MemberStatus) Valid() bool {
	return s == MemberStatusActive || s == MemberStatusInactive
}

// Member is a dependent record owned by exactly one caregiver.
//
// OwnerID is immutable after creation. No query in the repository layer ever
// touches a member without an owner_id filter, so a member is invisible to
// every caregiver except its owner.
type Member struct {
	ID           string       `json:"id"           db:"id"`
	OwnerID      string       `json:"caregiverId"  db:"owner_id"`
	FirstName    string       `json:"firstName"    db:"first_name"`
	LastName     string       `json:"lastName"     db:"last_name"`
	Relationship string       `json:"relationship" db:"relationship"`
	BirthYear    int          `json:"birthYear"    db:"birth_year"`
	Status       MemberStatus `json:"status"       db:"status"`
	CreatedAt    time.Time    `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt"    db:"updated_at"`
}
