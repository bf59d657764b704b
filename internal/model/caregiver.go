// Package model defines the data structures used throughout the application.
package model

import "time"

// Caregiver is the authenticated owner account and the unit of access
// control: every member record belongs to exactly one caregiver.
//
// Identity lives in two places. The external provider owns credentials and
// issues tokens; we own the profile and the member data. ExternalSubjectID is
// the provider's stable user id — except that it is NOT stable across a
// provider-side account reset, which is why the reconciliation layer may
// rebind it. ID never changes once the record exists, so member ownership
// survives provider resets.
//
// The two unique keys (external_subject_id, email) are enforced by the
// database, not assumed by the code.
type Caregiver struct {
	ID                string    `json:"id"        db:"id"`
	ExternalSubjectID string    `json:"-"         db:"external_subject_id"` // provider-issued, never serialized
	Email             string    `json:"email"     db:"email"`
	Name              string    `json:"name"      db:"name"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}
