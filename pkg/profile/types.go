package profile

import "time"

// Profile is the local per-subject record. Exactly one exists per subject;
// it never exists without a corresponding identity record upstream and is
// destroyed only as a cascade of upstream deletion.
type Profile struct {
	Subject     string    `json:"subject"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Partial carries a merge update: nil fields are left unchanged, non-nil
// fields overwrite. There is no way to null out a field through a merge.
type Partial struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// IsEmpty reports whether the partial carries no fields.
func (p Partial) IsEmpty() bool {
	return p.Email == nil && p.DisplayName == nil && p.AvatarURL == nil
}

// Status classifies a synchronizer result.
type Status string

const (
	StatusFound    Status = "found"
	StatusCreated  Status = "created"
	StatusUpdated  Status = "updated"
	StatusNotFound Status = "not_found"
)

// Result is the outcome of a synchronizer operation. Profile is nil when
// Status is StatusNotFound.
type Result struct {
	Status  Status
	Profile *Profile
}

// String pointer helper for building partials.
func String(s string) *string { return &s }
