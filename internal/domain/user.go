package domain

import "time"

// ProviderGoogle identifies Google as an external identity provider.
const ProviderGoogle = "google"

// User represents an account. A user always has a Google id, an email, or both.
type User struct {
	ID           string    `json:"id"`
	GoogleID     string    `json:"-"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastLoginAt  time.Time `json:"lastLoginAt,omitzero"`
}

// RequiresDisplayName reports whether the user must choose a display name
// before creating content.
func (u *User) RequiresDisplayName() bool {
	return u.DisplayName == ""
}

// HasPassword reports whether the account can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ExternalProfile is the identity asserted by an external provider after a
// successful sign-in.
type ExternalProfile struct {
	Provider string
	ID       string
	Email    string
	Name     string
}
