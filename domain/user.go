package domain

import (
	"context"
	"time"
)

// User is the slice of the account record these flows need. The full user
// model lives with the surrounding application.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	BlockedAt   *time.Time `json:"blocked_at,omitempty"`
}

// Confirmed reports whether the account has completed confirmation.
func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// UserStore defines the account lookups and the single mutation the support
// flows perform on accounts.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	MarkConfirmed(ctx context.Context, id string) error
}

// CredentialStore applies a new password for a user. Hashing is the store's
// responsibility; callers hand over the plaintext exactly once.
type CredentialStore interface {
	SetPassword(ctx context.Context, userID, plaintext string) error
}

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}
