// Package user holds user accounts and their one-to-one profiles.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User is a minimal account record. Authentication itself is external;
// the catalog only needs identity for attribution.
type User struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// Profile extends a user with free-form contact fields. It is created
// lazily on first access.
type Profile struct {
	UserID   int64
	Phone    string
	Company  string
	Position string
}

// Repository defines persistence operations for users and profiles.
//
// GetOrCreateProfile returns the user's profile, creating an empty one if
// absent. The one-to-one constraint is enforced by the store, so a
// concurrent double-create surfaces as a uniqueness violation rather than
// a second row.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	GetOrCreateProfile(ctx context.Context, userID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, p *Profile) error
}
