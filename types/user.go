package types

import "time"

// Roles a user can register with. Organizers manage events; attendees
// join them. A user holds exactly one role for its whole lifetime.
const (
	RoleOrganizer = "organizer"
	RoleAttendee  = "attendee"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the display name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Globally unique.
	Email string `json:"email" db:"email"`

	// Role is either "organizer" or "attendee" and decides which
	// event operations the user is allowed to perform.
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Ref returns the identity projection used when a user appears inside
// an event payload.
func (u User) Ref() UserRef {
	return UserRef{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// UserRef is the display form of a user embedded in event responses.
type UserRef struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
