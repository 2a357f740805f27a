package domain

import "time"

// UserRole differentiates administrators from field contractors.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleContractor UserRole = "contractor"
)

// Valid reports whether the role is a known value.
func (r UserRole) Valid() bool {
	return r == UserRoleAdmin || r == UserRoleContractor
}

// User is the domain model for accounts that create and work tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Caller is the identity projection attached to every request. Tickets are
// owned by email identity, so Email is the scoping key for non-admins.
type Caller struct {
	ID    string
	Email string
	Role  UserRole
}

// Caller derives the request-scoped identity from a user record.
func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Email: u.Email, Role: u.Role}
}
