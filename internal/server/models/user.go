// Package models defines server-side data models persisted in the database.
package models

import "time"

// Roles assignable to a user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User holds account credentials, role, profile description and privacy
// settings. Email is stored lower-cased; uniqueness of username and email is
// enforced by the storage layer.
type User struct {
	ID                 string
	Username           string
	Email              string
	PasswordHash       string
	Role               string
	IsEmailVerified    bool
	Bio                *string
	IsProfilePublic    bool
	IsCollectionPublic bool
	CreatedAt          time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
