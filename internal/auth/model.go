package auth

import "time"

// User represents a row in the users table.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID int64
	Name   string
	Email  string
}

func identityFor(u *User) *Identity {
	return &Identity{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
	}
}
