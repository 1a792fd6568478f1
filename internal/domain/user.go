package domain

import (
	"time"
)

// User is a registered account. RefreshToken holds the single live session,
// nil when the user is logged out.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Public returns the projection exposed by the user endpoints.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Identity returns the claims that go into the user's tokens.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, Name: u.Name}
}

// HasSession reports whether token is the user's stored refresh token.
func (u *User) HasSession(token string) bool {
	return u.RefreshToken != nil && token != "" && *u.RefreshToken == token
}

// PublicUser is the id, name and email of a user. Credentials never leave
// the service.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity is what a token says about its holder.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
