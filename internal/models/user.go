package models

import "time"

// User represents a user in the system
type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"displayname"`
	PasswordHash     string    `json:"-"` // Not serialized
	DeleteToken      string    `json:"-"`
	DeleteTokenSetAt time.Time `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Form round-trip state for the account settings page. Never persisted.
	NewPassword          string `json:"-"`
	PasswordConfirmation string `json:"-"`
	InvalidPasswordGiven bool   `json:"-"`
}

// Name returns the display name, falling back to the username
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
