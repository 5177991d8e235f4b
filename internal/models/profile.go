package models

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// Profile is a read-only projection of a user for display purposes
type Profile struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// GetProfile derives the display profile from a user record
func GetProfile(user *User) Profile {
	return Profile{
		Name:  user.Name(),
		Photo: gravatarURL(user.Email),
	}
}

func gravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon", md5.Sum([]byte(normalized)))
}
