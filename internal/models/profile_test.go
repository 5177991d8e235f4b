package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName_FallsBackToUsername(t *testing.T) {
	user := &User{Username: "alice"}
	require.Equal(t, "alice", user.Name())

	user.DisplayName = "Alice A."
	require.Equal(t, "Alice A.", user.Name())
}

func TestGetProfile_DerivesGravatarPhoto(t *testing.T) {
	user := &User{Username: "alice", Email: "Alice@Example.COM "}
	profile := GetProfile(user)

	require.Equal(t, "alice", profile.Name)
	// hash of the lowercased, trimmed address
	require.Equal(t, "https://www.gravatar.com/avatar/c160f8cc69a4f0bf2b0362752353d060?d=identicon", profile.Photo)
}
