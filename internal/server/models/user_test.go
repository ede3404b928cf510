package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONOmitsSecrets(t *testing.T) {
	u := &User{
		ID:           "u-1",
		Name:         "Ann",
		Age:          30,
		Email:        "ann@example.com",
		PasswordHash: "$2a$08$hash",
		Tokens:       []string{"tok-1", "tok-2"},
		Avatar:       []byte{0x89, 'P', 'N', 'G'},
		CreatedAt:    time.Unix(0, 0).UTC(),
		UpdatedAt:    time.Unix(0, 0).UTC(),
	}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	var view map[string]any
	require.NoError(t, json.Unmarshal(b, &view))

	assert.Equal(t, "u-1", view["id"])
	assert.Equal(t, "ann@example.com", view["email"])
	for _, k := range []string{"PasswordHash", "passwordHash", "password", "Tokens", "tokens", "Avatar", "avatar"} {
		assert.NotContains(t, view, k)
	}
	assert.NotContains(t, string(b), "$2a$08$hash")
	assert.NotContains(t, string(b), "tok-1")
}

func TestUser_HasToken(t *testing.T) {
	u := &User{Tokens: []string{"a", "b"}}
	assert.True(t, u.HasToken("b"))
	assert.False(t, u.HasToken("c"))
	assert.False(t, (&User{}).HasToken(""))
}
