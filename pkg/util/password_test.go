package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordProblem(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"sign-up example", "Password123!", ""},
		{"exactly minimum length", "Sunflow4", ""},
		{"one short of minimum", "Sunflo4", "Password must be at least 8 characters"},
		{"empty", "", "Password must be at least 8 characters"},
		{"no uppercase", "sunflower42", "Password must contain at least one uppercase letter"},
		{"no lowercase", "SUNFLOWER42", "Password must contain at least one lowercase letter"},
		{"no digit", "Sunflowers", "Password must contain at least one number"},
		{"length reported before case", "abc", "Password must be at least 8 characters"},
		{"uppercase reported before digit", "sunflowers", "Password must contain at least one uppercase letter"},
		{"symbols do not count as digits", "Sunflower!!", "Password must contain at least one number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PasswordProblem(tt.password))
		})
	}
}

func TestHashPassword_AcceptedPasswordRoundTrips(t *testing.T) {
	password := "Password123!"
	require.Empty(t, PasswordProblem(password))

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hash)

	assert.True(t, VerifyPassword(hash, password))
	assert.False(t, VerifyPassword(hash, "password123!"))
	assert.False(t, VerifyPassword("not-a-hash", password))
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
