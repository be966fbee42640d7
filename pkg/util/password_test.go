package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password123")

	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("mySecurePassword123")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "mySecurePassword123"))
	assert.False(t, VerifyPassword(hash, "wrongPassword"))
	assert.False(t, VerifyPassword("not-a-hash", "mySecurePassword123"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"Valid", "password123", nil},
		{"Japanese characters count as runes", "パスワード一二三", nil},
		{"Too short", "short", ErrPasswordTooShort},
		{"Too long", strings.Repeat("a", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
