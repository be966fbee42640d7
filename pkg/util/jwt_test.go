package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func staffIdentity() Identity {
	companyID := uint(7)
	return Identity{
		AccountID:   42,
		AccountType: AccountTypeUser,
		LoginID:     "staff01",
		Role:        "staff",
		CompanyID:   &companyID,
	}
}

func TestGenerateTokenPair(t *testing.T) {
	tokens, err := GenerateTokenPair(staffIdentity(), testSecret, 15*time.Minute, 7*24*time.Hour)

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
	assert.Equal(t, int64(900), tokens.ExpiresIn)
}

func TestValidateToken(t *testing.T) {
	tokens, err := GenerateTokenPair(staffIdentity(), testSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "Valid access token", token: tokens.AccessToken, secret: testSecret},
		{name: "Valid refresh token", token: tokens.RefreshToken, secret: testSecret},
		{name: "Invalid secret", token: tokens.AccessToken, secret: "wrong-secret", wantErr: ErrInvalidToken},
		{name: "Invalid token format", token: "invalid.token.format", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "Empty token", token: "", secret: testSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(42), claims.AccountID)
			assert.Equal(t, "staff01", claims.LoginID)
			assert.Equal(t, "staff", claims.Role)
			require.NotNil(t, claims.CompanyID)
			assert.Equal(t, uint(7), *claims.CompanyID)
		})
	}
}

func TestValidateToken_TokenTypes(t *testing.T) {
	tokens, err := GenerateTokenPair(staffIdentity(), testSecret, time.Minute, time.Hour)
	require.NoError(t, err)

	access, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.TokenType)

	refresh, err := ValidateToken(tokens.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
}

func TestExpiredToken(t *testing.T) {
	tokens, err := GenerateTokenPair(staffIdentity(), testSecret, -time.Minute, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestClaimsIdentityRoundTrip(t *testing.T) {
	id := staffIdentity()
	tokens, err := GenerateTokenPair(id, testSecret, time.Minute, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
}
