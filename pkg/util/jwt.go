package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Account types carried in tokens
const (
	AccountTypeCompany = "company"
	AccountTypeUser    = "user"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Identity is the subject a token is minted for
type Identity struct {
	AccountID   uint
	AccountType string
	LoginID     string
	Role        string
	CompanyID   *uint
	FacilityID  *uint
}

type Claims struct {
	AccountID   uint   `json:"account_id"`
	AccountType string `json:"account_type"`
	LoginID     string `json:"login_id"`
	Role        string `json:"role"`
	CompanyID   *uint  `json:"company_id,omitempty"`
	FacilityID  *uint  `json:"facility_id,omitempty"`
	TokenType   string `json:"token_type"`
	jwt.RegisteredClaims
}

// Identity returns the subject encoded in the claims
func (c *Claims) Identity() Identity {
	return Identity{
		AccountID:   c.AccountID,
		AccountType: c.AccountType,
		LoginID:     c.LoginID,
		Role:        c.Role,
		CompanyID:   c.CompanyID,
		FacilityID:  c.FacilityID,
	}
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// GenerateTokenPair mints an access and a refresh token for id
func GenerateTokenPair(id Identity, secret string, accessExpiry, refreshExpiry time.Duration) (*TokenPair, error) {
	accessToken, err := generateToken(id, TokenTypeAccess, secret, accessExpiry)
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateToken(id, TokenTypeRefresh, secret, refreshExpiry)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessExpiry.Seconds()),
	}, nil
}

func generateToken(id Identity, tokenType, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID:   id.AccountID,
		AccountType: id.AccountType,
		LoginID:     id.LoginID,
		Role:        id.Role,
		CompanyID:   id.CompanyID,
		FacilityID:  id.FacilityID,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.LoginID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a token signed with secret
func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
