package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

// stubVerifier validates signatures and treats revoked ids as logged out
type stubVerifier struct {
	revoked map[string]bool
	down    bool
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (*util.Claims, error) {
	claims, err := util.ValidateToken(token, testJWTSecret)
	if err != nil {
		return nil, err
	}
	if v.down {
		return nil, context.DeadlineExceeded
	}
	if v.revoked[claims.ID] {
		return nil, util.ErrRevokedToken
	}
	return claims, nil
}

func setupMiddlewareTest(v *stubVerifier) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	return router, NewAuthMiddleware(v)
}

func staffIdentity() util.Identity {
	companyID := uint(3)
	return util.Identity{AccountID: 11, AccountType: util.AccountTypeUser, LoginID: "staff01", Role: "staff", CompanyID: &companyID}
}

func generateTestTokens(t *testing.T, id util.Identity, accessExpiry time.Duration) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(id, testJWTSecret, accessExpiry, 7*24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["error"].(string)
	return code
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, auth := setupMiddlewareTest(&stubVerifier{})
	tokens := generateTestTokens(t, staffIdentity(), 15*time.Minute)

	router.GET("/test", auth.Authenticate(), func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		require.True(t, ok)
		token, _ := GetToken(c)
		c.JSON(http.StatusOK, gin.H{"loginId": identity.LoginID, "companyId": *identity.CompanyID, "tokenSet": token != ""})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"loginId":"staff01","companyId":3,"tokenSet":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware_Authenticate_QueryToken(t *testing.T) {
	router, auth := setupMiddlewareTest(&stubVerifier{})
	tokens := generateTestTokens(t, staffIdentity(), 15*time.Minute)
	router.GET("/ws", auth.Authenticate(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+tokens.AccessToken, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Authenticate_Failures(t *testing.T) {
	valid := generateTestTokens(t, staffIdentity(), 15*time.Minute)
	expired := generateTestTokens(t, staffIdentity(), -time.Minute)
	revokedClaims, err := util.ValidateToken(valid.AccessToken, testJWTSecret)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *stubVerifier
		header   string
		status   int
		code     string
	}{
		{"missing", &stubVerifier{}, "", http.StatusUnauthorized, "AUTH_UNAUTHORIZED"},
		{"bad format", &stubVerifier{}, "Token abc", http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
		{"garbage", &stubVerifier{}, "Bearer not-a-jwt", http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
		{"expired", &stubVerifier{}, "Bearer " + expired.AccessToken, http.StatusUnauthorized, "AUTH_TOKEN_EXPIRED"},
		{"revoked", &stubVerifier{revoked: map[string]bool{revokedClaims.ID: true}}, "Bearer " + valid.AccessToken, http.StatusUnauthorized, "AUTH_TOKEN_REVOKED"},
		{"refresh token", &stubVerifier{}, "Bearer " + valid.RefreshToken, http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
		{"blacklist down", &stubVerifier{down: true}, "Bearer " + valid.AccessToken, http.StatusServiceUnavailable, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, auth := setupMiddlewareTest(tt.verifier)
			router.GET("/test", auth.Authenticate(), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	router, auth := setupMiddlewareTest(&stubVerifier{})
	router.POST("/companies", auth.Authenticate(), auth.RequireRole("AUTHZ_HEADQUARTER_ONLY", "headquarter"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	companyID := uint(1)
	hq := util.Identity{AccountID: 1, AccountType: util.AccountTypeCompany, LoginID: "HQ001", Role: "headquarter", CompanyID: &companyID}

	for _, tc := range []struct {
		id     util.Identity
		status int
	}{
		{hq, http.StatusCreated},
		{staffIdentity(), http.StatusForbidden},
	} {
		tokens := generateTestTokens(t, tc.id, time.Minute)
		req := httptest.NewRequest(http.MethodPost, "/companies", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.id.LoginID)
		if tc.status == http.StatusForbidden {
			assert.Equal(t, "AUTHZ_HEADQUARTER_ONLY", errorCode(t, w))
		}
	}
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	router, _ := setupMiddlewareTest(&stubVerifier{})
	router.GET("/health", func(c *gin.Context) {
		assert.Equal(t, "req-123", c.GetString("request_id"))
		assert.NotNil(t, GetLoggerFromContext(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health?token=secret", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
