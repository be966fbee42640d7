package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_LoginVerifyLogout(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{LoginID: "HQ001", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "company", user["accountType"])
	assert.Equal(t, "headquarter", user["role"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["valid"])

	w = env.doJSON(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/verify", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_REVOKED", decode(t, w)["error"])
}

func TestAuthController_LoginWithUserID(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{LoginID: "client01", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code)

	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "client", user["role"])
	assert.EqualValues(t, env.facility.ID, user["facilityId"])
	assert.NotContains(t, w.Body.String(), "passwordHash")
}

func TestAuthController_LoginFailures(t *testing.T) {
	env := setupAPI(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"wrong password", LoginRequest{LoginID: "HQ001", Password: "nope-nope"}, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS"},
		{"unknown id", LoginRequest{LoginID: "ghost", Password: testPassword}, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS"},
		{"missing fields", map[string]string{"loginId": "HQ001"}, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.code, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestAuthController_ProtectedRouteWithoutToken(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/companies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_UNAUTHORIZED", decode(t, w)["error"])
}

func TestAuthController_RegisterCompany(t *testing.T) {
	env := setupAPI(t)

	req := RegisterCompanyRequest{CompanyID: "BR002", Name: "福岡支社", Type: "branch", Address: "福岡市", Password: "longenough1"}

	w := env.doJSON(t, http.MethodPost, "/api/auth/companies", env.branchToken(t), req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHZ_HEADQUARTER_ONLY", decode(t, w)["error"])

	w = env.doJSON(t, http.MethodPost, "/api/auth/companies", env.hqToken(t), req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	company := decode(t, w)["company"].(map[string]interface{})
	assert.Equal(t, "BR002", company["companyId"])
	assert.Equal(t, "branch", company["type"])

	w = env.doJSON(t, http.MethodPost, "/api/auth/companies", env.hqToken(t), req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AUTH_LOGIN_ID_EXISTS", decode(t, w)["error"])
}

func TestAuthController_RegisterUser(t *testing.T) {
	env := setupAPI(t)

	req := RegisterUserRequest{UserID: "client02", Name: "鈴木", Role: "client", Password: "longenough1", FacilityID: "FAC001"}

	w := env.doJSON(t, http.MethodPost, "/api/auth/users", env.staffToken(t), req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHZ_PRESIDENT_ONLY", decode(t, w)["error"])

	w = env.doJSON(t, http.MethodPost, "/api/auth/users", env.hqToken(t), req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "longenough1")

	req.UserID = "client03"
	req.Password = "short"
	w = env.doJSON(t, http.MethodPost, "/api/auth/users", env.hqToken(t), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_INVALID_FORMAT", decode(t, w)["error"])
}
