package controller

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyController_ListCompaniesByScope(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/companies", env.hqToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/companies", env.branchToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.EqualValues(t, 1, body["count"])
	only := body["companies"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "BR001", only["companyId"])
	assert.Equal(t, "branch", only["type"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/companies", env.clientToken(t), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCompanyController_Facilities(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/companies/HQ001/facilities", env.hqToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/companies/HQ001/facilities", env.branchToken(t), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/companies/NOPE/facilities", env.hqToken(t), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "COMPANY_NOT_FOUND", decode(t, w)["error"])

	req := CreateFacilityRequest{FacilityID: "FAC102", Name: "難波ハウス", Address: "大阪市", RoomTypes: []string{"トイレ", "キッチン"}}
	w = env.doJSON(t, http.MethodPost, "/api/auth/companies/BR001/facilities", env.branchToken(t), req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.doJSON(t, http.MethodPost, "/api/auth/companies/BR001/facilities", env.branchToken(t), req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req.FacilityID = "FAC103"
	req.RoomTypes = []string{"屋上"}
	w = env.doJSON(t, http.MethodPost, "/api/auth/companies/BR001/facilities", env.branchToken(t), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompanyController_HierarchyScope(t *testing.T) {
	env := setupAPI(t)
	token := env.staffToken(t)
	recordID, _ := findOrCreate(t, env, token)
	uploadImage(t, env, token, recordID, "x.png", "before")

	w := env.doJSON(t, http.MethodGet, "/api/auth/company/uploads/hierarchy", env.branchToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Empty(t, body["hierarchy"])
	assert.EqualValues(t, 0, body["totalCount"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/company/uploads/hierarchy?companyId=HQ001", env.branchToken(t), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/company/uploads/hierarchy?companyId=HQ001", env.hqToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["totalCount"])
}

func TestUploadController_SignedURLs(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/uploads/signed-url", env.staffToken(t), map[string]string{
		"fileName":    "big.jpg",
		"contentType": "image/jpeg",
		"folder":      "cleaning/FAC001/2024-03-15/トイレ/before",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	grant := decode(t, w)
	assert.NotEmpty(t, grant["uploadUrl"])
	assert.Contains(t, grant["path"], "cleaning/FAC001/")

	w = env.doJSON(t, http.MethodGet, "/api/auth/uploads/signed-read?path="+url.QueryEscape(grant["path"].(string)), env.clientToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["url"])

	w = env.doJSON(t, http.MethodPost, "/api/auth/uploads/signed-url", env.clientToken(t), map[string]string{
		"fileName": "x.jpg", "contentType": "image/jpeg", "folder": "cleaning/FAC001",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/auth/uploads/signed-url", env.staffToken(t), map[string]string{
		"fileName": "x.jpg", "contentType": "image/jpeg", "folder": "../etc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/uploads/signed-read", env.staffToken(t), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
