package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientApplication_CreateNotifiesCompanyStaff(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/client-applications", env.clientToken(t), CreateApplicationRequest{
		RoomType:      "キッチン",
		Notes:         "換気扇の油汚れ",
		RequestedDate: "2024-04-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	app := decode(t, w)["application"].(map[string]interface{})
	assert.Equal(t, "pending", app["status"])

	staff := env.staffToken(t)
	w = env.doJSON(t, http.MethodGet, "/api/auth/notifications/unread-count", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/notifications", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	notifications := list["notifications"].([]interface{})
	require.Len(t, notifications, 1)
	id := uint(notifications[0].(map[string]interface{})["id"].(float64))

	// another user cannot mark it read
	w = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/auth/notifications/%d/read", id), env.clientToken(t), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/auth/notifications/%d/read", id), staff, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/notifications/unread-count", staff, nil)
	assert.EqualValues(t, 0, decode(t, w)["count"])
}

func TestClientApplication_ListAndUpdateStatus(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/client-applications", env.clientToken(t), CreateApplicationRequest{RoomType: "お風呂"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := uint(decode(t, w)["application"].(map[string]interface{})["id"].(float64))
	path := fmt.Sprintf("/api/auth/client-applications/%d/status", id)

	w = env.doJSON(t, http.MethodGet, "/api/auth/client-applications?facilityId=FAC001", env.staffToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/client-applications?facilityId=FAC001", env.branchToken(t), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodPatch, path, env.clientToken(t), UpdateApplicationStatusRequest{Status: "completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodPatch, path, env.staffToken(t), UpdateApplicationStatusRequest{Status: "done"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doJSON(t, http.MethodPatch, path, env.staffToken(t), UpdateApplicationStatusRequest{Status: "accepted"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accepted", decode(t, w)["application"].(map[string]interface{})["status"])

	// the applicant is told about the change
	w = env.doJSON(t, http.MethodGet, "/api/auth/notifications/unread-count", env.clientToken(t), nil)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = env.doJSON(t, http.MethodPut, "/api/auth/notifications/read-all", env.clientToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.doJSON(t, http.MethodGet, "/api/auth/notifications/unread-count", env.clientToken(t), nil)
	assert.EqualValues(t, 0, decode(t, w)["count"])
}

func TestNotificationController_CompanyAccountHasEmptyInbox(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/notifications", env.hqToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["notifications"])

	w = env.doJSON(t, http.MethodPut, "/api/auth/notifications/abc/read", env.hqToken(t), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuidelineController_List(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/guidelines?roomType="+url.QueryEscape("トイレ"), env.staffToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/guidelines?roomType="+url.QueryEscape("屋上"), env.staffToken(t), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResponses_RenderTimestampsInJST(t *testing.T) {
	env := setupAPI(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/client-applications", env.clientToken(t), CreateApplicationRequest{
		RoomType:      "トイレ",
		RequestedDate: "2024-04-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	app := decode(t, w)["application"].(map[string]interface{})
	assert.Equal(t, "2024-04-01T00:00:00+09:00", app["requestedDate"])
	assert.True(t, strings.HasSuffix(app["createdAt"].(string), "+09:00"), app["createdAt"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/client-applications?facilityId=FAC001", env.staffToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode(t, w)["applications"].([]interface{})[0].(map[string]interface{})
	assert.True(t, strings.HasSuffix(listed["updatedAt"].(string), "+09:00"), listed["updatedAt"])
	fac := listed["facility"].(map[string]interface{})
	assert.True(t, strings.HasSuffix(fac["createdAt"].(string), "+09:00"), fac["createdAt"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/notifications", env.staffToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	n := decode(t, w)["notifications"].([]interface{})[0].(map[string]interface{})
	assert.True(t, strings.HasSuffix(n["createdAt"].(string), "+09:00"), n["createdAt"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/companies/HQ001/facilities", env.hqToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	f := decode(t, w)["facilities"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "FAC001", f["facilityId"])
	assert.True(t, strings.HasSuffix(f["createdAt"].(string), "+09:00"), f["createdAt"])
}
