package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func uploadReceipt(t *testing.T, env *testAPI, token, name string, fields map[string]string) map[string]interface{} {
	t.Helper()
	w := env.doMultipart(t, http.MethodPost, "/api/auth/facilities/FAC001/receipts", token, "receipt", name, "image/png", pngBytes(t), fields)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["receipt"].(map[string]interface{})
}

func TestReceiptController_UploadWithoutMetadataFilesUnderCurrentMonth(t *testing.T) {
	env := setupAPI(t)
	token := env.staffToken(t)

	receipt := uploadReceipt(t, env, token, "slip.png", nil)
	month := jst.MonthKey(jst.Now())
	assert.Equal(t, month, receipt["month"])

	w := env.doJSON(t, http.MethodGet, "/api/auth/facilities/FAC001/receipts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 1, body["totalCount"])
	months := body["months"].([]interface{})
	require.Len(t, months, 1)
	assert.Equal(t, month, months[0].(map[string]interface{})["month"])
}

func TestReceiptController_ExportMonth(t *testing.T) {
	env := setupAPI(t)
	token := env.staffToken(t)

	uploadReceipt(t, env, token, "a.png", map[string]string{"title": "洗剤", "amount": "1,280"})
	uploadReceipt(t, env, token, "b.png", map[string]string{"title": "ゴミ袋", "amount": "420"})

	month := jst.MonthKey(jst.Now())
	w := env.doJSON(t, http.MethodGet, "/api/auth/facilities/FAC001/receipts/export?month="+month, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("receipts_FAC001_%s.xlsx", month))

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("領収書")
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	w = env.doJSON(t, http.MethodGet, "/api/auth/facilities/FAC001/receipts/export", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_REQUIRED", decode(t, w)["error"])

	w = env.doJSON(t, http.MethodGet, "/api/auth/facilities/FAC001/receipts/export?month=2024-13", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiptController_DeleteAndBatch(t *testing.T) {
	env := setupAPI(t)
	token := env.staffToken(t)

	first := uploadReceipt(t, env, token, "1.png", nil)
	second := uploadReceipt(t, env, token, "2.png", nil)
	third := uploadReceipt(t, env, token, "3.png", nil)
	require.Equal(t, 3, env.store.Len())

	w := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/auth/receipts/%d", uint(first["id"].(float64))), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/auth/receipts/batch-delete", token, map[string]interface{}{
		"receiptIds": []uint{uint(second["id"].(float64)), uint(third["id"].(float64)), uint(first["id"].(float64))},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["succeeded"])
	assert.EqualValues(t, 1, body["failed"])
	assert.Zero(t, env.store.Len())
}

func TestReceiptController_OtherCompanyIsForbidden(t *testing.T) {
	env := setupAPI(t)

	w := env.doMultipart(t, http.MethodPost, "/api/auth/facilities/FAC001/receipts", env.branchToken(t), "receipt", "x.png", "image/png", pngBytes(t), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/facilities/FAC001/receipts", env.branchToken(t), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
