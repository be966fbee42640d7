package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func intPtr(v int) *int { return &v }

func TestReceiptMonthKey(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		receipt model.Receipt
		want    string
	}{
		{
			name:    "uploaded late on the last day UTC is next month in JST",
			receipt: model.Receipt{UploadedAt: time.Date(2024, 1, 31, 15, 30, 0, 0, time.UTC)},
			want:    "2024-02",
		},
		{
			name:    "uploaded at wins over legacy columns",
			receipt: model.Receipt{UploadedAt: time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC), Year: intPtr(2020), Month: intPtr(7)},
			want:    "2024-03",
		},
		{
			name:    "legacy columns when uploaded at is missing",
			receipt: model.Receipt{Year: intPtr(2021), Month: intPtr(11)},
			want:    "2021-11",
		},
		{
			name:    "nothing recorded falls back to now",
			receipt: model.Receipt{},
			want:    "2024-06",
		},
		{
			name:    "invalid legacy month falls back to now",
			receipt: model.Receipt{Year: intPtr(2021), Month: intPtr(13)},
			want:    "2024-06",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReceiptMonthKey(&tt.receipt, now))
		})
	}
}

func TestReceiptService_UploadListAndExport(t *testing.T) {
	env := setupEnv(t)
	svc := env.receiptService().(*receiptService)
	svc.now = func() time.Time { return time.Date(2024, 4, 30, 16, 0, 0, 0, time.UTC) } // 2024-05-01 01:00 JST

	ctx := context.Background()
	r1, err := svc.Upload(ctx, env.staffIdentity(), "FAC001", ReceiptUploadInput{
		File:      UploadFile{Data: pdfBytes(), Name: "receipt.pdf", ContentType: "application/pdf"},
		Title:     "洗剤",
		StoreName: "ドラッグストア",
		Amount:    "1,980",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05", r1.Month)
	assert.True(t, decimal.NewFromInt(1980).Equal(r1.Amount))
	assert.Equal(t, "application/pdf", r1.ContentType)

	_, err = svc.Upload(ctx, env.staffIdentity(), "FAC001", ReceiptUploadInput{
		File:   UploadFile{Data: jpegBytes(t), Name: "slip.jpg"},
		Amount: "500",
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC) }
	_, err = svc.Upload(ctx, env.staffIdentity(), "FAC001", ReceiptUploadInput{
		File: UploadFile{Data: pngBytes(t), Name: "june.png"},
	})
	require.NoError(t, err)

	months, err := svc.List(env.clientIdentity(), "FAC001")
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-06", months[0].Month)
	assert.Equal(t, "2024-05", months[1].Month)
	assert.Equal(t, 2, months[1].Count)
	assert.True(t, decimal.NewFromInt(2480).Equal(months[1].Total))

	data, filename, err := svc.ExportMonth(env.staffIdentity(), "FAC001", "2024-05")
	require.NoError(t, err)
	assert.Equal(t, "receipts_FAC001_2024-05.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(receiptSheet)
	require.NoError(t, err)
	// title, blank, header, two receipts, blank, total
	require.Len(t, rows, 7)
	assert.Equal(t, "タイトル", rows[2][2])
	assert.Equal(t, "合計", rows[6][3])
	assert.Equal(t, "2480", rows[6][4])
}

func TestReceiptService_Rejections(t *testing.T) {
	env := setupEnv(t)
	svc := env.receiptService()
	ctx := context.Background()

	_, err := svc.Upload(ctx, env.staffIdentity(), "FAC001", ReceiptUploadInput{
		File: UploadFile{Data: []byte("plain text"), Name: "a.txt"},
	})
	assert.ErrorIs(t, err, ErrInvalidFileType)

	_, err = svc.Upload(ctx, env.staffIdentity(), "FAC001", ReceiptUploadInput{
		File:   UploadFile{Data: pngBytes(t), Name: "a.png"},
		Amount: "-5",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Upload(ctx, env.branchAccount(), "FAC001", ReceiptUploadInput{
		File: UploadFile{Data: pngBytes(t), Name: "a.png"},
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.ExportMonth(env.staffIdentity(), "FAC001", "2024-13")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestReceiptService_DeleteAndBatchDelete(t *testing.T) {
	env := setupEnv(t)
	svc := env.receiptService()
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 2; i++ {
		r, err := svc.Upload(ctx, env.staffIdentity(), "FAC001", ReceiptUploadInput{
			File: UploadFile{Data: pngBytes(t), Name: "r.png"},
		})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	require.Equal(t, 2, env.store.Len())

	require.NoError(t, svc.Delete(ctx, env.staffIdentity(), ids[0]))
	assert.ErrorIs(t, svc.Delete(ctx, env.staffIdentity(), ids[0]), ErrReceiptNotFound)

	res, err := svc.BatchDelete(ctx, env.staffIdentity(), BatchIDs{IDs: []uint{ids[0], ids[1]}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, env.store.Len())
}
