package service

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const receiptSheet = "領収書"

var receiptHeaders = []interface{}{"No.", "日付", "タイトル", "店舗", "金額（円）", "備考", "URL"}

func renderReceiptWorkbook(facility *model.Facility, month string, receipts []ReceiptView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", receiptSheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}

	if err := f.SetSheetRow(receiptSheet, "A1", &[]interface{}{facility.Name + "（" + facility.Code + "）", month}); err != nil {
		return nil, errors.Wrap(err, "write title row")
	}
	if err := f.SetSheetRow(receiptSheet, "A3", &receiptHeaders); err != nil {
		return nil, errors.Wrap(err, "write header row")
	}

	total := decimal.Zero
	row := 4
	for i, r := range receipts {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		amount, _ := r.Amount.Float64()
		values := []interface{}{
			i + 1,
			jst.FormatDate(r.UploadedAt.Time),
			r.Title,
			r.StoreName,
			amount,
			r.Notes,
			r.URL,
		}
		if err := f.SetSheetRow(receiptSheet, cell, &values); err != nil {
			return nil, errors.Wrapf(err, "write receipt row %d", row)
		}
		total = total.Add(r.Amount)
		row++
	}

	totalCell, err := excelize.CoordinatesToCellName(4, row+1)
	if err != nil {
		return nil, err
	}
	grand, _ := total.Float64()
	if err := f.SetSheetRow(receiptSheet, totalCell, &[]interface{}{"合計", grand}); err != nil {
		return nil, errors.Wrap(err, "write total row")
	}

	if err := f.SetColWidth(receiptSheet, "C", "D", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(receiptSheet, "G", "G", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "encode workbook")
	}
	return buf.Bytes(), nil
}
