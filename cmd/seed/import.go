package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"gorm.io/gorm"
)

// cell returns the trimmed value at i, or "" when the row is short
func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// parseGuidelines reads: 部屋 | 手順番号 | タイトル | 説明 | 画像URL. The first row is a header.
func parseGuidelines(rows [][]string) ([]model.CleaningGuideline, int) {
	var out []model.CleaningGuideline
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		roomType := cell(row, 0)
		step, err := strconv.Atoi(cell(row, 1))
		title := cell(row, 2)
		if !model.IsValidRoomType(roomType) || err != nil || step <= 0 || title == "" {
			skipped++
			continue
		}
		out = append(out, model.CleaningGuideline{
			RoomType:    roomType,
			StepNumber:  step,
			Title:       title,
			Description: cell(row, 3),
			ImageURL:    cell(row, 4),
		})
	}
	return out, skipped
}

type facilityRow struct {
	CompanyCode string
	Facility    model.Facility
}

// parseFacilities reads: 会社ID | 施設ID | 施設名 | 住所 | 部屋 (comma or 、 separated)
func parseFacilities(rows [][]string) ([]facilityRow, int) {
	var out []facilityRow
	skipped := 0
	seen := make(map[string]bool)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		companyCode := cell(row, 0)
		facilityID := cell(row, 1)
		name := cell(row, 2)
		if companyCode == "" || facilityID == "" || name == "" || seen[facilityID] {
			skipped++
			continue
		}

		rooms, ok := parseRoomTypes(cell(row, 4))
		if !ok {
			skipped++
			continue
		}
		seen[facilityID] = true

		out = append(out, facilityRow{
			CompanyCode: companyCode,
			Facility: model.Facility{
				Code:      facilityID,
				Name:      name,
				Address:   cell(row, 3),
				RoomTypes: rooms,
			},
		})
	}
	return out, skipped
}

func parseRoomTypes(s string) ([]string, bool) {
	if s == "" {
		return nil, true
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '、'
	})
	rooms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !model.IsValidRoomType(p) {
			return nil, false
		}
		rooms = append(rooms, p)
	}
	return rooms, true
}

type facilityImporter struct {
	companies  repository.CompanyRepository
	facilities repository.FacilityRepository
}

// Import creates missing facilities; existing facility IDs are left untouched
func (im *facilityImporter) Import(rows []facilityRow) (created, existing int, err error) {
	companyIDs := make(map[string]uint)
	for _, row := range rows {
		companyID, ok := companyIDs[row.CompanyCode]
		if !ok {
			company, err := im.companies.FindByCompanyID(row.CompanyCode)
			if err != nil {
				return created, existing, fmt.Errorf("company %s: %w", row.CompanyCode, err)
			}
			companyID = company.ID
			companyIDs[row.CompanyCode] = companyID
		}

		_, err := im.facilities.FindByFacilityID(row.Facility.Code)
		if err == nil {
			existing++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, existing, err
		}

		facility := row.Facility
		facility.CompanyID = companyID
		if err := im.facilities.Create(&facility); err != nil {
			return created, existing, fmt.Errorf("facility %s: %w", facility.Code, err)
		}
		created++
	}
	return created, existing, nil
}
