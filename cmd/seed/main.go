package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kireiworks/cleaning-backend/config"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

const usage = `Usage:
  go run ./cmd/seed guidelines <xlsx_file_path>
  go run ./cmd/seed facilities <xlsx_file_path>`

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}
	kind, filePath := os.Args[1], os.Args[2]
	if kind != "guidelines" && kind != "facilities" {
		log.Fatal(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	rows, err := firstSheetRows(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	switch kind {
	case "guidelines":
		guidelines, skipped := parseGuidelines(rows)
		fmt.Printf("Guideline steps to import: %d (skipped %d)\n", len(guidelines), skipped)
		if !confirm() {
			return
		}
		repo := repository.NewCleaningGuidelineRepository(db.GetDB())
		for i := range guidelines {
			if err := repo.Upsert(&guidelines[i]); err != nil {
				log.Fatalf("Failed to import guideline %s #%d: %v", guidelines[i].RoomType, guidelines[i].StepNumber, err)
			}
		}
		fmt.Printf("Imported %d guideline steps\n", len(guidelines))

	case "facilities":
		rowsToImport, skipped := parseFacilities(rows)
		fmt.Printf("Facilities to import: %d (skipped %d)\n", len(rowsToImport), skipped)
		if !confirm() {
			return
		}
		importer := &facilityImporter{
			companies:  repository.NewCompanyRepository(db.GetDB()),
			facilities: repository.NewFacilityRepository(db.GetDB()),
		}
		created, existing, err := importer.Import(rowsToImport)
		if err != nil {
			log.Fatal("Failed to import facilities:", err)
		}
		fmt.Printf("Created %d facilities, %d already existed\n", created, existing)
	}
}

func firstSheetRows(f *excelize.File) ([][]string, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}
	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}
	return rows, nil
}

func confirm() bool {
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var answer string
	fmt.Scanln(&answer)
	if answer != "yes" && answer != "y" {
		fmt.Println("Import cancelled.")
		return false
	}
	return true
}
