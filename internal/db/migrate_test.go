package db

import (
	"testing"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB_MigratesAllModels(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestBackfillReceiptUploadedAt(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	year, month := 2024, 11
	legacy := model.Receipt{FacilityID: 1, GCSURL: "u", ObjectPath: "p", Year: &year, Month: &month}
	require.NoError(t, db.Create(&legacy).Error)
	require.NoError(t, db.Model(&model.Receipt{}).Where("id = ?", legacy.ID).Update("uploaded_at", time.Time{}).Error)

	current := model.Receipt{FacilityID: 1, GCSURL: "u2", ObjectPath: "p2", UploadedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&current).Error)

	require.NoError(t, backfillReceiptUploadedAt(db))

	var got model.Receipt
	require.NoError(t, db.First(&got, legacy.ID).Error)
	assert.True(t, got.UploadedAt.Equal(legacyMonthStart(2024, 11)))

	var untouched model.Receipt
	require.NoError(t, db.First(&untouched, current.ID).Error)
	assert.WithinDuration(t, current.UploadedAt, untouched.UploadedAt, time.Second)
}

func TestTruncateAllTables(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	require.NoError(t, db.Create(&model.Company{Code: "HQ", Name: "本社", Role: model.CompanyRoleHeadquarter, PasswordHash: "x"}).Error)
	require.NoError(t, TruncateAllTables(db))

	var count int64
	db.Model(&model.Company{}).Count(&count)
	assert.Zero(t, count)
}
