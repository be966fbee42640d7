package model

import (
	"time"

	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is a photographed expense slip filed under a facility
type Receipt struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	FacilityID   uint            `gorm:"not null;index:idx_receipt_facility_uploaded,priority:1" json:"facilityDbId"`
	Title        string          `gorm:"size:255" json:"title"`
	StoreName    string          `gorm:"size:255" json:"storeName,omitempty"` // 購入店舗
	Amount       decimal.Decimal `gorm:"type:numeric(12,0);default:0" json:"amount"` // 円
	Notes        string          `gorm:"type:text" json:"notes,omitempty"`
	GCSURL       string          `gorm:"column:gcs_url;type:text;not null" json:"gcsUrl"`
	ObjectPath   string          `gorm:"type:text;not null" json:"-"`
	ContentType  string          `gorm:"size:64" json:"contentType"`
	Size         int64           `json:"size"`
	OriginalName string          `gorm:"size:255" json:"originalName,omitempty"`
	UploadedByID *uint           `gorm:"index" json:"uploadedById,omitempty"`
	UploadedAt   time.Time       `gorm:"index:idx_receipt_facility_uploaded,priority:2" json:"uploadedAt"`
	// 旧データ移行用。UploadedAtが無い行でのみ参照する
	Year      *int      `json:"-"`
	Month     *int      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Facility *Facility `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
}

func (Receipt) TableName() string {
	return "receipts"
}

// BeforeCreate stamps rows created without an upload time
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	jst.StampDefaults(&r.UploadedAt, &r.UpdatedAt, tx.NowFunc())
	return nil
}
