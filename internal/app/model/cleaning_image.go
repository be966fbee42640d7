package model

import (
	"time"

	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CleaningImage is one uploaded before/after photo
type CleaningImage struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	RecordID     uint           `gorm:"not null;index" json:"recordId"`
	FacilityID   uint           `gorm:"not null;index" json:"facilityDbId"` // 非正規化
	RoomType     string         `gorm:"type:varchar(32);not null" json:"roomType"`
	BeforeAfter  BeforeAfter    `gorm:"type:varchar(10);not null" json:"beforeAfter"`
	GCSURL       string         `gorm:"column:gcs_url;type:text;not null" json:"gcsUrl"`
	ObjectPath   string         `gorm:"type:text;not null" json:"-"`
	ContentType  string         `gorm:"size:64" json:"contentType"`
	Size         int64          `json:"size"`
	OriginalName string         `gorm:"size:255" json:"originalName,omitempty"`
	UploadedByID *uint          `gorm:"index" json:"uploadedById,omitempty"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	UploadedAt   time.Time      `gorm:"not null;index" json:"uploadedAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	Record     *CleaningRecord `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"record,omitempty"`
	Facility   *Facility       `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	UploadedBy *User           `gorm:"foreignKey:UploadedByID" json:"uploadedBy,omitempty"`
}

func (CleaningImage) TableName() string {
	return "cleaning_images"
}

// BeforeCreate stamps rows created without an upload time
func (img *CleaningImage) BeforeCreate(tx *gorm.DB) error {
	jst.StampDefaults(&img.UploadedAt, &img.UpdatedAt, tx.NowFunc())
	return nil
}
