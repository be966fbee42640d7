package model

import (
	"time"

	"github.com/lib/pq"
)

type RecordStatus string

const (
	RecordStatusInProgress RecordStatus = "in_progress"
	RecordStatusCompleted  RecordStatus = "completed"
)

// CleaningRecord groups the images of one room of one facility on one JST day.
// (facility_id, room_type, cleaning_date) is unique.
type CleaningRecord struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	FacilityID   uint         `gorm:"not null;uniqueIndex:idx_record_facility_room_date,priority:1" json:"facilityDbId"`
	RoomType     string       `gorm:"type:varchar(32);not null;uniqueIndex:idx_record_facility_room_date,priority:2" json:"roomType"`
	CleaningDate time.Time    `gorm:"not null;uniqueIndex:idx_record_facility_room_date,priority:3" json:"cleaningDate"` // JST 0時のUTC表現
	Status       RecordStatus `gorm:"type:varchar(20);default:'in_progress'" json:"status"`
	StaffID      *uint        `gorm:"index" json:"staffId,omitempty"`
	// 旧形式の画像URL配列（CleaningImageテーブルへ移行済み）
	BeforeImages pq.StringArray `gorm:"type:text[]" json:"-"`
	AfterImages  pq.StringArray `gorm:"type:text[]" json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	Facility *Facility       `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Staff    *User           `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	Images   []CleaningImage `gorm:"foreignKey:RecordID" json:"images,omitempty"`
}

func (CleaningRecord) TableName() string {
	return "cleaning_records"
}
