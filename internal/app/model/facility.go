package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Facility is a cleaned property, identified by a human-assigned code such as "FAC001"
type Facility struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	Code       string         `gorm:"column:facility_id;uniqueIndex;not null;size:64" json:"facilityId"`
	Name       string         `gorm:"not null" json:"name"`
	Address    string         `gorm:"type:text" json:"address"`
	CompanyID  uint           `gorm:"not null;index" json:"companyId"`
	RoomTypes  pq.StringArray `gorm:"type:text[]" json:"roomTypes,omitempty"` // 清掃対象の部屋
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Company *Company `gorm:"foreignKey:CompanyID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"company,omitempty"`
}

func (Facility) TableName() string {
	return "facilities"
}
