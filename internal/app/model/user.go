package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type UserRole string // ユーザー権限

const (
	RolePresident UserRole = "president" // 社長
	RoleStaff     UserRole = "staff"     // 清掃スタッフ
	RoleClient    UserRole = "client"    // 施設オーナー（顧客）
)

func (r UserRole) IsValid() bool {
	switch r {
	case RolePresident, RoleStaff, RoleClient:
		return true
	}
	return false
}

type UserType string

const (
	UserTypeCompany UserType = "company"
	UserTypeClient  UserType = "client"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Code         string         `gorm:"column:user_id;uniqueIndex;not null;size:64" json:"userId"` // ログインID
	Name         string         `gorm:"not null" json:"name"`
	Role         UserRole       `gorm:"type:varchar(20);not null;index" json:"role"`
	UserType     UserType       `gorm:"type:varchar(20);not null" json:"userType"`
	CompanyID    *uint          `gorm:"index" json:"companyId,omitempty"`  // 会社ユーザーの所属
	FacilityID   *uint          `gorm:"index" json:"facilityId,omitempty"` // 顧客ユーザーの担当施設
	Address      string         `gorm:"type:text" json:"address,omitempty"`
	LineUserID   string         `gorm:"size:64" json:"lineUserId,omitempty"`
	PasswordHash string         `gorm:"not null" json:"-"`
	// 通知対象の部屋種別（空なら全て）
	NotifyRoomTypes pq.StringArray `gorm:"type:text[]" json:"notifyRoomTypes,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Company  *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Facility *Facility `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// WantsRoom reports whether the user subscribed to notifications for roomType
func (u *User) WantsRoom(roomType string) bool {
	if len(u.NotifyRoomTypes) == 0 {
		return true
	}
	for _, r := range u.NotifyRoomTypes {
		if r == roomType {
			return true
		}
	}
	return false
}
