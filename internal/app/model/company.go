package model

import (
	"time"

	"gorm.io/gorm"
)

type CompanyRole string // 会社種別

const (
	CompanyRoleHeadquarter CompanyRole = "headquarter" // 本社
	CompanyRoleBranch      CompanyRole = "branch"      // 支社
)

func (r CompanyRole) IsValid() bool {
	return r == CompanyRoleHeadquarter || r == CompanyRoleBranch
}

// Company is a login-capable tenant that owns facilities and staff.
// At most one headquarter is expected; this is not enforced by a constraint.
type Company struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Code         string         `gorm:"column:company_id;uniqueIndex;not null;size:64" json:"companyId"` // ログインID
	Name         string         `gorm:"not null" json:"name"`
	Role         CompanyRole    `gorm:"type:varchar(20);not null;index" json:"type"`
	Address      string         `gorm:"type:text" json:"address"`
	PasswordHash string         `gorm:"not null" json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Facilities []Facility `gorm:"foreignKey:CompanyID" json:"facilities,omitempty"`
	Users      []User     `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
}

func (Company) TableName() string {
	return "companies"
}
