package model

import "time"

type ApplicationStatus string // 依頼ステータス

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationCompleted ApplicationStatus = "completed"
	ApplicationRejected  ApplicationStatus = "rejected"
)

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationCompleted, ApplicationRejected:
		return true
	}
	return false
}

// ClientApplication is a client's service request against a facility room
type ClientApplication struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	FacilityID    uint              `gorm:"not null;index" json:"facilityDbId"`
	UserID        uint              `gorm:"not null;index" json:"userId"`
	RoomType      string            `gorm:"type:varchar(32);not null" json:"roomType"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes         string            `gorm:"type:text" json:"notes"`
	RequestedDate *time.Time        `json:"requestedDate,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`

	Facility *Facility `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ClientApplication) TableName() string {
	return "client_applications"
}
