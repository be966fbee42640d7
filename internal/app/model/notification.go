package model

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationImagesUploaded     NotificationType = "images_uploaded"
	NotificationApplicationCreated NotificationType = "application_created"
	NotificationApplicationUpdated NotificationType = "application_updated"
)

// Notification is an in-app message; LINE delivery mirrors it when the user has a LINE ID
type Notification struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notification_user_read,priority:1" json:"userId"`
	Type      NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Title     string           `gorm:"type:text;not null" json:"title"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	Link      string           `gorm:"type:text" json:"link,omitempty"`
	IsRead    bool             `gorm:"default:false;index:idx_notification_user_read,priority:2" json:"isRead"`
	Payload   datatypes.JSON   `json:"payload,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
