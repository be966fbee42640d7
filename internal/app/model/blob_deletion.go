package model

import "time"

// BlobDeletion is an outbox row for an object-store delete that must happen
// after (or independently of) a database change.
type BlobDeletion struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	ObjectPath string     `gorm:"type:text;not null" json:"objectPath"`
	Reason     string     `gorm:"size:64" json:"reason"` // image_deleted, image_replaced, ...
	Attempts   int        `gorm:"not null;default:0" json:"attempts"`
	LastError  string     `gorm:"type:text" json:"lastError,omitempty"`
	DoneAt     *time.Time `gorm:"index" json:"doneAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (BlobDeletion) TableName() string {
	return "blob_deletions"
}
