package model

import "time"

// CleaningGuideline is one step of the per-room cleaning instructions. Seeded offline.
type CleaningGuideline struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	RoomType    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_guideline_room_step,priority:1" json:"roomType"`
	StepNumber  int       `gorm:"not null;uniqueIndex:idx_guideline_room_step,priority:2" json:"stepNumber"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"type:text" json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (CleaningGuideline) TableName() string {
	return "cleaning_guidelines"
}
