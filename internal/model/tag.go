package model

import "time"

// Tag labels posts through the post_tags join table.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:50;not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;size:75;not null"`
	CreatedAt time.Time `json:"created_at"`
}
