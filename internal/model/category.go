package model

import "time"

// Category groups posts; each post references at most one category.
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description *string   `json:"description" gorm:"size:500"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;size:150;not null"`
	CreatedAt   time.Time `json:"created_at"`
}
