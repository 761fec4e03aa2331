package model

import "time"

// Comment belongs to exactly one post and one author. Only approved comments
// are counted in post responses.
type Comment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Content    string    `json:"content" gorm:"size:1000;not null"`
	IsApproved bool      `json:"is_approved" gorm:"default:false;index"`
	PostID     uint      `json:"post_id" gorm:"index;not null"`
	AuthorID   uint      `json:"author_id" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
