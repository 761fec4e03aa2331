package model

import "time"

// Post represents a blog article. Cross-entity data (author, category, tags,
// comments) is resolved through explicit id-keyed queries rather than
// navigation fields, so the fetch cost of every read path stays visible.
type Post struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Title         string     `json:"title" gorm:"size:200;not null"`
	Slug          string     `json:"slug" gorm:"uniqueIndex;size:250;not null"`
	Excerpt       *string    `json:"excerpt" gorm:"size:500"`
	Content       string     `json:"content" gorm:"type:text;not null"`
	FeaturedImage *string    `json:"featured_image" gorm:"size:200"`
	IsPublished   bool       `json:"is_published" gorm:"default:false;index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at"`
	AuthorID      uint       `json:"author_id" gorm:"index;not null"`
	CategoryID    *uint      `json:"category_id" gorm:"index"`
}
