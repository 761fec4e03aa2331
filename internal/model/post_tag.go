package model

// PostTag is the post/tag membership record. The set for a post is fully
// replaced on every post update.
type PostTag struct {
	PostID uint `json:"post_id" gorm:"primaryKey;autoIncrement:false"`
	TagID  uint `json:"tag_id" gorm:"primaryKey;autoIncrement:false"`
}

// TableName keeps the join table name explicit.
func (PostTag) TableName() string {
	return "post_tags"
}
