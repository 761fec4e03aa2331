package repository

import (
	"context"

	"gorm.io/gorm"

	"blogapi/internal/model"
)

// CommentRepository defines comment persistence operations. Posts only
// surface approved-comment counts, so that is all the core needs.
type CommentRepository interface {
	CountApprovedByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

type commentCountRow struct {
	PostID uint
	Count  int64
}

// CountApprovedByPostIDs returns approved-comment counts per post.
func (r *commentRepository) CountApprovedByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	if len(postIDs) == 0 {
		return result, nil
	}

	var rows []commentCountRow
	if err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ? AND is_approved = ?", postIDs, true).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.PostID] = row.Count
	}
	return result, nil
}
