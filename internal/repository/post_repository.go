package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"blogapi/internal/model"
)

// PostRepository defines post persistence operations, including the
// post_tags join and the aggregate queries response shaping depends on.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Save(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uint) (*model.Post, error)
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)
	FindByIDAndAuthor(ctx context.Context, id, authorID uint) (*model.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	List(ctx context.Context, offset, limit int) ([]model.Post, error)
	ListPublished(ctx context.Context, offset, limit int) ([]model.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]model.Post, error)
	ListByCategory(ctx context.Context, categoryID uint, offset, limit int) ([]model.Post, error)
	Search(ctx context.Context, term string, offset, limit int) ([]model.Post, error)
	ReplaceTags(ctx context.Context, postID uint, tagIDs []uint) error
	TagsByPostIDs(ctx context.Context, postIDs []uint) (map[uint][]model.Tag, error)
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
	CountPublishedByCategoryIDs(ctx context.Context, categoryIDs []uint) (map[uint]int64, error)
	CountPublishedByTagIDs(ctx context.Context, tagIDs []uint) (map[uint]int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Save(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// Delete removes a post together with its tag associations.
func (r *postRepository) Delete(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&model.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindByIDAndAuthor folds the ownership check into the lookup, so a
// non-owner gets the same record-not-found as a nonexistent id.
func (r *postRepository) FindByIDAndAuthor(ctx context.Context, id, authorID uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postRepository) List(ctx context.Context, offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListPublished(ctx context.Context, offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	if err := r.db.WithContext(ctx).
		Where("is_published = ? AND published_at <= ?", true, time.Now()).
		Order("published_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	if err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListByCategory(ctx context.Context, categoryID uint, offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	if err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_published = ?", categoryID, true).
		Order("published_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Search matches the term case-insensitively against title, content and
// excerpt; null excerpts never match. Only published posts are searched.
func (r *postRepository) Search(ctx context.Context, term string, offset, limit int) ([]model.Post, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	var posts []model.Post
	if err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR (excerpt IS NOT NULL AND LOWER(excerpt) LIKE ?)",
			pattern, pattern, pattern).
		Order("published_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// ReplaceTags swaps the post's tag set: all existing associations are
// removed and the requested set is inserted, deduplicated.
func (r *postRepository) ReplaceTags(ctx context.Context, postID uint, tagIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&model.PostTag{}).Error; err != nil {
			return err
		}

		seen := make(map[uint]bool, len(tagIDs))
		rows := make([]model.PostTag, 0, len(tagIDs))
		for _, tagID := range tagIDs {
			if seen[tagID] {
				continue
			}
			seen[tagID] = true
			rows = append(rows, model.PostTag{PostID: postID, TagID: tagID})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

type postTagRow struct {
	model.Tag
	PostID uint
}

// TagsByPostIDs resolves the tags for a batch of posts in one join query.
func (r *postRepository) TagsByPostIDs(ctx context.Context, postIDs []uint) (map[uint][]model.Tag, error) {
	result := make(map[uint][]model.Tag)
	if len(postIDs) == 0 {
		return result, nil
	}

	var rows []postTagRow
	if err := r.db.WithContext(ctx).
		Table("post_tags").
		Select("tags.id, tags.name, tags.slug, tags.created_at, post_tags.post_id").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("post_tags.post_id IN ?", postIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.PostID] = append(result[row.PostID], row.Tag)
	}
	return result, nil
}

func (r *postRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type groupCountRow struct {
	GroupID uint
	Count   int64
}

// CountPublishedByCategoryIDs returns published-post counts per category.
func (r *postRepository) CountPublishedByCategoryIDs(ctx context.Context, categoryIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	if len(categoryIDs) == 0 {
		return result, nil
	}

	var rows []groupCountRow
	if err := r.db.WithContext(ctx).Model(&model.Post{}).
		Select("category_id AS group_id, COUNT(*) AS count").
		Where("category_id IN ? AND is_published = ?", categoryIDs, true).
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.GroupID] = row.Count
	}
	return result, nil
}

// CountPublishedByTagIDs returns published-post counts per tag via the join
// table.
func (r *postRepository) CountPublishedByTagIDs(ctx context.Context, tagIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	if len(tagIDs) == 0 {
		return result, nil
	}

	var rows []groupCountRow
	if err := r.db.WithContext(ctx).
		Table("post_tags").
		Select("post_tags.tag_id AS group_id, COUNT(*) AS count").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("post_tags.tag_id IN ? AND posts.is_published = ?", tagIDs, true).
		Group("post_tags.tag_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.GroupID] = row.Count
	}
	return result, nil
}
