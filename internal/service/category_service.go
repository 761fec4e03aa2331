package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "blogapi/internal/errors"
	"blogapi/internal/model"
	"blogapi/internal/repository"
	"blogapi/internal/slug"
)

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string
	Description *string
}

// CategoryResponse is a category with its published-post count.
type CategoryResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
	PostsCount  int64     `json:"posts_count"`
}

// CategoryService handles category CRUD with name-uniqueness and slug
// derivation.
type CategoryService interface {
	List(ctx context.Context) ([]CategoryResponse, error)
	GetByID(ctx context.Context, id uint) (*CategoryResponse, error)
	GetBySlug(ctx context.Context, categorySlug string) (*CategoryResponse, error)
	Create(ctx context.Context, input CategoryInput) (*CategoryResponse, error)
	Update(ctx context.Context, id uint, input CategoryInput) (*CategoryResponse, error)
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	categories repository.CategoryRepository
	posts      repository.PostRepository
}

// NewCategoryService creates a new category service.
func NewCategoryService(categories repository.CategoryRepository, posts repository.PostRepository) CategoryService {
	return &categoryService{
		categories: categories,
		posts:      posts,
	}
}

// List returns all categories with their published-post counts.
func (s *categoryService) List(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	ids := make([]uint, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	counts, err := s.posts.CountPublishedByCategoryIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count category posts: %w", err)
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		responses = append(responses, toCategoryResponse(c, counts[c.ID]))
	}
	return responses, nil
}

func (s *categoryService) GetByID(ctx context.Context, id uint) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return s.withCount(ctx, category)
}

func (s *categoryService) GetBySlug(ctx context.Context, categorySlug string) (*CategoryResponse, error) {
	category, err := s.categories.FindBySlug(ctx, categorySlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return s.withCount(ctx, category)
}

// Create adds a category after a case-insensitive name-conflict check and
// derives a unique slug from the name.
func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*CategoryResponse, error) {
	taken, err := s.categories.NameExists(ctx, input.Name, 0)
	if err != nil {
		return nil, fmt.Errorf("check category name: %w", err)
	}
	if taken {
		return nil, apperrors.ErrCategoryExists
	}

	categorySlug, err := s.resolveSlug(ctx, input.Name, 0)
	if err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        input.Name,
		Description: input.Description,
		Slug:        categorySlug,
		CreatedAt:   time.Now(),
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create category: %w", err)
		}
		if category.Slug, err = s.resolveSlug(ctx, input.Name, 0); err != nil {
			return nil, err
		}
		if err := s.categories.Create(ctx, category); err != nil {
			return nil, fmt.Errorf("create category after slug conflict: %w", err)
		}
	}

	resp := toCategoryResponse(*category, 0)
	return &resp, nil
}

// Update renames a category, regenerating its slug only when the name
// actually changed.
func (s *categoryService) Update(ctx context.Context, id uint, input CategoryInput) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}

	taken, err := s.categories.NameExists(ctx, input.Name, id)
	if err != nil {
		return nil, fmt.Errorf("check category name: %w", err)
	}
	if taken {
		return nil, apperrors.ErrCategoryExists
	}

	nameChanged := category.Name != input.Name
	if nameChanged {
		if category.Slug, err = s.resolveSlug(ctx, input.Name, id); err != nil {
			return nil, err
		}
	}
	category.Name = input.Name
	category.Description = input.Description

	if err := s.categories.Save(ctx, category); err != nil {
		if !nameChanged || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("save category: %w", err)
		}
		if category.Slug, err = s.resolveSlug(ctx, input.Name, id); err != nil {
			return nil, err
		}
		if err := s.categories.Save(ctx, category); err != nil {
			return nil, fmt.Errorf("save category after slug conflict: %w", err)
		}
	}

	return s.withCount(ctx, category)
}

// Delete removes a category unless posts still reference it.
func (s *categoryService) Delete(ctx context.Context, id uint) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return fmt.Errorf("find category: %w", err)
	}

	count, err := s.posts.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count category posts: %w", err)
	}
	if count > 0 {
		return apperrors.ErrCategoryHasPosts
	}

	if err := s.categories.Delete(ctx, category); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *categoryService) resolveSlug(ctx context.Context, name string, excludeID uint) (string, error) {
	if slug.Normalize(name, slug.MaxPostLen) == "" {
		return "", apperrors.ErrEmptyTitle
	}
	return slug.Unique(ctx, s.categories, name, slug.MaxPostLen, excludeID)
}

func (s *categoryService) withCount(ctx context.Context, category *model.Category) (*CategoryResponse, error) {
	counts, err := s.posts.CountPublishedByCategoryIDs(ctx, []uint{category.ID})
	if err != nil {
		return nil, fmt.Errorf("count category posts: %w", err)
	}
	resp := toCategoryResponse(*category, counts[category.ID])
	return &resp, nil
}

func toCategoryResponse(c model.Category, postsCount int64) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Slug:        c.Slug,
		CreatedAt:   c.CreatedAt,
		PostsCount:  postsCount,
	}
}
