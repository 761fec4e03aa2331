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

// TagResponse is a tag with its published-post count.
type TagResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	CreatedAt  time.Time `json:"created_at"`
	PostsCount int64     `json:"posts_count"`
}

// TagService handles tag CRUD with name-uniqueness and slug derivation.
type TagService interface {
	List(ctx context.Context) ([]TagResponse, error)
	GetByID(ctx context.Context, id uint) (*TagResponse, error)
	GetBySlug(ctx context.Context, tagSlug string) (*TagResponse, error)
	Create(ctx context.Context, name string) (*TagResponse, error)
	Delete(ctx context.Context, id uint) error
}

type tagService struct {
	tags  repository.TagRepository
	posts repository.PostRepository
}

// NewTagService creates a new tag service.
func NewTagService(tags repository.TagRepository, posts repository.PostRepository) TagService {
	return &tagService{
		tags:  tags,
		posts: posts,
	}
}

// List returns all tags with their published-post counts.
func (s *tagService) List(ctx context.Context) ([]TagResponse, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	counts, err := s.posts.CountPublishedByTagIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count tag posts: %w", err)
	}

	responses := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		responses = append(responses, toTagResponse(t, counts[t.ID]))
	}
	return responses, nil
}

func (s *tagService) GetByID(ctx context.Context, id uint) (*TagResponse, error) {
	tag, err := s.tags.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTagNotFound
		}
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return s.withCount(ctx, tag)
}

func (s *tagService) GetBySlug(ctx context.Context, tagSlug string) (*TagResponse, error) {
	tag, err := s.tags.FindBySlug(ctx, tagSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTagNotFound
		}
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return s.withCount(ctx, tag)
}

// Create adds a tag after a case-insensitive name-conflict check and
// derives a unique slug capped at the tag length.
func (s *tagService) Create(ctx context.Context, name string) (*TagResponse, error) {
	taken, err := s.tags.NameExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check tag name: %w", err)
	}
	if taken {
		return nil, apperrors.ErrTagExists
	}

	tagSlug, err := s.resolveSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	tag := &model.Tag{
		Name:      name,
		Slug:      tagSlug,
		CreatedAt: time.Now(),
	}

	if err := s.tags.Create(ctx, tag); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create tag: %w", err)
		}
		if tag.Slug, err = s.resolveSlug(ctx, name); err != nil {
			return nil, err
		}
		if err := s.tags.Create(ctx, tag); err != nil {
			return nil, fmt.Errorf("create tag after slug conflict: %w", err)
		}
	}

	resp := toTagResponse(*tag, 0)
	return &resp, nil
}

// Delete removes a tag and its post associations.
func (s *tagService) Delete(ctx context.Context, id uint) error {
	tag, err := s.tags.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTagNotFound
		}
		return fmt.Errorf("find tag: %w", err)
	}

	if err := s.tags.Delete(ctx, tag); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

func (s *tagService) resolveSlug(ctx context.Context, name string) (string, error) {
	if slug.Normalize(name, slug.MaxTagLen) == "" {
		return "", apperrors.ErrEmptyTitle
	}
	return slug.Unique(ctx, s.tags, name, slug.MaxTagLen, 0)
}

func (s *tagService) withCount(ctx context.Context, tag *model.Tag) (*TagResponse, error) {
	counts, err := s.posts.CountPublishedByTagIDs(ctx, []uint{tag.ID})
	if err != nil {
		return nil, fmt.Errorf("count tag posts: %w", err)
	}
	resp := toTagResponse(*tag, counts[tag.ID])
	return &resp, nil
}

func toTagResponse(t model.Tag, postsCount int64) TagResponse {
	return TagResponse{
		ID:         t.ID,
		Name:       t.Name,
		Slug:       t.Slug,
		CreatedAt:  t.CreatedAt,
		PostsCount: postsCount,
	}
}
