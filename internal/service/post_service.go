package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"blogapi/internal/cache"
	apperrors "blogapi/internal/errors"
	"blogapi/internal/model"
	"blogapi/internal/repository"
	"blogapi/internal/slug"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	postCacheTTL    = 5 * time.Minute
)

// PostInput carries the writable post fields for create and update.
type PostInput struct {
	Title         string
	Excerpt       *string
	Content       string
	FeaturedImage *string
	IsPublished   bool
	CategoryID    *uint
	TagIDs        []uint
}

// PostResponse is the hydrated representation returned by every read path:
// the post row joined with its author, category, tag set and
// approved-comment count.
type PostResponse struct {
	ID             uint        `json:"id"`
	Title          string      `json:"title"`
	Slug           string      `json:"slug"`
	Excerpt        *string     `json:"excerpt"`
	Content        string      `json:"content"`
	FeaturedImage  *string     `json:"featured_image"`
	IsPublished    bool        `json:"is_published"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	PublishedAt    *time.Time  `json:"published_at"`
	AuthorID       uint        `json:"author_id"`
	AuthorName     string      `json:"author_name"`
	AuthorUsername string      `json:"author_username"`
	CategoryID     *uint       `json:"category_id"`
	CategoryName   *string     `json:"category_name"`
	Tags           []model.Tag `json:"tags"`
	CommentsCount  int64       `json:"comments_count"`
}

// PostService owns the content lifecycle: create/update/delete with
// ownership enforcement, publish transitions, slug derivation and the
// retrieval family.
type PostService interface {
	Create(ctx context.Context, input PostInput, authorID uint) (*PostResponse, error)
	Update(ctx context.Context, id uint, input PostInput, actingUserID uint) (*PostResponse, error)
	Delete(ctx context.Context, id, actingUserID uint) (bool, error)
	GetByID(ctx context.Context, id uint) (*PostResponse, error)
	GetBySlug(ctx context.Context, postSlug string) (*PostResponse, error)
	List(ctx context.Context, page, pageSize int) ([]PostResponse, error)
	ListPublished(ctx context.Context, page, pageSize int) ([]PostResponse, error)
	ListByAuthor(ctx context.Context, authorID uint, page, pageSize int) ([]PostResponse, error)
	ListByCategory(ctx context.Context, categoryID uint, page, pageSize int) ([]PostResponse, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]PostResponse, error)
}

type postService struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	tags       repository.TagRepository
	comments   repository.CommentRepository
	cache      *cache.Client
}

// NewPostService creates a new post service.
func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	categories repository.CategoryRepository,
	tags repository.TagRepository,
	comments repository.CommentRepository,
	cacheClient *cache.Client,
) PostService {
	return &postService{
		posts:      posts,
		users:      users,
		categories: categories,
		tags:       tags,
		comments:   comments,
		cache:      cacheClient,
	}
}

// pageWindow clamps pagination input: page is 1-based and floored at 1,
// out-of-range page sizes reset to the default.
func pageWindow(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return (page - 1) * pageSize, pageSize
}

// Create derives a unique slug for the title, persists the post and then
// its tag associations, and returns the hydrated representation.
func (s *postService) Create(ctx context.Context, input PostInput, authorID uint) (*PostResponse, error) {
	postSlug, err := s.resolveSlug(ctx, input.Title, 0)
	if err != nil {
		return nil, err
	}

	tagIDs, err := s.knownTagIDs(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	post := &model.Post{
		Title:         input.Title,
		Slug:          postSlug,
		Excerpt:       input.Excerpt,
		Content:       input.Content,
		FeaturedImage: input.FeaturedImage,
		IsPublished:   input.IsPublished,
		CreatedAt:     now,
		UpdatedAt:     now,
		AuthorID:      authorID,
		CategoryID:    input.CategoryID,
	}
	if input.IsPublished {
		post.PublishedAt = &now
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create post: %w", err)
		}
		// Lost the slug race to a concurrent writer; re-resolve once.
		if post.Slug, err = s.resolveSlug(ctx, input.Title, 0); err != nil {
			return nil, err
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create post after slug conflict: %w", err)
		}
	}

	if len(tagIDs) > 0 {
		if err := s.posts.ReplaceTags(ctx, post.ID, tagIDs); err != nil {
			return nil, fmt.Errorf("attach tags: %w", err)
		}
	}

	return s.GetByID(ctx, post.ID)
}

// Update applies field changes to a post owned by the acting user. A
// missing post and a post owned by someone else are both reported as not
// found. The slug is regenerated only when the stored title differs from
// the requested one, and the tag set is fully replaced.
func (s *postService) Update(ctx context.Context, id uint, input PostInput, actingUserID uint) (*PostResponse, error) {
	post, err := s.posts.FindByIDAndAuthor(ctx, id, actingUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	oldSlug := post.Slug
	titleChanged := post.Title != input.Title
	if titleChanged {
		if post.Slug, err = s.resolveSlug(ctx, input.Title, post.ID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	post.Title = input.Title
	post.Excerpt = input.Excerpt
	post.Content = input.Content
	post.FeaturedImage = input.FeaturedImage
	post.CategoryID = input.CategoryID
	post.UpdatedAt = now

	// Publish transitions: only edges touch the timestamp.
	if input.IsPublished && !post.IsPublished {
		post.IsPublished = true
		post.PublishedAt = &now
	} else if !input.IsPublished && post.IsPublished {
		post.IsPublished = false
		post.PublishedAt = nil
	}

	if err := s.posts.Save(ctx, post); err != nil {
		if !titleChanged || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("save post: %w", err)
		}
		if post.Slug, err = s.resolveSlug(ctx, input.Title, post.ID); err != nil {
			return nil, err
		}
		if err := s.posts.Save(ctx, post); err != nil {
			return nil, fmt.Errorf("save post after slug conflict: %w", err)
		}
	}

	tagIDs, err := s.knownTagIDs(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}
	if err := s.posts.ReplaceTags(ctx, post.ID, tagIDs); err != nil {
		return nil, fmt.Errorf("replace tags: %w", err)
	}

	s.invalidate(ctx, post.ID, oldSlug, post.Slug)
	return s.GetByID(ctx, post.ID)
}

// Delete removes a post owned by the acting user and reports whether a
// deletion occurred. Non-owners observe the same false as a missing id.
func (s *postService) Delete(ctx context.Context, id, actingUserID uint) (bool, error) {
	post, err := s.posts.FindByIDAndAuthor(ctx, id, actingUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load post: %w", err)
	}

	if err := s.posts.Delete(ctx, post); err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}

	s.invalidate(ctx, post.ID, post.Slug)
	return true, nil
}

// GetByID retrieves a hydrated post, read-through cached.
func (s *postService) GetByID(ctx context.Context, id uint) (*PostResponse, error) {
	if cached := s.cachedPost(ctx, s.idKey(id)); cached != nil {
		return cached, nil
	}

	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}

	return s.hydrateAndCache(ctx, post)
}

// GetBySlug retrieves a hydrated post by its slug, read-through cached.
func (s *postService) GetBySlug(ctx context.Context, postSlug string) (*PostResponse, error) {
	if cached := s.cachedPost(ctx, s.slugKey(postSlug)); cached != nil {
		return cached, nil
	}

	post, err := s.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}

	return s.hydrateAndCache(ctx, post)
}

// List returns all posts, newest created first.
func (s *postService) List(ctx context.Context, page, pageSize int) ([]PostResponse, error) {
	offset, limit := pageWindow(page, pageSize)
	posts, err := s.posts.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.hydrate(ctx, posts)
}

// ListPublished returns published posts whose publish time is not in the
// future, most recently published first.
func (s *postService) ListPublished(ctx context.Context, page, pageSize int) ([]PostResponse, error) {
	offset, limit := pageWindow(page, pageSize)
	posts, err := s.posts.ListPublished(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	return s.hydrate(ctx, posts)
}

// ListByAuthor returns an author's posts, drafts included, newest first.
func (s *postService) ListByAuthor(ctx context.Context, authorID uint, page, pageSize int) ([]PostResponse, error) {
	offset, limit := pageWindow(page, pageSize)
	posts, err := s.posts.ListByAuthor(ctx, authorID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return s.hydrate(ctx, posts)
}

// ListByCategory returns a category's published posts.
func (s *postService) ListByCategory(ctx context.Context, categoryID uint, page, pageSize int) ([]PostResponse, error) {
	offset, limit := pageWindow(page, pageSize)
	posts, err := s.posts.ListByCategory(ctx, categoryID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts by category: %w", err)
	}
	return s.hydrate(ctx, posts)
}

// Search matches published posts against title, content and excerpt.
func (s *postService) Search(ctx context.Context, query string, page, pageSize int) ([]PostResponse, error) {
	offset, limit := pageWindow(page, pageSize)
	posts, err := s.posts.Search(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return s.hydrate(ctx, posts)
}

// resolveSlug normalizes the title and probes for a collision-free slug.
// A title that normalizes to nothing is a validation failure.
func (s *postService) resolveSlug(ctx context.Context, title string, excludeID uint) (string, error) {
	if slug.Normalize(title, slug.MaxPostLen) == "" {
		return "", apperrors.ErrEmptyTitle
	}
	resolved, err := slug.Unique(ctx, s.posts, title, slug.MaxPostLen, excludeID)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// knownTagIDs filters the requested tag ids down to ones that exist, in
// request order, so the join insert cannot violate the tag foreign key.
// Unknown ids are dropped silently rather than rejected.
func (s *postService) knownTagIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tags, err := s.tags.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	known := make(map[uint]bool, len(tags))
	for _, t := range tags {
		known[t.ID] = true
	}

	out := make([]uint, 0, len(tags))
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
			delete(known, id)
		}
	}
	return out, nil
}

// hydrate assembles response shapes for a batch of posts with one query
// per collaborator: authors, categories, tag sets, approved-comment counts.
func (s *postService) hydrate(ctx context.Context, posts []model.Post) ([]PostResponse, error) {
	if len(posts) == 0 {
		return []PostResponse{}, nil
	}

	postIDs := make([]uint, 0, len(posts))
	authorIDSet := make(map[uint]bool)
	categoryIDSet := make(map[uint]bool)
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDSet[p.AuthorID] = true
		if p.CategoryID != nil {
			categoryIDSet[*p.CategoryID] = true
		}
	}

	authors, err := s.users.FindByIDs(ctx, keys(authorIDSet))
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	authorsByID := make(map[uint]model.User, len(authors))
	for _, u := range authors {
		authorsByID[u.ID] = u
	}

	categories, err := s.categories.FindByIDs(ctx, keys(categoryIDSet))
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	categoriesByID := make(map[uint]model.Category, len(categories))
	for _, c := range categories {
		categoriesByID[c.ID] = c
	}

	tagsByPost, err := s.posts.TagsByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}

	commentCounts, err := s.comments.CountApprovedByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	responses := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp := PostResponse{
			ID:            p.ID,
			Title:         p.Title,
			Slug:          p.Slug,
			Excerpt:       p.Excerpt,
			Content:       p.Content,
			FeaturedImage: p.FeaturedImage,
			IsPublished:   p.IsPublished,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
			PublishedAt:   p.PublishedAt,
			AuthorID:      p.AuthorID,
			CategoryID:    p.CategoryID,
			Tags:          []model.Tag{},
			CommentsCount: commentCounts[p.ID],
		}
		if author, ok := authorsByID[p.AuthorID]; ok {
			resp.AuthorName = author.DisplayName()
			resp.AuthorUsername = author.Username
		}
		if p.CategoryID != nil {
			if category, ok := categoriesByID[*p.CategoryID]; ok {
				resp.CategoryName = &category.Name
			}
		}
		if tags, ok := tagsByPost[p.ID]; ok {
			resp.Tags = tags
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *postService) hydrateAndCache(ctx context.Context, post *model.Post) (*PostResponse, error) {
	hydrated, err := s.hydrate(ctx, []model.Post{*post})
	if err != nil {
		return nil, err
	}
	resp := &hydrated[0]

	if payload, err := json.Marshal(resp); err == nil {
		_ = s.cache.Set(ctx, s.idKey(resp.ID), payload, postCacheTTL)
		_ = s.cache.Set(ctx, s.slugKey(resp.Slug), payload, postCacheTTL)
	}
	return resp, nil
}

func (s *postService) cachedPost(ctx context.Context, key string) *PostResponse {
	data, _ := s.cache.Get(ctx, key)
	if data == nil {
		return nil
	}
	var cached PostResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	return &cached
}

func (s *postService) invalidate(ctx context.Context, id uint, slugs ...string) {
	_ = s.cache.Delete(ctx, s.idKey(id))
	for _, sl := range slugs {
		_ = s.cache.Delete(ctx, s.slugKey(sl))
	}
}

func (s *postService) idKey(id uint) string {
	return fmt.Sprintf("post:id:%d", id)
}

func (s *postService) slugKey(postSlug string) string {
	return fmt.Sprintf("post:slug:%s", postSlug)
}

func keys(set map[uint]bool) []uint {
	out := make([]uint, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
