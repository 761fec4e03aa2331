package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "blogapi/internal/errors"
	"blogapi/internal/model"
)

type postServiceMocks struct {
	posts      *MockPostRepository
	users      *MockUserRepository
	categories *MockCategoryRepository
	tags       *MockTagRepository
	comments   *MockCommentRepository
}

func newPostService() (PostService, *postServiceMocks) {
	m := &postServiceMocks{
		posts:      new(MockPostRepository),
		users:      new(MockUserRepository),
		categories: new(MockCategoryRepository),
		tags:       new(MockTagRepository),
		comments:   new(MockCommentRepository),
	}
	svc := NewPostService(m.posts, m.users, m.categories, m.tags, m.comments, nil)
	return svc, m
}

// expectHydration wires the batch lookups GetByID performs after a write.
func (m *postServiceMocks) expectHydration(author model.User) {
	m.users.On("FindByIDs", mock.Anything, mock.Anything).Return([]model.User{author}, nil)
	m.categories.On("FindByIDs", mock.Anything, mock.Anything).Return([]model.Category{}, nil)
	m.posts.On("TagsByPostIDs", mock.Anything, mock.Anything).Return(map[uint][]model.Tag{}, nil)
	m.comments.On("CountApprovedByPostIDs", mock.Anything, mock.Anything).Return(map[uint]int64{}, nil)
}

func TestPostService_Create_AssignsSuffixOnCollision(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()
	author := model.User{ID: 7, Username: "alice"}

	m.posts.On("SlugExists", ctx, "hello-world", uint(0)).Return(true, nil)
	m.posts.On("SlugExists", ctx, "hello-world-1", uint(0)).Return(false, nil)
	m.posts.On("Create", ctx, mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Post).ID = 42
	}).Return(nil)
	m.posts.On("FindByID", ctx, uint(42)).Return(&model.Post{ID: 42, Title: "Hello World!", Slug: "hello-world-1", AuthorID: 7}, nil)
	m.expectHydration(author)

	resp, err := svc.Create(ctx, PostInput{Title: "Hello World!", Content: "body"}, author.ID)

	assert.NoError(t, err)
	assert.Equal(t, "hello-world-1", resp.Slug)
	assert.Equal(t, "alice", resp.AuthorUsername)
	m.posts.AssertExpectations(t)
}

func TestPostService_Create_PublishedGetsTimestamp(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()
	author := model.User{ID: 7, Username: "alice"}

	var created *model.Post
	m.posts.On("SlugExists", ctx, "release-notes", uint(0)).Return(false, nil)
	m.posts.On("Create", ctx, mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*model.Post)
		created.ID = 1
	}).Return(nil)
	m.posts.On("FindByID", ctx, uint(1)).Return(&model.Post{ID: 1, AuthorID: 7}, nil)
	m.expectHydration(author)

	_, err := svc.Create(ctx, PostInput{Title: "Release Notes", Content: "body", IsPublished: true}, author.ID)

	assert.NoError(t, err)
	assert.True(t, created.IsPublished)
	if assert.NotNil(t, created.PublishedAt) {
		assert.WithinDuration(t, time.Now(), *created.PublishedAt, 5*time.Second)
	}
}

func TestPostService_Create_DraftHasNoTimestamp(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()
	author := model.User{ID: 7, Username: "alice"}

	var created *model.Post
	m.posts.On("SlugExists", ctx, "draft", uint(0)).Return(false, nil)
	m.posts.On("Create", ctx, mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*model.Post)
		created.ID = 2
	}).Return(nil)
	m.posts.On("FindByID", ctx, uint(2)).Return(&model.Post{ID: 2, AuthorID: 7}, nil)
	m.expectHydration(author)

	_, err := svc.Create(ctx, PostInput{Title: "Draft", Content: "body"}, author.ID)

	assert.NoError(t, err)
	assert.False(t, created.IsPublished)
	assert.Nil(t, created.PublishedAt)
}

func TestPostService_Create_EmptyTitleRejected(t *testing.T) {
	svc, m := newPostService()

	_, err := svc.Create(context.Background(), PostInput{Title: "!!!", Content: "body"}, 7)

	assert.ErrorIs(t, err, apperrors.ErrEmptyTitle)
	m.posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPostService_Create_RetriesOnceOnSlugRace(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()
	author := model.User{ID: 7, Username: "alice"}

	// Free at probe time, taken by the time the insert lands.
	m.posts.On("SlugExists", ctx, "hello-world", uint(0)).Return(false, nil).Once()
	m.posts.On("Create", ctx, mock.AnythingOfType("*model.Post")).Return(gorm.ErrDuplicatedKey).Once()
	m.posts.On("SlugExists", ctx, "hello-world", uint(0)).Return(true, nil).Once()
	m.posts.On("SlugExists", ctx, "hello-world-1", uint(0)).Return(false, nil).Once()
	var created *model.Post
	m.posts.On("Create", ctx, mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*model.Post)
		created.ID = 5
	}).Return(nil).Once()
	m.posts.On("FindByID", ctx, uint(5)).Return(&model.Post{ID: 5, AuthorID: 7}, nil)
	m.expectHydration(author)

	_, err := svc.Create(ctx, PostInput{Title: "Hello World", Content: "body"}, author.ID)

	assert.NoError(t, err)
	assert.Equal(t, "hello-world-1", created.Slug)
	m.posts.AssertExpectations(t)
}

func TestPostService_Create_AttachesTags(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()
	author := model.User{ID: 7, Username: "alice"}

	m.posts.On("SlugExists", ctx, "tagged", uint(0)).Return(false, nil)
	m.tags.On("FindByIDs", ctx, []uint{3, 4}).Return([]model.Tag{{ID: 3}, {ID: 4}}, nil)
	m.posts.On("Create", ctx, mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Post).ID = 9
	}).Return(nil)
	m.posts.On("ReplaceTags", ctx, uint(9), []uint{3, 4}).Return(nil)
	m.posts.On("FindByID", ctx, uint(9)).Return(&model.Post{ID: 9, AuthorID: 7}, nil)
	m.expectHydration(author)

	_, err := svc.Create(ctx, PostInput{Title: "Tagged", Content: "body", TagIDs: []uint{3, 4}}, author.ID)

	assert.NoError(t, err)
	m.posts.AssertExpectations(t)
}

func TestPostService_Create_DropsUnknownTagIDs(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()
	author := model.User{ID: 7, Username: "alice"}

	m.posts.On("SlugExists", ctx, "tagged", uint(0)).Return(false, nil)
	m.tags.On("FindByIDs", ctx, []uint{3, 404}).Return([]model.Tag{{ID: 3}}, nil)
	m.posts.On("Create", ctx, mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Post).ID = 9
	}).Return(nil)
	m.posts.On("ReplaceTags", ctx, uint(9), []uint{3}).Return(nil)
	m.posts.On("FindByID", ctx, uint(9)).Return(&model.Post{ID: 9, AuthorID: 7}, nil)
	m.expectHydration(author)

	_, err := svc.Create(ctx, PostInput{Title: "Tagged", Content: "body", TagIDs: []uint{3, 404}}, author.ID)

	assert.NoError(t, err)
	m.posts.AssertExpectations(t)
}

func TestPostService_Update_NonOwnerSeesNotFound(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()

	m.posts.On("FindByIDAndAuthor", ctx, uint(10), uint(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Update(ctx, 10, PostInput{Title: "Hijack", Content: "body"}, 99)

	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	m.posts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPostService_Update_PublishTransitions(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)

	tests := []struct {
		name          string
		storedAt      *time.Time
		stored        bool
		requested     bool
		wantPublished bool
		wantTimestamp string // "kept", "set", "cleared", "none"
	}{
		{name: "draft to published sets timestamp", stored: false, requested: true, wantPublished: true, wantTimestamp: "set"},
		{name: "published stays published keeps timestamp", storedAt: &past, stored: true, requested: true, wantPublished: true, wantTimestamp: "kept"},
		{name: "published to draft clears timestamp", storedAt: &past, stored: true, requested: false, wantPublished: false, wantTimestamp: "cleared"},
		{name: "draft stays draft", stored: false, requested: false, wantPublished: false, wantTimestamp: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newPostService()
			ctx := context.Background()
			author := model.User{ID: 7, Username: "alice"}
			post := &model.Post{
				ID:          10,
				Title:       "Stable Title",
				Slug:        "stable-title",
				AuthorID:    7,
				IsPublished: tt.stored,
				PublishedAt: tt.storedAt,
			}

			m.posts.On("FindByIDAndAuthor", ctx, uint(10), uint(7)).Return(post, nil)
			m.posts.On("Save", ctx, post).Return(nil)
			m.posts.On("ReplaceTags", ctx, uint(10), []uint(nil)).Return(nil)
			m.posts.On("FindByID", ctx, uint(10)).Return(post, nil)
			m.expectHydration(author)

			_, err := svc.Update(ctx, 10, PostInput{Title: "Stable Title", Content: "body", IsPublished: tt.requested}, 7)

			assert.NoError(t, err)
			assert.Equal(t, tt.wantPublished, post.IsPublished)
			switch tt.wantTimestamp {
			case "kept":
				if assert.NotNil(t, post.PublishedAt) {
					assert.Equal(t, past, *post.PublishedAt)
				}
			case "set":
				if assert.NotNil(t, post.PublishedAt) {
					assert.WithinDuration(t, time.Now(), *post.PublishedAt, 5*time.Second)
				}
			case "cleared", "none":
				assert.Nil(t, post.PublishedAt)
			}
		})
	}
}

func TestPostService_Update_RegeneratesSlugOnlyOnTitleChange(t *testing.T) {
	t.Run("same title keeps slug without probing", func(t *testing.T) {
		svc, m := newPostService()
		ctx := context.Background()
		author := model.User{ID: 7, Username: "alice"}
		post := &model.Post{ID: 10, Title: "Stable Title", Slug: "stable-title", AuthorID: 7}

		m.posts.On("FindByIDAndAuthor", ctx, uint(10), uint(7)).Return(post, nil)
		m.posts.On("Save", ctx, post).Return(nil)
		m.posts.On("ReplaceTags", ctx, uint(10), []uint(nil)).Return(nil)
		m.posts.On("FindByID", ctx, uint(10)).Return(post, nil)
		m.expectHydration(author)

		_, err := svc.Update(ctx, 10, PostInput{Title: "Stable Title", Content: "new body"}, 7)

		assert.NoError(t, err)
		assert.Equal(t, "stable-title", post.Slug)
		m.posts.AssertNotCalled(t, "SlugExists", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("new title derives new slug excluding own row", func(t *testing.T) {
		svc, m := newPostService()
		ctx := context.Background()
		author := model.User{ID: 7, Username: "alice"}
		post := &model.Post{ID: 10, Title: "Old Title", Slug: "old-title", AuthorID: 7}

		m.posts.On("FindByIDAndAuthor", ctx, uint(10), uint(7)).Return(post, nil)
		m.posts.On("SlugExists", ctx, "new-title", uint(10)).Return(false, nil)
		m.posts.On("Save", ctx, post).Return(nil)
		m.posts.On("ReplaceTags", ctx, uint(10), []uint(nil)).Return(nil)
		m.posts.On("FindByID", ctx, uint(10)).Return(post, nil)
		m.expectHydration(author)

		_, err := svc.Update(ctx, 10, PostInput{Title: "New Title", Content: "body"}, 7)

		assert.NoError(t, err)
		assert.Equal(t, "new-title", post.Slug)
		assert.Equal(t, "New Title", post.Title)
	})
}

func TestPostService_Update_ReplacesTagSet(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()
	author := model.User{ID: 7, Username: "alice"}
	post := &model.Post{ID: 10, Title: "Stable Title", Slug: "stable-title", AuthorID: 7}

	m.posts.On("FindByIDAndAuthor", ctx, uint(10), uint(7)).Return(post, nil)
	m.posts.On("Save", ctx, post).Return(nil)
	m.tags.On("FindByIDs", ctx, []uint{1, 2, 3}).Return([]model.Tag{{ID: 1}, {ID: 2}, {ID: 3}}, nil)
	m.posts.On("ReplaceTags", ctx, uint(10), []uint{1, 2, 3}).Return(nil)
	m.posts.On("FindByID", ctx, uint(10)).Return(post, nil)
	m.expectHydration(author)

	_, err := svc.Update(ctx, 10, PostInput{Title: "Stable Title", Content: "body", TagIDs: []uint{1, 2, 3}}, 7)

	assert.NoError(t, err)
	m.posts.AssertExpectations(t)
}

func TestPostService_Delete_OwnedPost(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()
	post := &model.Post{ID: 10, Slug: "stable-title", AuthorID: 7}

	m.posts.On("FindByIDAndAuthor", ctx, uint(10), uint(7)).Return(post, nil)
	m.posts.On("Delete", ctx, post).Return(nil)

	deleted, err := svc.Delete(ctx, 10, 7)

	assert.NoError(t, err)
	assert.True(t, deleted)
}

func TestPostService_Delete_NonOwnerReportsFalse(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()

	m.posts.On("FindByIDAndAuthor", ctx, uint(10), uint(99)).Return(nil, gorm.ErrRecordNotFound)

	deleted, err := svc.Delete(ctx, 10, 99)

	assert.NoError(t, err)
	assert.False(t, deleted)
	m.posts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPostService_GetByID_NotFound(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()

	m.posts.On("FindByID", ctx, uint(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetByID(ctx, 404)

	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestPostService_ListPublished_EmptyPage(t *testing.T) {
	svc, m := newPostService()
	ctx := context.Background()

	m.posts.On("ListPublished", ctx, 20, 10).Return([]model.Post{}, nil)

	posts, err := svc.ListPublished(ctx, 3, 10)

	assert.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		pageSize   int
		wantOffset int
		wantLimit  int
	}{
		{name: "first page", page: 1, pageSize: 10, wantOffset: 0, wantLimit: 10},
		{name: "later page", page: 3, pageSize: 20, wantOffset: 40, wantLimit: 20},
		{name: "page floored at one", page: 0, pageSize: 5, wantOffset: 0, wantLimit: 5},
		{name: "negative page floored at one", page: -2, pageSize: 5, wantOffset: 0, wantLimit: 5},
		{name: "zero page size resets to default", page: 2, pageSize: 0, wantOffset: 10, wantLimit: 10},
		{name: "oversized page size resets to default", page: 1, pageSize: 101, wantOffset: 0, wantLimit: 10},
		{name: "max page size allowed", page: 1, pageSize: 100, wantOffset: 0, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := pageWindow(tt.page, tt.pageSize)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}
