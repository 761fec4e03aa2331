package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"blogapi/internal/auth"
	"blogapi/internal/errors"
	"blogapi/internal/service"
)

// PostHandler handles blog post endpoints.
type PostHandler struct {
	postService service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// PostRequest represents a post create or update request.
type PostRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Excerpt       *string `json:"excerpt" validate:"omitempty,max=500"`
	Content       string  `json:"content" validate:"required"`
	FeaturedImage *string `json:"featured_image" validate:"omitempty,max=200"`
	IsPublished   bool    `json:"is_published"`
	CategoryID    *uint   `json:"category_id"`
	TagIDs        []uint  `json:"tag_ids"`
}

func (r *PostRequest) toInput() service.PostInput {
	return service.PostInput{
		Title:         r.Title,
		Excerpt:       r.Excerpt,
		Content:       r.Content,
		FeaturedImage: r.FeaturedImage,
		IsPublished:   r.IsPublished,
		CategoryID:    r.CategoryID,
		TagIDs:        r.TagIDs,
	}
}

// Pagination echoes the requested window back to the client. HasMore is the
// page-full approximation: true exactly when the page came back full.
type Pagination struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// PostListResponse wraps a page of posts.
type PostListResponse struct {
	Data       []service.PostResponse `json:"data"`
	Pagination Pagination             `json:"pagination"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// pageParams reads the requested window and clamps it the same way the
// services do, so the echoed pagination and hasMore describe the page that
// was actually served rather than the raw query values.
func pageParams(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil {
		pageSize = v
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

func listResponse(posts []service.PostResponse, page, pageSize int) PostListResponse {
	return PostListResponse{
		Data: posts,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			HasMore:  len(posts) == pageSize,
		},
	}
}

func domainError(err error) *echo.HTTPError {
	he := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

// GetPosts godoc
// @Summary List posts
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Param publishedOnly query bool false "Only published posts (default true)"
// @Success 200 {object} PostListResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts [get]
func (h *PostHandler) GetPosts(c echo.Context) error {
	page, pageSize := pageParams(c)

	publishedOnly := true
	if v, err := strconv.ParseBool(c.QueryParam("publishedOnly")); err == nil {
		publishedOnly = v
	}

	var (
		posts []service.PostResponse
		err   error
	)
	if publishedOnly {
		posts, err = h.postService.ListPublished(c.Request().Context(), page, pageSize)
	} else {
		posts, err = h.postService.List(c.Request().Context(), page, pageSize)
	}
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, listResponse(posts, page, pageSize))
}

// GetPost godoc
// @Summary Get post by id
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.postService.GetByID(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// GetPostBySlug godoc
// @Summary Get post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} service.PostResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/slug/{slug} [get]
func (h *PostHandler) GetPostBySlug(c echo.Context) error {
	post, err := h.postService.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// SearchPosts godoc
// @Summary Search published posts
// @Tags posts
// @Produce json
// @Param q query string true "Search term"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} PostListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/search [get]
func (h *PostHandler) SearchPosts(c echo.Context) error {
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "search query is required",
			Code:  "SEARCH_QUERY_REQUIRED",
		})
	}

	page, pageSize := pageParams(c)
	posts, err := h.postService.Search(c.Request().Context(), q, page, pageSize)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":       posts,
		"searchTerm": q,
		"pagination": Pagination{
			Page:     page,
			PageSize: pageSize,
			HasMore:  len(posts) == pageSize,
		},
	})
}

// GetPostsByAuthor godoc
// @Summary List posts by author
// @Tags posts
// @Produce json
// @Param authorId path int true "Author ID"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} PostListResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/author/{authorId} [get]
func (h *PostHandler) GetPostsByAuthor(c echo.Context) error {
	authorID, err := parseID(c, "authorId")
	if err != nil {
		return err
	}

	page, pageSize := pageParams(c)
	posts, err := h.postService.ListByAuthor(c.Request().Context(), authorID, page, pageSize)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":     posts,
		"authorId": authorID,
		"pagination": Pagination{
			Page:     page,
			PageSize: pageSize,
			HasMore:  len(posts) == pageSize,
		},
	})
}

// GetPostsByCategory godoc
// @Summary List published posts in a category
// @Tags posts
// @Produce json
// @Param categoryId path int true "Category ID"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} PostListResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/category/{categoryId} [get]
func (h *PostHandler) GetPostsByCategory(c echo.Context) error {
	categoryID, err := parseID(c, "categoryId")
	if err != nil {
		return err
	}

	page, pageSize := pageParams(c)
	posts, err := h.postService.ListByCategory(c.Request().Context(), categoryID, page, pageSize)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":       posts,
		"categoryId": categoryID,
		"pagination": Pagination{
			Page:     page,
			PageSize: pageSize,
			HasMore:  len(posts) == pageSize,
		},
	})
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PostRequest true "Post data"
// @Success 201 {object} service.PostResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts [post]
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postService.Create(c.Request().Context(), req.toInput(), userID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary Update an owned post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body PostRequest true "Post data"
// @Success 200 {object} service.PostResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/{id} [put]
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postService.Update(c.Request().Context(), id, req.toInput(), userID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary Delete an owned post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.postService.Delete(c.Request().Context(), id, userID)
	if err != nil {
		return domainError(err)
	}
	if !deleted {
		return domainError(errors.ErrPostNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetMyPosts godoc
// @Summary List the acting user's posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} PostListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/mine [get]
func (h *PostHandler) GetMyPosts(c echo.Context) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	page, pageSize := pageParams(c)
	posts, err := h.postService.ListByAuthor(c.Request().Context(), userID, page, pageSize)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, listResponse(posts, page, pageSize))
}

func parseID(c echo.Context, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_ID",
		})
	}
	return uint(raw), nil
}
