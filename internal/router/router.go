package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"blogapi/internal/auth"
	"blogapi/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	postHandler *handler.PostHandler,
	categoryHandler *handler.CategoryHandler,
	tagHandler *handler.TagHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	api.GET("/posts", postHandler.GetPosts)
	api.GET("/posts/search", postHandler.SearchPosts)
	api.GET("/posts/slug/:slug", postHandler.GetPostBySlug)
	api.GET("/posts/author/:authorId", postHandler.GetPostsByAuthor)
	api.GET("/posts/category/:categoryId", postHandler.GetPostsByCategory)
	api.GET("/posts/:id", postHandler.GetPost)

	api.GET("/categories", categoryHandler.GetCategories)
	api.GET("/categories/slug/:slug", categoryHandler.GetCategoryBySlug)
	api.GET("/categories/:id", categoryHandler.GetCategory)

	api.GET("/tags", tagHandler.GetTags)
	api.GET("/tags/slug/:slug", tagHandler.GetTagBySlug)
	api.GET("/tags/:id", tagHandler.GetTag)

	// Secured routes: the middleware delegates verification to the token
	// service so signature, expiry, issuer and audience are checked in one
	// place. Any failure is a 401.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return jwtService.ValidateToken(tokenString)
		},
	}))

	secured.POST("/posts", postHandler.CreatePost)
	secured.PUT("/posts/:id", postHandler.UpdatePost)
	secured.DELETE("/posts/:id", postHandler.DeletePost)
	secured.GET("/posts/mine", postHandler.GetMyPosts)

	secured.POST("/categories", categoryHandler.CreateCategory)
	secured.PUT("/categories/:id", categoryHandler.UpdateCategory)
	secured.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	secured.POST("/tags", tagHandler.CreateTag)
	secured.DELETE("/tags/:id", tagHandler.DeleteTag)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
