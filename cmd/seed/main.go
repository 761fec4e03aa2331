package main

import (
	"context"
	"log"

	"gorm.io/gorm"

	"blogapi/internal/auth"
	"blogapi/internal/config"
	"blogapi/internal/db"
	"blogapi/internal/model"
	"blogapi/internal/repository"
	"blogapi/internal/service"
)

type seedPost struct {
	title     string
	excerpt   string
	content   string
	published bool
	category  string
	tags      []string
}

var seedCategories = []service.CategoryInput{
	{Name: "Engineering", Description: ptr("Posts about software engineering")},
	{Name: "Announcements", Description: ptr("Product and project news")},
}

var seedTags = []string{"go", "tutorial", "release"}

var seedPosts = []seedPost{
	{
		title:     "Hello World",
		excerpt:   "The obligatory first post.",
		content:   "Welcome to the blog. More to come.",
		published: true,
		category:  "Announcements",
		tags:      []string{"release"},
	},
	{
		title:     "Structuring Go Services",
		excerpt:   "Repositories, services and handlers.",
		content:   "A walk through the layering used in this codebase.",
		published: true,
		category:  "Engineering",
		tags:      []string{"go", "tutorial"},
	},
	{
		title:     "Drafting in Public",
		content:   "This one is still a draft and should not be listed publicly.",
		published: false,
		category:  "Engineering",
	},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Tag{},
		&model.Post{},
		&model.PostTag{},
		&model.Comment{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	tagRepo := repository.NewTagRepository(gormDB)
	commentRepo := repository.NewCommentRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	authService := service.NewAuthService(userRepo, jwtService)
	postService := service.NewPostService(postRepo, userRepo, categoryRepo, tagRepo, commentRepo, nil)
	categoryService := service.NewCategoryService(categoryRepo, postRepo)
	tagService := service.NewTagService(tagRepo, postRepo)

	ctx := context.Background()

	author, err := seedAuthor(ctx, userRepo, authService)
	if err != nil {
		log.Fatalf("Failed to seed author: %v", err)
	}

	categoriesByName, created, err := seedCategoryData(ctx, categoryService)
	if err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}
	log.Printf("Categories seeded: %d new", created)

	tagsByName, created, err := seedTagData(ctx, tagService)
	if err != nil {
		log.Fatalf("Failed to seed tags: %v", err)
	}
	log.Printf("Tags seeded: %d new", created)

	created = 0
	for _, sp := range seedPosts {
		input := service.PostInput{
			Title:       sp.title,
			Content:     sp.content,
			IsPublished: sp.published,
		}
		if sp.excerpt != "" {
			input.Excerpt = ptr(sp.excerpt)
		}
		if id, ok := categoriesByName[sp.category]; ok {
			input.CategoryID = &id
		}
		for _, name := range sp.tags {
			if id, ok := tagsByName[name]; ok {
				input.TagIDs = append(input.TagIDs, id)
			}
		}

		post, err := postService.Create(ctx, input, author.ID)
		if err != nil {
			log.Fatalf("Failed to seed post %q: %v", sp.title, err)
		}
		log.Printf("  - created post %q (slug %q)", post.Title, post.Slug)
		created++
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Posts created: %d", created)
}

func seedAuthor(ctx context.Context, users repository.UserRepository, authService service.AuthService) (*model.User, error) {
	existing, err := users.FindActiveByEmail(ctx, "demo@example.com")
	if err == nil {
		log.Println("Demo author already exists")
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	_, user, err := authService.Register(ctx, service.RegisterInput{
		Username:  "demo",
		Email:     "demo@example.com",
		Password:  "demo-password",
		FirstName: ptr("Demo"),
		LastName:  ptr("Author"),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Created demo author (id %d)", user.ID)
	return user, nil
}

func seedCategoryData(ctx context.Context, categoryService service.CategoryService) (map[string]uint, int, error) {
	existing, err := categoryService.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	byName := make(map[string]uint, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	created := 0
	for _, input := range seedCategories {
		if _, ok := byName[input.Name]; ok {
			continue
		}
		category, err := categoryService.Create(ctx, input)
		if err != nil {
			return nil, created, err
		}
		byName[category.Name] = category.ID
		created++
	}
	return byName, created, nil
}

func seedTagData(ctx context.Context, tagService service.TagService) (map[string]uint, int, error) {
	existing, err := tagService.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	byName := make(map[string]uint, len(existing))
	for _, t := range existing {
		byName[t.Name] = t.ID
	}

	created := 0
	for _, name := range seedTags {
		if _, ok := byName[name]; ok {
			continue
		}
		tag, err := tagService.Create(ctx, name)
		if err != nil {
			return nil, created, err
		}
		byName[tag.Name] = tag.ID
		created++
	}
	return byName, created, nil
}

func ptr(s string) *string {
	return &s
}
