package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"blogapi/internal/auth"
	"blogapi/internal/model"
	"blogapi/internal/repository"
)

const bcryptCost = 10

var (
	// ErrInvalidCredentials is returned when email or password is incorrect
	// or the account is deactivated.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("this email is already registered")
	// ErrUsernameTaken is returned when registering with an existing username.
	ErrUsernameTaken = errors.New("this username is already taken")
)

// RegisterInput carries the registration fields.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (token string, user *model.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, jwtService *auth.JWTService) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
	}
}

// Register creates a new user with a hashed password and issues a session
// token. Email and username conflicts are reported separately.
func (s *authService) Register(ctx context.Context, input RegisterInput) (string, *model.User, error) {
	emailTaken, err := s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return "", nil, fmt.Errorf("check email: %w", err)
	}
	if emailTaken {
		return "", nil, ErrEmailTaken
	}

	usernameTaken, err := s.users.UsernameExists(ctx, input.Username)
	if err != nil {
		return "", nil, fmt.Errorf("check username: %w", err)
	}
	if usernameTaken {
		return "", nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login verifies credentials against the stored hash and issues a session
// token. Deactivated accounts fail the same way as wrong credentials.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) issueToken(user *model.User) (string, error) {
	var first, last string
	if user.FirstName != nil {
		first = *user.FirstName
	}
	if user.LastName != nil {
		last = *user.LastName
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Username, user.Email, first, last)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
