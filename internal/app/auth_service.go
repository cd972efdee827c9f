package app

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"warbler/internal/model"
	"warbler/internal/repository"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")

	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password; callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type AuthService struct {
	userRepo *repository.UserRepository
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

func NewAuthService(userRepo *repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Signup hashes the password and persists a new user. Uniqueness
// violations surface as ErrUsernameTaken / ErrEmailTaken; the unique
// indexes on users back the check.
func (s *AuthService) Signup(input SignupInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := input.Password

	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	existingByName, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameTaken
	}

	existingByEmail, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	imageURL := strings.TrimSpace(input.ImageURL)
	if imageURL == "" {
		imageURL = model.DefaultImageURL
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		ImageURL:     imageURL,
	}
	if err := s.userRepo.Create(user); err != nil {
		// A row inserted between the pre-flight lookups and Create trips
		// the unique index; keep the sentinel contract for that race too.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateError(username)
		}
		return nil, err
	}
	return user, nil
}

// duplicateError decides which unique index a failed insert hit.
func (s *AuthService) duplicateError(username string) error {
	existing, err := s.userRepo.GetByUsername(username)
	if err == nil && existing != nil {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}

// Authenticate returns the user matching username and password, or
// ErrInvalidCredentials on any failure.
func (s *AuthService) Authenticate(username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) GetUserByID(id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.userRepo.GetByID(id)
}
