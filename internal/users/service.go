package users

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/media"
	"ms-booking/internal/models"
	userdb "ms-booking/internal/users/db"
)

var (
	ErrMissingFields      = errors.New("full name, email and password are required")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingAvatar      = errors.New("avatar image data is required")
)

type UserStore interface {
	CreateUser(user models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListUsers() ([]models.User, error)
	DeleteUser(id string) error
	SetFullName(id, name string) error
	SetAvatarURL(id, url string) error
}

type UserService struct {
	DB         UserStore
	Media      media.Store
	Logger     *logger.Logger
	JWTSecret  string
	AdminEmail string
	TokenTTL   time.Duration
	Now        func() time.Time
}

func NewUserService(db UserStore, store media.Store, log *logger.Logger, jwtSecret, adminEmail string, tokenTTL time.Duration) *UserService {
	return &UserService{
		DB:         db,
		Media:      store,
		Logger:     log,
		JWTSecret:  jwtSecret,
		AdminEmail: adminEmail,
		TokenTTL:   tokenTTL,
		Now:        time.Now,
	}
}

// Register creates an account and signs the user in. The configured admin
// email gets the admin role, everyone else is a regular user.
func (s *UserService) Register(req models.RegisterRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	if _, err := s.DB.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, userdb.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleUser
	if email == strings.ToLower(s.AdminEmail) {
		role = models.RoleAdmin
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     req.FullName,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    s.Now(),
	}
	if err := s.DB.CreateUser(user); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("AUTH", fmt.Sprintf("Registered user %s (%s)", user.ID, role))
	}
	return s.issue(&user)
}

// Login verifies the credentials and returns a fresh token.
func (s *UserService) Login(req models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.DB.GetUserByEmail(email)
	if errors.Is(err, userdb.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := auth.NewToken(s.JWTSecret, user.ID, user.Role, s.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) GetUser(id string) (*models.User, error) {
	return s.DB.GetUserByID(id)
}

func (s *UserService) ListUsers() ([]models.User, error) {
	return s.DB.ListUsers()
}

func (s *UserService) DeleteUser(id string) error {
	return s.DB.DeleteUser(id)
}

// UpdateProfile changes the display name on the account and returns the
// refreshed record.
func (s *UserService) UpdateProfile(id string, req models.UpdateProfileRequest) (*models.User, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, ErrMissingFields
	}
	if err := s.DB.SetFullName(id, name); err != nil {
		return nil, err
	}
	return s.DB.GetUserByID(id)
}

// UploadAvatar stores the image under avatars/<userId> and records its URL
// on the account. Re-uploading overwrites the previous file.
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrMissingAvatar
	}

	name := path.Join("avatars", userID+path.Ext(filename))
	url, err := s.Media.Upload(ctx, name, data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	if err := s.DB.SetAvatarURL(userID, url); err != nil {
		return "", err
	}
	return url, nil
}
