package services

import (
	"errors"
	"fmt"
	"strings"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
	"kasir_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors for Auth ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrUserValidation     = errors.New("user data validation error")
	ErrInvalidRole        = errors.New("invalid user role")
	ErrInactiveUser       = errors.New("user account is disabled")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// --- Auth DTOs ---

type RegisterRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// --- AuthService Interface ---
type AuthService interface {
	Register(req RegisterRequest) (*models.User, error)
	Login(req LoginRequest) (*LoginResponse, error)
	Refresh(refreshToken string) (*LoginResponse, error)
	GetProfile(userID int64) (*models.User, error)
	GetUsers() ([]models.User, error)
}

type authService struct {
	authRepo repositories.AuthRepository
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ar repositories.AuthRepository) AuthService {
	return &authService{authRepo: ar}
}

func (s *authService) Register(req RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrUserValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrUserValidation)
	}
	if !models.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: true,
	}
	userID, err := s.authRepo.CreateUser(user, string(hashed))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.GetProfile(userID)
}

func (s *authService) Login(req LoginRequest) (*LoginResponse, error) {
	user, hashedPassword, err := s.authRepo.FindUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return s.issueTokens(user)
}

func (s *authService) Refresh(refreshToken string) (*LoginResponse, error) {
	claims, err := utils.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.GetProfile(claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *models.User) (*LoginResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (s *authService) GetProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (s *authService) GetUsers() ([]models.User, error) {
	users, err := s.authRepo.GetUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}
