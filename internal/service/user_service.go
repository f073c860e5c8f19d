package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
	NIM      string `json:"nim"`
	NIP      string `json:"nip"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse returns User data without exposing sensitive fields
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	NIM       *string   `json:"nim"`
	NIP       *string   `json:"nip"`
	CreatedAt string    `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, *TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*UserResponse, *TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func validRole(role string) bool {
	switch role {
	case model.RoleStudent, model.RoleAdmin, model.RoleSupervisor, model.RoleLecturer:
		return true
	}
	return false
}

func mapToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		NIM:       user.NIM,
		NIP:       user.NIP,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, *TokenResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !validRole(role) {
		return nil, nil, fmt.Errorf("%w: invalid role %q", apperr.ErrInvalidInput, role)
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	if req.NIM != "" {
		if _, err := s.repo.GetByNIM(ctx, req.NIM); err == nil {
			return nil, nil, fmt.Errorf("%w: NIM already registered", apperr.ErrConflict)
		}
	}
	if req.NIP != "" {
		if _, err := s.repo.GetByNIP(ctx, req.NIP); err == nil {
			return nil, nil, fmt.Errorf("%w: NIP already registered", apperr.ErrConflict)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: hashing password: %v", apperr.ErrInternal, err)
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashed),
		Role:     role,
		IsActive: true,
	}
	if req.NIM != "" {
		user.NIM = &req.NIM
	}
	if req.NIP != "" {
		user.NIP = &req.NIP
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("%w: creating user: %v", apperr.ErrInternal, err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return mapToUserResponse(user), tokens, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*UserResponse, *TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid email or password", apperr.ErrInvalidInput)
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: account is inactive", apperr.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid email or password", apperr.ErrInvalidInput)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return mapToUserResponse(user), tokens, nil
}

func (s *userService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", apperr.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, req.RefreshToken)
		return nil, fmt.Errorf("%w: refresh token expired", apperr.ErrInvalidInput)
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil || !user.IsActive {
		return nil, fmt.Errorf("%w: user not found or inactive", apperr.ErrForbidden)
	}

	// Rotate: the old refresh token is single use.
	_ = s.repo.DeleteRefreshToken(ctx, req.RefreshToken)

	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	return mapToUserResponse(user), nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: signing token: %v", apperr.ErrInternal, err)
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("%w: storing refresh token: %v", apperr.ErrInternal, err)
	}

	return &TokenResponse{Token: signed, RefreshToken: refresh.Token}, nil
}
