package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
	"github.com/seatwise-systems/seatwise/pkg/tokens"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrMissingFields      = errors.New("username, email and password are required")
)

// AccountService manages user accounts and login.
type AccountService struct {
	repo     repository.Repository
	tokenGen *tokens.TokenGenerator
	tokenTTL time.Duration
}

func NewAccountService(repo repository.Repository, tokenGen *tokens.TokenGenerator, tokenTTL time.Duration) *AccountService {
	if tokenTTL == 0 {
		tokenTTL = 15 * time.Minute
	}
	return &AccountService{
		repo:     repo,
		tokenGen: tokenGen,
		tokenTTL: tokenTTL,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.User, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleUser
	}
	switch role {
	case models.RoleUser, models.RoleProvider, models.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userID, _ := uuid.NewV7()
	user := &models.User{
		ID:           userID.String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Roles:        []string{string(role)},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AccountService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokenGen.GenerateAccessToken(user.ID, user.Roles)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(s.tokenTTL),
		User:        user,
	}, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
