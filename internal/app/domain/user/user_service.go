package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
)

// Ensure implementation satisfies the interface
var _ UserService = (*ServiceUserImpl)(nil)

// UserService manages the owners trips hang off.
type UserService interface {
	CreateUser(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// ServiceUserImpl provides the implementation for UserService.
type ServiceUserImpl struct {
	logger *zap.Logger
	repo   UserRepo
	cost   int
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, logger *zap.Logger) *ServiceUserImpl {
	return &ServiceUserImpl{
		logger: logger,
		repo:   repo,
		cost:   bcrypt.DefaultCost,
	}
}

// CreateUser registers an owner, storing only a bcrypt hash of the password.
func (s *ServiceUserImpl) CreateUser(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	l := s.logger.With(zap.String("method", "CreateUser"), zap.String("username", params.Username))

	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, models.Validationf("username is required")
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, models.Validationf("email %q is not valid", params.Email)
	}
	if len(params.Password) < 8 {
		return nil, models.Validationf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.cost)
	if err != nil {
		// bcrypt rejects passwords over 72 bytes
		return nil, models.Validationf("password cannot be hashed: %v", err)
	}

	u := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          strings.ToLower(strings.TrimSpace(params.Email)),
		HashedPassword: string(hash),
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		l.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	l.Info("User created", zap.String("user_id", u.ID.String()))
	return u, nil
}

// GetUser retrieves a user by ID.
func (s *ServiceUserImpl) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return u, nil
}
