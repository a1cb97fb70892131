package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
)

// MockUserRepo is a mock implementation of UserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) CreateUser(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Success stores a bcrypt hash", func(t *testing.T) {
		repo := new(MockUserRepo)
		svc := NewUserService(repo, zap.NewNop())
		svc.cost = bcrypt.MinCost
		repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil).Once()

		u, err := svc.CreateUser(ctx, models.CreateUserParams{Username: " ana ", Email: "Ana@Example.com", Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, "ana", u.Username)
		assert.Equal(t, "ana@example.com", u.Email)
		assert.True(t, u.IsActive)
		assert.NotEqual(t, "correct horse", u.HashedPassword)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte("correct horse")))
		repo.AssertExpectations(t)
	})

	tests := []struct {
		name   string
		params models.CreateUserParams
	}{
		{"Missing username", models.CreateUserParams{Email: "a@b.c", Password: "12345678"}},
		{"Bad email", models.CreateUserParams{Username: "a", Email: "nope", Password: "12345678"}},
		{"Short password", models.CreateUserParams{Username: "a", Email: "a@b.c", Password: "123"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockUserRepo)
			_, err := NewUserService(repo, zap.NewNop()).CreateUser(ctx, tc.params)
			assert.ErrorIs(t, err, models.ErrValidation)
			repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		})
	}

	t.Run("Duplicate is a conflict", func(t *testing.T) {
		repo := new(MockUserRepo)
		svc := NewUserService(repo, zap.NewNop())
		svc.cost = bcrypt.MinCost
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(models.ErrConflict).Once()

		_, err := svc.CreateUser(ctx, models.CreateUserParams{Username: "a", Email: "a@b.c", Password: "12345678"})
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestPostgresUserRepo(t *testing.T) {
	ctx := context.Background()
	u := &models.User{ID: uuid.New(), Username: "ana", Email: "ana@example.com", HashedPassword: "h", IsActive: true, CreatedAt: time.Now()}

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectExec("INSERT INTO users").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err = NewPostgresUserRepo(pool, zap.NewNop()).CreateUser(ctx, u)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("other failures are persistence errors", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectExec("INSERT INTO users").WillReturnError(errors.New("disk full"))

		err = NewPostgresUserRepo(pool, zap.NewNop()).CreateUser(ctx, u)
		assert.ErrorIs(t, err, models.ErrPersistence)
	})

	t.Run("get missing user", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectQuery("FROM users").
			WithArgs(u.ID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "hashed_password", "is_active", "created_at"}))

		_, err = NewPostgresUserRepo(pool, zap.NewNop()).GetUserByID(ctx, u.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("get user", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectQuery("FROM users").
			WithArgs(u.ID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "hashed_password", "is_active", "created_at"}).
				AddRow(u.ID, u.Username, u.Email, u.HashedPassword, true, u.CreatedAt))

		got, err := NewPostgresUserRepo(pool, zap.NewNop()).GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ana", got.Username)
		assert.True(t, got.IsActive)
	})
}
