package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
	database "github.com/FACorreiaa/trip-planner/internal/db"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type PostgresUserRepo struct {
	logger *zap.Logger
	pgpool database.Pool
}

func NewPostgresUserRepo(pgpool database.Pool, logger *zap.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, u *models.User) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		attribute.String("user.username", u.Username),
	))
	defer span.End()

	_, err := r.pgpool.Exec(ctx, `
        INSERT INTO users (id, username, email, hashed_password, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Email, u.HashedPassword, u.IsActive, u.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert user")
		if database.IsUniqueViolation(err) {
			return errors.Join(models.ErrConflict, errors.New("username or email already registered"))
		}
		r.logger.Error("Failed to insert user", zap.String("username", u.Username), zap.Error(err))
		return models.Persistence("failed to insert user", err)
	}
	span.SetStatus(codes.Ok, "User created")
	return nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pgpool.QueryRow(ctx, `
        SELECT id, username, email, hashed_password, is_active, created_at
        FROM users
        WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NotFoundf("user %s", userID)
		}
		return nil, models.Persistence("failed to get user", err)
	}
	return &u, nil
}
