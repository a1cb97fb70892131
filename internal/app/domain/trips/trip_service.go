package trips

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
	"github.com/FACorreiaa/trip-planner/internal/app/observability/metrics"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service is the business contract of the trip hierarchy manager.
type Service interface {
	CreateTrip(ctx context.Context, ownerID uuid.UUID, params models.CreateTripParams) (*models.Trip, error)
	GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*models.Trip, error)
	ListTrips(ctx context.Context, ownerID uuid.UUID) ([]models.TripSummary, error)
	UpdateTrip(ctx context.Context, ownerID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error)
	DeleteTrip(ctx context.Context, ownerID, tripID uuid.UUID) error
}

type ServiceImpl struct {
	logger   *zap.Logger
	repo     Repository
	validate validator
}

// ServiceOption configures a ServiceImpl.
type ServiceOption func(*ServiceImpl)

// WithStrictOrdering rejects payloads whose day numbers or destination
// orders have gaps or duplicates.
func WithStrictOrdering(strict bool) ServiceOption {
	return func(s *ServiceImpl) { s.validate.strict = strict }
}

func NewServiceImpl(repo Repository, logger *zap.Logger, opts ...ServiceOption) *ServiceImpl {
	s := &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ServiceImpl) CreateTrip(ctx context.Context, ownerID uuid.UUID, params models.CreateTripParams) (*models.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "CreateTrip", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("trip.name", params.Name),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "CreateTrip"), zap.String("owner_id", ownerID.String()))

	if err := s.validate.create(params); err != nil {
		l.Warn("Rejected trip payload", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid trip payload")
		return nil, err
	}

	trip, err := s.repo.CreateTrip(ctx, ownerID, params)
	if err != nil {
		l.Error("Failed to create trip", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create trip")
		return nil, fmt.Errorf("error creating trip: %w", err)
	}

	s.countMutation(ctx, "create")
	span.SetStatus(codes.Ok, "Trip created")
	return trip, nil
}

func (s *ServiceImpl) GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*models.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GetTrip", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	trip, err := s.repo.GetTrip(ctx, ownerID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get trip")
		return nil, fmt.Errorf("error fetching trip: %w", err)
	}
	span.SetStatus(codes.Ok, "Trip fetched")
	return trip, nil
}

func (s *ServiceImpl) ListTrips(ctx context.Context, ownerID uuid.UUID) ([]models.TripSummary, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "ListTrips", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
	))
	defer span.End()

	trips, err := s.repo.ListTrips(ctx, ownerID)
	if err != nil {
		s.logger.Error("Failed to list trips", zap.String("owner_id", ownerID.String()), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list trips")
		return nil, fmt.Errorf("error listing trips: %w", err)
	}
	span.SetStatus(codes.Ok, "Trips listed")
	return trips, nil
}

// UpdateTrip applies a partial update. A present Days list replaces the
// stored one wholesale; there is no per-destination merge.
func (s *ServiceImpl) UpdateTrip(ctx context.Context, ownerID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "UpdateTrip", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "UpdateTrip"),
		zap.String("owner_id", ownerID.String()), zap.String("trip_id", tripID.String()))

	if err := s.validate.update(params); err != nil {
		l.Warn("Rejected trip update", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid trip update")
		return nil, err
	}

	trip, err := s.repo.UpdateTrip(ctx, ownerID, tripID, params)
	if err != nil {
		l.Error("Failed to update trip", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update trip")
		return nil, fmt.Errorf("error updating trip: %w", err)
	}

	s.countMutation(ctx, "update")
	span.SetStatus(codes.Ok, "Trip updated")
	return trip, nil
}

func (s *ServiceImpl) DeleteTrip(ctx context.Context, ownerID, tripID uuid.UUID) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "DeleteTrip", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if err := s.repo.DeleteTrip(ctx, ownerID, tripID); err != nil {
		s.logger.Error("Failed to delete trip",
			zap.String("trip_id", tripID.String()), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete trip")
		return fmt.Errorf("error deleting trip: %w", err)
	}

	s.countMutation(ctx, "delete")
	span.SetStatus(codes.Ok, "Trip deleted")
	return nil
}

func (s *ServiceImpl) countMutation(ctx context.Context, op string) {
	metrics.Get().TripMutationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}
