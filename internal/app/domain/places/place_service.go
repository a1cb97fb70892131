package places

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
	"github.com/FACorreiaa/trip-planner/internal/app/observability/metrics"
	"github.com/FACorreiaa/trip-planner/internal/pkg/cache"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

type Service interface {
	IngestPlaces(ctx context.Context, records []models.PlaceRecord) (int, error)
	SearchPlaces(ctx context.Context, filter models.PlaceSearchFilter) ([]models.Place, error)
	CountPlaces(ctx context.Context) (int, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	cache  *cache.UnifiedCache[[]models.Place]

	// generation advances on every successful ingest. A search only caches
	// its rows if no ingest committed while it was reading.
	generation atomic.Uint64
	cacheMu    sync.Mutex
}

// NewServiceImpl builds the catalog service. Search results are cached for
// cacheTTL and dropped whenever a batch is ingested.
func NewServiceImpl(repo Repository, logger *zap.Logger, cacheTTL time.Duration) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.NewUnifiedCache[[]models.Place](cacheTTL, "place_search", logger),
	}
}

func (s *ServiceImpl) IngestPlaces(ctx context.Context, records []models.PlaceRecord) (int, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "IngestPlaces", trace.WithAttributes(
		attribute.Int("places.batch_size", len(records)),
	))
	defer span.End()

	for i, rec := range records {
		if _, ok := rec.PlaceID(); !ok {
			err := models.Validationf("places[%d]: place_id is required", i)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Invalid place batch")
			return 0, err
		}
	}

	n, err := s.repo.IngestBatch(ctx, records)
	if err != nil {
		s.logger.Error("Failed to ingest places", zap.Int("batch_size", len(records)), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to ingest places")
		return 0, fmt.Errorf("error ingesting places: %w", err)
	}

	s.invalidate()
	metrics.Get().PlacesIngestedTotal.Add(ctx, int64(n))
	span.SetStatus(codes.Ok, "Places ingested")
	return n, nil
}

// SearchPlaces finds places of a category whose latitude shares the query's
// integer part. Longitude does not narrow the result.
func (s *ServiceImpl) SearchPlaces(ctx context.Context, filter models.PlaceSearchFilter) ([]models.Place, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "SearchPlaces", trace.WithAttributes(
		attribute.String("places.category", filter.Category),
		attribute.Float64("places.latitude", filter.Latitude),
		attribute.Float64("places.longitude", filter.Longitude),
	))
	defer span.End()

	category := filter.Category
	if category == "" {
		return nil, models.Validationf("category is required")
	}
	if math.IsNaN(filter.Latitude) || filter.Latitude < -90 || filter.Latitude > 90 {
		return nil, models.Validationf("latitude %v out of range", filter.Latitude)
	}

	bucket := bucketOf(filter.Latitude)
	key := cache.Key(category, strconv.Itoa(bucket))
	m := metrics.Get()
	m.SearchRequestsTotal.Add(ctx, 1)

	if places, ok := s.cache.Get(key); ok {
		m.SearchCacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return places, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	gen := s.generation.Load()
	places, err := s.repo.Search(ctx, category, bucket)
	if err != nil {
		s.logger.Error("Failed to search places",
			zap.String("category", category), zap.Int("bucket", bucket), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to search places")
		return nil, fmt.Errorf("error searching places: %w", err)
	}

	s.cacheMu.Lock()
	if s.generation.Load() == gen {
		s.cache.Set(key, places)
	}
	s.cacheMu.Unlock()
	span.SetStatus(codes.Ok, "Places found")
	return places, nil
}

func (s *ServiceImpl) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	stats := s.cache.GetMetrics()
	s.logger.Debug("Flushing place search cache",
		zap.Int("entries", s.cache.Size()),
		zap.Int64("hits", stats.Hits),
		zap.Int64("misses", stats.Misses))
	s.generation.Add(1)
	s.cache.Clear()
}

func (s *ServiceImpl) CountPlaces(ctx context.Context) (int, error) {
	n, err := s.repo.CountPlaces(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting places: %w", err)
	}
	return n, nil
}
