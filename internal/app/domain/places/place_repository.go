package places

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
	database "github.com/FACorreiaa/trip-planner/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// IngestBatch inserts every record whose place_id is new, skipping known
	// ones, in a single transaction. It returns the number of records attempted.
	IngestBatch(ctx context.Context, records []models.PlaceRecord) (int, error)
	// Search returns the places of a category in the latitude bucket.
	Search(ctx context.Context, category string, bucket int) ([]models.Place, error)
	CountPlaces(ctx context.Context) (int, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *RepositoryImpl) IngestBatch(ctx context.Context, records []models.PlaceRecord) (_ int, err error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "IngestBatch", trace.WithAttributes(
		attribute.Int("places.batch_size", len(records)),
	))
	defer span.End()
	defer func(start time.Time) { database.ObserveQuery(ctx, "places.ingest", start, err) }(time.Now())

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return 0, models.Persistence("failed to begin transaction", err)
	}

	for i, rec := range records {
		query, args, err := buildInsertPlace(rec)
		if err != nil {
			database.Rollback(ctx, tx, r.logger)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to coerce place record")
			r.logger.Warn("Rejected place record", zap.Int("index", i), zap.Error(err))
			return 0, models.Persistence(fmt.Sprintf("record %d", i), err)
		}
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			database.Rollback(ctx, tx, r.logger)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to insert place")
			r.logger.Error("Failed to insert place", zap.Int("index", i), zap.Error(err))
			return 0, models.Persistence(fmt.Sprintf("failed to insert record %d", i), err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return 0, models.Persistence("failed to commit place batch", err)
	}

	r.logger.Info("Place batch ingested", zap.Int("attempted", len(records)))
	span.SetStatus(codes.Ok, "Place batch ingested")
	return len(records), nil
}

func (r *RepositoryImpl) Search(ctx context.Context, category string, bucket int) (_ []models.Place, err error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("places.category", category),
		attribute.Int("places.lat_bucket", bucket),
	))
	defer span.End()
	defer func(start time.Time) { database.ObserveQuery(ctx, "places.search", start, err) }(time.Now())

	query := "SELECT " + selectColumns + " FROM places WHERE type = $1 AND lat_bucket = $2"
	rows, err := r.pgpool.Query(ctx, query, category, bucket)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to search places")
		return nil, models.Persistence("failed to search places", err)
	}
	defer rows.Close()

	places := []models.Place{}
	for rows.Next() {
		var p models.Place
		if err = rows.Scan(scanTargets(&p)...); err != nil {
			span.RecordError(err)
			return nil, models.Persistence("failed to scan place", err)
		}
		places = append(places, p)
	}
	if err = rows.Err(); err != nil {
		return nil, models.Persistence("error iterating place rows", err)
	}

	span.SetAttributes(attribute.Int("places.results", len(places)))
	span.SetStatus(codes.Ok, "Places found")
	return places, nil
}

func (r *RepositoryImpl) CountPlaces(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { database.ObserveQuery(ctx, "places.count", start, err) }(time.Now())

	if err = r.pgpool.QueryRow(ctx, "SELECT count(*) FROM places").Scan(&n); err != nil {
		return 0, models.Persistence("failed to count places", err)
	}
	return n, nil
}

// buildInsertPlace renders an insert of the record's allow-listed fields that
// does nothing when the place_id is already stored.
func buildInsertPlace(rec models.PlaceRecord) (string, []any, error) {
	names, values, err := coerceRecord(rec)
	if err != nil {
		return "", nil, err
	}
	return psql.Insert("places").
		Columns(append([]string{"id"}, names...)...).
		Values(append([]any{uuid.New()}, values...)...).
		Suffix("ON CONFLICT (place_id) DO NOTHING").
		ToSql()
}
