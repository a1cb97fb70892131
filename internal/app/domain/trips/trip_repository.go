package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
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

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists the trip aggregate. Every mutating call runs in a
// single transaction and leaves prior state intact on failure.
type Repository interface {
	CreateTrip(ctx context.Context, ownerID uuid.UUID, params models.CreateTripParams) (*models.Trip, error)
	GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*models.Trip, error)
	ListTrips(ctx context.Context, ownerID uuid.UUID) ([]models.TripSummary, error)
	UpdateTrip(ctx context.Context, ownerID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error)
	DeleteTrip(ctx context.Context, ownerID, tripID uuid.UUID) error
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool database.Pool
	now    func() time.Time
}

func NewRepository(pgpool database.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	insertTripQuery = `
        INSERT INTO trips (
            id, user_id, name, members, start_date, end_date, currency, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	insertDayQuery = `
        INSERT INTO days (id, trip_id, day_number, position)
        VALUES ($1, $2, $3, $4)`

	insertDestinationQuery = `
        INSERT INTO destinations (id, day_id, name, address, latitude, longitude, "order", position)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertCostQuery = `
        INSERT INTO costs (id, destination_id, amount, detail, original_amount, original_currency, position)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectTripQuery = `
        SELECT id, user_id, name, members, start_date, end_date, currency, created_at, updated_at
        FROM trips
        WHERE id = $1 AND user_id = $2`

	selectDaysQuery = `
        SELECT id, trip_id, day_number
        FROM days
        WHERE trip_id = $1
        ORDER BY day_number, position`

	selectDestinationsQuery = `
        SELECT ds.id, ds.day_id, ds.name, ds.address, ds.latitude, ds.longitude, ds."order"
        FROM destinations ds
        JOIN days d ON d.id = ds.day_id
        WHERE d.trip_id = $1
        ORDER BY ds."order", ds.position`

	selectCostsQuery = `
        SELECT c.id, c.destination_id, c.amount, c.detail, c.original_amount, c.original_currency
        FROM costs c
        JOIN destinations ds ON ds.id = c.destination_id
        JOIN days d ON d.id = ds.day_id
        WHERE d.trip_id = $1
        ORDER BY c.position`

	listTripsQuery = `
        SELECT t.id, t.user_id, t.name, t.members, t.start_date, t.end_date, t.currency,
               (SELECT count(*) FROM days d WHERE d.trip_id = t.id) AS day_count,
               t.created_at, t.updated_at
        FROM trips t
        WHERE t.user_id = $1
        ORDER BY t.created_at DESC`

	deleteDaysQuery = `DELETE FROM days WHERE trip_id = $1`

	deleteTripQuery = `DELETE FROM trips WHERE id = $1 AND user_id = $2`
)

// CreateTrip inserts the trip and its whole day tree in one transaction.
func (r *RepositoryImpl) CreateTrip(ctx context.Context, ownerID uuid.UUID, params models.CreateTripParams) (_ *models.Trip, err error) {
	ctx, span := otel.Tracer("TripRepository").Start(ctx, "CreateTrip", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.Int("trip.days", len(params.Days)),
	))
	defer span.End()
	defer func(start time.Time) { database.ObserveQuery(ctx, "trips.create", start, err) }(time.Now())

	trip := newTrip(ownerID, params, r.now())

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return nil, models.Persistence("failed to begin transaction", err)
	}

	_, err = tx.Exec(ctx, insertTripQuery,
		trip.ID, trip.UserID, trip.Name, trip.Members, trip.StartDate, trip.EndDate,
		trip.Currency, trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		database.Rollback(ctx, tx, r.logger)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert trip")
		if database.IsForeignKeyViolation(err) {
			return nil, models.NotFoundf("user %s", ownerID)
		}
		r.logger.Error("Failed to insert trip", zap.String("owner_id", ownerID.String()), zap.Error(err))
		return nil, models.Persistence("failed to insert trip", err)
	}

	if err = r.insertDays(ctx, tx, trip.Days); err != nil {
		database.Rollback(ctx, tx, r.logger)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert trip days")
		r.logger.Error("Failed to insert trip days", zap.String("trip_id", trip.ID.String()), zap.Error(err))
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return nil, models.Persistence("failed to commit trip", err)
	}

	nDays, nDests, nCosts := trip.Counts()
	r.logger.Info("Trip created",
		zap.String("trip_id", trip.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("days", nDays),
		zap.Int("destinations", nDests),
		zap.Int("costs", nCosts))
	span.SetAttributes(attribute.String("trip.id", trip.ID.String()))
	span.SetStatus(codes.Ok, "Trip created")
	return trip, nil
}

// readSnapshot pins every statement of a multi-query read to one snapshot.
var readSnapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// GetTrip loads the full aggregate scoped to its owner.
func (r *RepositoryImpl) GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (_ *models.Trip, err error) {
	ctx, span := otel.Tracer("TripRepository").Start(ctx, "GetTrip", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()
	defer func(start time.Time) { database.ObserveQuery(ctx, "trips.get", start, err) }(time.Now())

	// The four reads must see one snapshot or a concurrent subtree replace
	// can leave old days paired with new destinations.
	tx, err := r.pgpool.BeginTx(ctx, readSnapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return nil, models.Persistence("failed to begin transaction", err)
	}

	trip, err := r.loadTrip(ctx, tx, ownerID, tripID)
	if err != nil {
		database.Rollback(ctx, tx, r.logger)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip")
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return nil, models.Persistence("failed to commit trip read", err)
	}
	span.SetStatus(codes.Ok, "Trip loaded")
	return trip, nil
}

// ListTrips returns the owner's trip headers, newest first.
func (r *RepositoryImpl) ListTrips(ctx context.Context, ownerID uuid.UUID) (_ []models.TripSummary, err error) {
	ctx, span := otel.Tracer("TripRepository").Start(ctx, "ListTrips", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
	))
	defer span.End()
	defer func(start time.Time) { database.ObserveQuery(ctx, "trips.list", start, err) }(time.Now())

	rows, err := r.pgpool.Query(ctx, listTripsQuery, ownerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list trips")
		return nil, models.Persistence("failed to list trips", err)
	}
	defer rows.Close()

	summaries := []models.TripSummary{}
	for rows.Next() {
		var s models.TripSummary
		if err = rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Members, &s.StartDate, &s.EndDate,
			&s.Currency, &s.DayCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, models.Persistence("failed to scan trip", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, models.Persistence("error iterating trip rows", err)
	}
	span.SetAttributes(attribute.Int("trips.count", len(summaries)))
	return summaries, nil
}

// UpdateTrip overwrites the present scalar fields and, when Days is set,
// replaces the whole day subtree. Both happen in one transaction.
func (r *RepositoryImpl) UpdateTrip(ctx context.Context, ownerID, tripID uuid.UUID, params models.UpdateTripParams) (_ *models.Trip, err error) {
	ctx, span := otel.Tracer("TripRepository").Start(ctx, "UpdateTrip", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
		attribute.Bool("trip.replace_days", params.Days != nil),
		attribute.Bool("trip.scalar_changes", params.HasScalarChanges()),
	))
	defer span.End()
	defer func(start time.Time) { database.ObserveQuery(ctx, "trips.update", start, err) }(time.Now())

	query, args, err := buildUpdateTripQuery(ownerID, tripID, params, r.now())
	if err != nil {
		return nil, models.Persistence("failed to build update query", err)
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return nil, models.Persistence("failed to begin transaction", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		database.Rollback(ctx, tx, r.logger)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update trip")
		r.logger.Error("Failed to update trip", zap.String("trip_id", tripID.String()), zap.Error(err))
		return nil, models.Persistence("failed to update trip", err)
	}
	if tag.RowsAffected() == 0 {
		database.Rollback(ctx, tx, r.logger)
		err = models.NotFoundf("trip %s", tripID)
		span.SetStatus(codes.Error, "Trip not found")
		return nil, err
	}

	if params.Days != nil {
		if _, err = tx.Exec(ctx, deleteDaysQuery, tripID); err != nil {
			database.Rollback(ctx, tx, r.logger)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to delete trip days")
			r.logger.Error("Failed to delete trip days", zap.String("trip_id", tripID.String()), zap.Error(err))
			return nil, models.Persistence("failed to delete trip days", err)
		}
		if err = r.insertDays(ctx, tx, newDays(tripID, *params.Days)); err != nil {
			database.Rollback(ctx, tx, r.logger)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to insert replacement days")
			r.logger.Error("Failed to insert replacement days", zap.String("trip_id", tripID.String()), zap.Error(err))
			return nil, err
		}
	}

	trip, err := r.loadTrip(ctx, tx, ownerID, tripID)
	if err != nil {
		database.Rollback(ctx, tx, r.logger)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reload trip")
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return nil, models.Persistence("failed to commit trip update", err)
	}

	r.logger.Info("Trip updated",
		zap.String("trip_id", tripID.String()),
		zap.Bool("days_replaced", params.Days != nil))
	span.SetStatus(codes.Ok, "Trip updated")
	return trip, nil
}

// DeleteTrip removes the trip; days, destinations and costs go with it
// through the ON DELETE CASCADE constraints.
func (r *RepositoryImpl) DeleteTrip(ctx context.Context, ownerID, tripID uuid.UUID) (err error) {
	ctx, span := otel.Tracer("TripRepository").Start(ctx, "DeleteTrip", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()
	defer func(start time.Time) { database.ObserveQuery(ctx, "trips.delete", start, err) }(time.Now())

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return models.Persistence("failed to begin transaction", err)
	}

	tag, err := tx.Exec(ctx, deleteTripQuery, tripID, ownerID)
	if err != nil {
		database.Rollback(ctx, tx, r.logger)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete trip")
		r.logger.Error("Failed to delete trip", zap.String("trip_id", tripID.String()), zap.Error(err))
		return models.Persistence("failed to delete trip", err)
	}
	if tag.RowsAffected() == 0 {
		database.Rollback(ctx, tx, r.logger)
		span.SetStatus(codes.Error, "Trip not found")
		return models.NotFoundf("trip %s", tripID)
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return models.Persistence("failed to commit trip delete", err)
	}

	r.logger.Info("Trip deleted", zap.String("trip_id", tripID.String()))
	span.SetStatus(codes.Ok, "Trip deleted")
	return nil
}

func (r *RepositoryImpl) insertDays(ctx context.Context, q database.Querier, days []models.Day) error {
	for dayPos, day := range days {
		if _, err := q.Exec(ctx, insertDayQuery, day.ID, day.TripID, day.DayNumber, dayPos); err != nil {
			return models.Persistence(fmt.Sprintf("failed to insert day %d", day.DayNumber), err)
		}
		for destPos, dest := range day.Destinations {
			if _, err := q.Exec(ctx, insertDestinationQuery,
				dest.ID, dest.DayID, dest.Name, dest.Address, dest.Latitude, dest.Longitude, dest.Order, destPos,
			); err != nil {
				return models.Persistence(fmt.Sprintf("failed to insert destination %q", dest.Name), err)
			}
			for costPos, cost := range dest.Costs {
				if _, err := q.Exec(ctx, insertCostQuery,
					cost.ID, cost.DestinationID, cost.Amount, cost.Detail, cost.OriginalAmount, cost.OriginalCurrency, costPos,
				); err != nil {
					return models.Persistence("failed to insert cost", err)
				}
			}
		}
	}
	return nil
}

func (r *RepositoryImpl) loadTrip(ctx context.Context, q database.Querier, ownerID, tripID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := q.QueryRow(ctx, selectTripQuery, tripID, ownerID).Scan(
		&trip.ID, &trip.UserID, &trip.Name, &trip.Members, &trip.StartDate, &trip.EndDate,
		&trip.Currency, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NotFoundf("trip %s", tripID)
		}
		r.logger.Error("Failed to get trip", zap.String("trip_id", tripID.String()), zap.Error(err))
		return nil, models.Persistence("failed to get trip", err)
	}

	days, err := scanAll(ctx, q, selectDaysQuery, tripID, func(row pgx.Rows) (models.Day, error) {
		var d models.Day
		err := row.Scan(&d.ID, &d.TripID, &d.DayNumber)
		return d, err
	})
	if err != nil {
		return nil, models.Persistence("failed to get days", err)
	}

	dests, err := scanAll(ctx, q, selectDestinationsQuery, tripID, func(row pgx.Rows) (models.Destination, error) {
		var d models.Destination
		err := row.Scan(&d.ID, &d.DayID, &d.Name, &d.Address, &d.Latitude, &d.Longitude, &d.Order)
		return d, err
	})
	if err != nil {
		return nil, models.Persistence("failed to get destinations", err)
	}

	costs, err := scanAll(ctx, q, selectCostsQuery, tripID, func(row pgx.Rows) (models.Cost, error) {
		var c models.Cost
		err := row.Scan(&c.ID, &c.DestinationID, &c.Amount, &c.Detail, &c.OriginalAmount, &c.OriginalCurrency)
		return c, err
	})
	if err != nil {
		return nil, models.Persistence("failed to get costs", err)
	}

	trip.Days = assembleDays(days, dests, costs)
	return &trip, nil
}

func scanAll[T any](ctx context.Context, q database.Querier, query string, tripID uuid.UUID, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := q.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func buildUpdateTripQuery(ownerID, tripID uuid.UUID, p models.UpdateTripParams, now time.Time) (string, []any, error) {
	b := psql.Update("trips")
	if p.Name != nil {
		b = b.Set("name", *p.Name)
	}
	if p.Members != nil {
		b = b.Set("members", *p.Members)
	}
	if p.StartDate != nil {
		b = b.Set("start_date", *p.StartDate)
	}
	if p.EndDate != nil {
		b = b.Set("end_date", *p.EndDate)
	}
	if p.Currency != nil {
		b = b.Set("currency", *p.Currency)
	}
	return b.Set("updated_at", now).
		Where("id = ? AND user_id = ?", tripID, ownerID).
		ToSql()
}
