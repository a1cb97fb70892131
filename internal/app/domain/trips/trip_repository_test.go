package trips

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
)

var (
	tripColumns = []string{"id", "user_id", "name", "members", "start_date", "end_date", "currency", "created_at", "updated_at"}
	dayColumns  = []string{"id", "trip_id", "day_number"}
	destColumns = []string{"id", "day_id", "name", "address", "latitude", "longitude", "order"}
	costColumns = []string{"id", "destination_id", "amount", "detail", "original_amount", "original_currency"}
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, zap.NewNop()), mock
}

func TestRepositoryCreateTrip(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	params := models.CreateTripParams{
		Name: "Lisbon",
		Days: []models.CreateDayParams{{
			DayNumber: ptr(1),
			Destinations: []models.CreateDestinationParams{{
				Name:  "Belem",
				Costs: []models.CreateCostParams{{Amount: ptr(12.5)}},
			}},
		}},
	}

	t.Run("persists the whole tree in one transaction", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO trips").
			WithArgs(pgxmock.AnyArg(), ownerID, "Lisbon", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				"USD", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO days").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 1, 0).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO destinations").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "Belem", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 0, 0).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO costs").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 12.5, pgxmock.AnyArg(), 0.0, "USD", 0).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		trip, err := repo.CreateTrip(ctx, ownerID, params)
		require.NoError(t, err)
		assert.Equal(t, "USD", trip.Currency)
		days, dests, costs := trip.Counts()
		assert.Equal(t, 1, days)
		assert.Equal(t, 1, dests)
		assert.Equal(t, 1, costs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown owner is not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO trips").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23503"})
		mock.ExpectRollback()

		trip, err := repo.CreateTrip(ctx, ownerID, params)
		assert.Nil(t, trip)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure below the trip rolls everything back", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO trips").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO days").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO destinations").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("value too long"))
		mock.ExpectRollback()

		trip, err := repo.CreateTrip(ctx, ownerID, params)
		assert.Nil(t, trip)
		assert.Equal(t, models.KindPersistence, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

		_, err := repo.CreateTrip(ctx, ownerID, params)
		assert.ErrorIs(t, err, models.ErrPersistence)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryGetTrip(t *testing.T) {
	ctx := context.Background()
	ownerID, tripID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	t.Run("assembles the aggregate in stored order", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		day1, day2 := uuid.New(), uuid.New()
		destA, destB := uuid.New(), uuid.New()

		mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		mock.ExpectQuery("FROM trips").
			WithArgs(tripID, ownerID).
			WillReturnRows(pgxmock.NewRows(tripColumns).
				AddRow(tripID, ownerID, "Lisbon", ptr(2), ptr("2025-06-01"), nil, "EUR", now, now))
		mock.ExpectQuery("FROM days").
			WithArgs(tripID).
			WillReturnRows(pgxmock.NewRows(dayColumns).
				AddRow(day1, tripID, 1).
				AddRow(day2, tripID, 2))
		mock.ExpectQuery("FROM destinations").
			WithArgs(tripID).
			WillReturnRows(pgxmock.NewRows(destColumns).
				AddRow(destA, day1, "Alfama", nil, ptr(38.71), ptr(-9.13), 0).
				AddRow(destB, day2, "Sintra", ptr("Sintra"), nil, nil, 0))
		mock.ExpectQuery("FROM costs").
			WithArgs(tripID).
			WillReturnRows(pgxmock.NewRows(costColumns).
				AddRow(uuid.New(), destB, 20.0, ptr("train"), 22.0, "USD"))
		mock.ExpectCommit()

		trip, err := repo.GetTrip(ctx, ownerID, tripID)
		require.NoError(t, err)
		assert.Equal(t, "Lisbon", trip.Name)
		assert.Equal(t, 2, *trip.Members)
		assert.Nil(t, trip.EndDate)
		require.Len(t, trip.Days, 2)
		assert.Equal(t, 1, trip.Days[0].DayNumber)
		require.Len(t, trip.Days[0].Destinations, 1)
		assert.Equal(t, "Alfama", trip.Days[0].Destinations[0].Name)
		assert.Empty(t, trip.Days[0].Destinations[0].Costs)
		require.Len(t, trip.Days[1].Destinations[0].Costs, 1)
		assert.Equal(t, 22.0, trip.Days[1].Destinations[0].Costs[0].OriginalAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing or foreign trip is not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		mock.ExpectQuery("FROM trips").
			WithArgs(tripID, ownerID).
			WillReturnRows(pgxmock.NewRows(tripColumns))
		mock.ExpectRollback()

		trip, err := repo.GetTrip(ctx, ownerID, tripID)
		assert.Nil(t, trip)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("child read failure rolls back the snapshot", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		mock.ExpectQuery("FROM trips").
			WithArgs(tripID, ownerID).
			WillReturnRows(pgxmock.NewRows(tripColumns).
				AddRow(tripID, ownerID, "Lisbon", nil, nil, nil, "EUR", now, now))
		mock.ExpectQuery("FROM days").
			WithArgs(tripID).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := repo.GetTrip(ctx, ownerID, tripID)
		assert.ErrorIs(t, err, models.ErrPersistence)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}).
			WillReturnError(errors.New("pool closed"))

		_, err := repo.GetTrip(ctx, ownerID, tripID)
		assert.ErrorIs(t, err, models.ErrPersistence)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryListTrips(t *testing.T) {
	repo, mock := newMockRepo(t)
	ownerID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM trips t").
		WithArgs(ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "members", "start_date", "end_date", "currency", "day_count", "created_at", "updated_at"}).
			AddRow(uuid.New(), ownerID, "Newer", nil, nil, nil, "USD", 3, now, now).
			AddRow(uuid.New(), ownerID, "Older", nil, nil, nil, "JPY", 0, now.Add(-time.Hour), now))

	trips, err := repo.ListTrips(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "Newer", trips[0].Name)
	assert.Equal(t, 3, trips[0].DayCount)
	assert.Equal(t, "JPY", trips[1].Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateTrip(t *testing.T) {
	ctx := context.Background()
	ownerID, tripID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	t.Run("replaces the day subtree", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		newDayID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE trips SET name").
			WithArgs("Renamed", pgxmock.AnyArg(), tripID, ownerID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("DELETE FROM days").
			WithArgs(tripID).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		mock.ExpectExec("INSERT INTO days").
			WithArgs(pgxmock.AnyArg(), tripID, 1, 0).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("FROM trips").
			WithArgs(tripID, ownerID).
			WillReturnRows(pgxmock.NewRows(tripColumns).
				AddRow(tripID, ownerID, "Renamed", nil, nil, nil, "USD", now, now))
		mock.ExpectQuery("FROM days").
			WithArgs(tripID).
			WillReturnRows(pgxmock.NewRows(dayColumns).AddRow(newDayID, tripID, 1))
		mock.ExpectQuery("FROM destinations").
			WithArgs(tripID).
			WillReturnRows(pgxmock.NewRows(destColumns))
		mock.ExpectQuery("FROM costs").
			WithArgs(tripID).
			WillReturnRows(pgxmock.NewRows(costColumns))
		mock.ExpectCommit()

		trip, err := repo.UpdateTrip(ctx, ownerID, tripID, models.UpdateTripParams{
			Name: ptr("Renamed"),
			Days: &[]models.CreateDayParams{{DayNumber: ptr(1)}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", trip.Name)
		require.Len(t, trip.Days, 1)
		assert.Equal(t, newDayID, trip.Days[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scalars only leave days untouched", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE trips SET currency").
			WithArgs("EUR", pgxmock.AnyArg(), tripID, ownerID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectQuery("FROM trips").
			WithArgs(tripID, ownerID).
			WillReturnRows(pgxmock.NewRows(tripColumns).
				AddRow(tripID, ownerID, "Trip", nil, nil, nil, "EUR", now, now))
		mock.ExpectQuery("FROM days").WithArgs(tripID).WillReturnRows(pgxmock.NewRows(dayColumns))
		mock.ExpectQuery("FROM destinations").WithArgs(tripID).WillReturnRows(pgxmock.NewRows(destColumns))
		mock.ExpectQuery("FROM costs").WithArgs(tripID).WillReturnRows(pgxmock.NewRows(costColumns))
		mock.ExpectCommit()

		trip, err := repo.UpdateTrip(ctx, ownerID, tripID, models.UpdateTripParams{Currency: ptr("EUR")})
		require.NoError(t, err)
		assert.Equal(t, "EUR", trip.Currency)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown trip rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE trips").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		_, err := repo.UpdateTrip(ctx, ownerID, tripID, models.UpdateTripParams{
			Days: &[]models.CreateDayParams{},
		})
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed replacement leaves prior tree", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE trips").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("DELETE FROM days").
			WithArgs(pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec("INSERT INTO days").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := repo.UpdateTrip(ctx, ownerID, tripID, models.UpdateTripParams{
			Days: &[]models.CreateDayParams{{DayNumber: ptr(1)}},
		})
		assert.Equal(t, models.KindPersistence, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryDeleteTrip(t *testing.T) {
	ctx := context.Background()
	ownerID, tripID := uuid.New(), uuid.New()

	t.Run("single cascading statement", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM trips").
			WithArgs(tripID, ownerID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		require.NoError(t, repo.DeleteTrip(ctx, ownerID, tripID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM trips").
			WithArgs(tripID, ownerID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.DeleteTrip(ctx, ownerID, tripID), models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBuildUpdateTripQuery(t *testing.T) {
	ownerID, tripID := uuid.New(), uuid.New()
	now := time.Now()

	query, args, err := buildUpdateTripQuery(ownerID, tripID, models.UpdateTripParams{
		Name:    ptr("n"),
		Members: ptr(4),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE trips SET name = $1, members = $2, updated_at = $3 WHERE id = $4 AND user_id = $5", query)
	assert.Equal(t, []any{"n", 4, now, tripID, ownerID}, args)

	query, args, err = buildUpdateTripQuery(ownerID, tripID, models.UpdateTripParams{}, now)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE trips SET updated_at = $1 WHERE id = $2 AND user_id = $3", query)
	assert.Len(t, args, 3)
}
