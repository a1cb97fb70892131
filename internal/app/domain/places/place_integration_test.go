//go:build integration

package places

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
	"github.com/FACorreiaa/trip-planner/internal/db/dbtest"
)

var pg *dbtest.Postgres

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	pg, err = dbtest.Start(ctx)
	if err != nil {
		fmt.Printf("Failed to start postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(ctx); err != nil {
		fmt.Printf("Failed to stop postgres: %v\n", err)
	}
	os.Exit(code)
}

func newIntegrationService(t *testing.T) *ServiceImpl {
	t.Helper()
	pg.Reset(t)
	logger := zap.NewNop()
	return NewServiceImpl(NewRepository(pg.Pool, logger), logger, time.Minute)
}

func cafe(placeID string, lat float64) models.PlaceRecord {
	return models.PlaceRecord{
		"place_id":        placeID,
		"title":           "Cafe " + placeID,
		"type":            "cafe",
		"rating":          4.5,
		"reviews":         float64(120),
		"types":           []any{"cafe", "bakery"},
		"gps_coordinates": map[string]any{"latitude": lat, "longitude": -9.1},
	}
}

func placeIDs(ps []models.Place) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.PlaceID)
	}
	return ids
}

func TestIngestIdempotent(t *testing.T) {
	svc := newIntegrationService(t)
	ctx := context.Background()

	_, err := svc.IngestPlaces(ctx, []models.PlaceRecord{cafe("a", 10.1)})
	require.NoError(t, err)
	_, err = svc.IngestPlaces(ctx, []models.PlaceRecord{cafe("a", 10.1)})
	require.NoError(t, err)

	n, err := svc.CountPlaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	second := cafe("a", 10.1)
	second["title"] = "Imposter"
	_, err = svc.IngestPlaces(ctx, []models.PlaceRecord{second})
	require.NoError(t, err)

	found, err := svc.SearchPlaces(ctx, models.PlaceSearchFilter{Category: "cafe", Latitude: 10.9})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cafe a", *found[0].Title)
}

func TestIngestBatchAtomic(t *testing.T) {
	svc := newIntegrationService(t)
	ctx := context.Background()

	bad := cafe("c", 0)
	bad["gps_coordinates"] = map[string]any{"latitude": "north"}
	batch := []models.PlaceRecord{cafe("a", 1), cafe("b", 2), bad, cafe("d", 3), cafe("e", 4)}

	_, err := svc.IngestPlaces(ctx, batch)
	assert.ErrorIs(t, err, models.ErrPersistence)

	n, err := svc.CountPlaces(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSearchBuckets(t *testing.T) {
	svc := newIntegrationService(t)
	ctx := context.Background()

	batch := []models.PlaceRecord{cafe("ten", 10.1), cafe("eleven", 11.0), cafe("south", -10.7)}
	bar := cafe("bar", 10.3)
	bar["type"] = "bar"
	batch = append(batch, bar)

	_, err := svc.IngestPlaces(ctx, batch)
	require.NoError(t, err)

	cases := []struct {
		lat  float64
		want []string
	}{
		{10.5, []string{"ten"}},
		{11.2, []string{"eleven"}},
		{-10.2, []string{"south"}},
		{-11.5, []string{}},
		{0.4, []string{}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.lat), func(t *testing.T) {
			found, err := svc.SearchPlaces(ctx, models.PlaceSearchFilter{Category: "cafe", Latitude: tc.lat})
			require.NoError(t, err)
			assert.Equal(t, tc.want, placeIDs(found))
		})
	}
}

func TestPlaceRoundTrip(t *testing.T) {
	svc := newIntegrationService(t)
	ctx := context.Background()

	rec := cafe("rt", 38.7)
	rec["not_a_column"] = "dropped"
	_, err := svc.IngestPlaces(ctx, []models.PlaceRecord{rec})
	require.NoError(t, err)

	found, err := svc.SearchPlaces(ctx, models.PlaceSearchFilter{Category: "cafe", Latitude: 38.2})
	require.NoError(t, err)
	require.Len(t, found, 1)

	p := found[0]
	assert.Equal(t, 4.5, *p.Rating)
	assert.Equal(t, 120, *p.Reviews)
	assert.JSONEq(t, `["cafe","bakery"]`, string(p.Types))
	assert.JSONEq(t, `{"latitude":38.7,"longitude":-9.1}`, string(p.GPSCoordinates))
	assert.Nil(t, p.Phone)
}
