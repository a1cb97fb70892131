package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	TripMutationsTotal     metric.Int64Counter
	PlacesIngestedTotal    metric.Int64Counter
	SearchRequestsTotal    metric.Int64Counter
	SearchCacheHitsTotal   metric.Int64Counter
	DBQueryDurationSeconds metric.Float64Histogram
	DBQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the metric instruments once, from the globally
// configured MeterProvider. Before the OTel providers are installed the global
// provider is a no-op, which is what unit tests run against.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("trip-planner")
		m := &AppMetrics{}

		m.HTTPRequestsTotal = mustCounter(meter, "http_requests_total",
			"Total number of HTTP requests completed", "{request}")
		m.HTTPRequestDuration = mustHistogram(meter, "http_request_duration_seconds",
			"Duration of HTTP requests in seconds", "s")
		m.TripMutationsTotal = mustCounter(meter, "trip_mutations_total",
			"Total number of trip create, update and delete operations", "{operation}")
		m.PlacesIngestedTotal = mustCounter(meter, "places_ingested_total",
			"Total number of place records submitted for ingestion", "{record}")
		m.SearchRequestsTotal = mustCounter(meter, "place_search_requests_total",
			"Total number of place catalog searches", "{request}")
		m.SearchCacheHitsTotal = mustCounter(meter, "place_search_cache_hits_total",
			"Place searches answered from the result cache", "{request}")
		m.DBQueryDurationSeconds = mustHistogram(meter, "db_query_duration_seconds",
			"Duration of database operations in seconds", "s")
		m.DBQueryErrorsTotal = mustCounter(meter, "db_query_errors_total",
			"Total number of database operation errors", "{error}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the metric instruments, initializing them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func mustCounter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, description, unit string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
