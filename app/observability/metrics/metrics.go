package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RecommendationRequestsTotal   metric.Int64Counter
	RecommendationDurationSeconds metric.Float64Histogram
	OracleErrorsTotal             metric.Int64Counter
	EnrichmentFailuresTotal       metric.Int64Counter
	PlaceLookupsTotal             metric.Int64Counter
	HistoryWriteErrorsTotal       metric.Int64Counter
	BackgroundTaskFailuresTotal   metric.Int64Counter
	DbQueryDurationSeconds        metric.Float64Histogram
	DbQueryErrorsTotal            metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Call it after the provider is installed so the instruments are exported.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TourEase")
		var err error
		m := &AppMetrics{}

		m.RecommendationRequestsTotal, err = meter.Int64Counter(
			"recommendation_requests_total",
			metric.WithDescription("Total number of recommendation pipeline runs"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_requests_total: %v", err)
		}

		m.RecommendationDurationSeconds, err = meter.Float64Histogram(
			"recommendation_duration_seconds",
			metric.WithDescription("Duration of recommendation pipeline runs in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_duration_seconds: %v", err)
		}

		m.OracleErrorsTotal, err = meter.Int64Counter(
			"oracle_errors_total",
			metric.WithDescription("Oracle calls that failed or returned malformed output"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create oracle_errors_total: %v", err)
		}

		m.EnrichmentFailuresTotal, err = meter.Int64Counter(
			"enrichment_failures_total",
			metric.WithDescription("Destinations left without an image after enrichment"),
			metric.WithUnit("{destination}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create enrichment_failures_total: %v", err)
		}

		m.PlaceLookupsTotal, err = meter.Int64Counter(
			"place_lookups_total",
			metric.WithDescription("Place resolutions by outcome"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_lookups_total: %v", err)
		}

		m.HistoryWriteErrorsTotal, err = meter.Int64Counter(
			"history_write_errors_total",
			metric.WithDescription("Search history writes that failed"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create history_write_errors_total: %v", err)
		}

		m.BackgroundTaskFailuresTotal, err = meter.Int64Counter(
			"background_task_failures_total",
			metric.WithDescription("Detached background tasks that returned an error"),
			metric.WithUnit("{task}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create background_task_failures_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of document store queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of document store query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the instruments, creating them against whatever provider is
// installed if InitAppMetrics has not run yet (a noop provider in tests).
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
