package recommendation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tourease-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-tourease-suggestions/config"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const (
	defaultEnrichmentTimeout = 20 * time.Second
	defaultMaxConcurrency    = 8
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetRecommendations(ctx context.Context, req types.PreferenceRequest) ([]types.Destination, error)
}

// ServiceImpl runs the oracle and, unless the model already enriched its own
// output, fans out one enrichment per destination.
type ServiceImpl struct {
	oracle         Oracle
	enricher       Enricher
	timeout        time.Duration
	maxConcurrency int
	strategy       string
	logger         *slog.Logger
}

// NewServiceImpl accepts a nil enricher, which skips enrichment.
func NewServiceImpl(oracle Oracle, enricher Enricher, cfg config.RecommendationConfig, logger *slog.Logger) *ServiceImpl {
	s := &ServiceImpl{
		oracle:         oracle,
		enricher:       enricher,
		timeout:        cfg.EnrichmentTimeout,
		maxConcurrency: cfg.MaxConcurrency,
		strategy:       cfg.Strategy,
		logger:         logger,
	}
	if s.strategy == "" {
		s.strategy = config.StrategyPipelineDriven
	}
	if s.strategy == config.StrategyModelDriven {
		s.enricher = nil
	}
	if s.timeout <= 0 {
		s.timeout = defaultEnrichmentTimeout
	}
	if s.maxConcurrency <= 0 {
		s.maxConcurrency = defaultMaxConcurrency
	}
	return s
}

func (s *ServiceImpl) GetRecommendations(ctx context.Context, req types.PreferenceRequest) ([]types.Destination, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "GetRecommendations", trace.WithAttributes(
		attribute.String("strategy", s.strategy),
	))
	defer span.End()

	start := time.Now()
	outcome := "ok"
	defer func() {
		attrs := metric.WithAttributes(attribute.String("strategy", s.strategy), attribute.String("outcome", outcome))
		metrics.Get().RecommendationRequestsTotal.Add(ctx, 1, attrs)
		metrics.Get().RecommendationDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	l := s.logger.With(slog.String("method", "GetRecommendations"))

	destinations, err := s.oracle.Recommend(ctx, req)
	if err != nil {
		outcome = "oracle_error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "Oracle failed")
		return nil, err
	}
	if len(destinations) == 0 {
		outcome = "empty"
		l.InfoContext(ctx, "Oracle returned no destinations")
		return []types.Destination{}, nil
	}
	if s.enricher == nil {
		return destinations, nil
	}

	enriched := s.enrichAll(ctx, destinations)
	span.SetAttributes(attribute.Int("destinations.count", len(enriched)))
	span.SetStatus(codes.Ok, "Recommendations enriched")
	return enriched, nil
}

// enrichAll enriches every destination concurrently and merges the results
// back by index, so the output order is the oracle order.
func (s *ServiceImpl) enrichAll(ctx context.Context, destinations []types.Destination) []types.Destination {
	out := make([]types.Destination, len(destinations))
	copy(out, destinations)

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i := range out {
		g.Go(func() error {
			enrichment, err := s.enrichOne(ctx, out[i])
			if err != nil {
				s.logger.WarnContext(ctx, "Enrichment failed",
					slog.Int("index", i),
					slog.String("destination", out[i].Name),
					slog.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
					slog.Any("error", err))
				metrics.Get().EnrichmentFailuresTotal.Add(ctx, 1)
				out[i].ImageURL = ""
				return nil
			}
			apply(&out[i], enrichment)
			return nil
		})
	}
	// Failures are absorbed per destination, so Wait never reports one.
	_ = g.Wait()
	return out
}

// enrichOne bounds a single enrichment by the per-destination timeout even if
// the enricher ignores its context.
func (s *ServiceImpl) enrichOne(ctx context.Context, destination types.Destination) (types.Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		enrichment types.Enrichment
		err        error
	}
	done := make(chan result, 1)
	go func() {
		e, err := s.enricher.Enrich(ctx, destination)
		done <- result{enrichment: e, err: err}
	}()

	select {
	case r := <-done:
		return r.enrichment, r.err
	case <-ctx.Done():
		return types.Enrichment{}, ctx.Err()
	}
}

func apply(d *types.Destination, e types.Enrichment) {
	d.ImageURL = e.ImageURL
	if e.Latitude != nil && e.Longitude != nil {
		d.Latitude, d.Longitude = e.Latitude, e.Longitude
	}
}
