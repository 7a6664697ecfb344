package recommendation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-tourease-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-tourease-suggestions/config"
	generativeAI "github.com/FACorreiaa/go-tourease-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/places"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const (
	defaultTemperature   = 0.5
	defaultMaxToolRounds = 6
	defaultOracleTimeout = 45 * time.Second
)

// Oracle produces destination recommendations from travel preferences.
type Oracle interface {
	// Recommend returns an empty list for malformed model output and wraps
	// types.ErrOracleUnavailable when the model could not be reached.
	Recommend(ctx context.Context, req types.PreferenceRequest) ([]types.Destination, error)
}

var _ Oracle = (*GeminiOracle)(nil)

type GeminiOracle struct {
	gen           generativeAI.ContentGenerator
	model         string
	temperature   float32
	modelDriven   bool
	resolver      places.Resolver
	maxToolRounds int
	timeout       time.Duration
	logger        *slog.Logger
}

// NewGeminiOracle builds the oracle. resolver is only used, and only
// required, with the model-driven strategy.
func NewGeminiOracle(gen generativeAI.ContentGenerator, genCfg config.GenAIConfig, recCfg config.RecommendationConfig, resolver places.Resolver, logger *slog.Logger) *GeminiOracle {
	o := &GeminiOracle{
		gen:           gen,
		model:         genCfg.Model,
		temperature:   genCfg.Temperature,
		modelDriven:   recCfg.Strategy == config.StrategyModelDriven,
		resolver:      resolver,
		maxToolRounds: recCfg.MaxToolRounds,
		timeout:       genCfg.Timeout,
		logger:        logger,
	}
	if o.temperature <= 0 {
		o.temperature = defaultTemperature
	}
	if o.maxToolRounds <= 0 {
		o.maxToolRounds = defaultMaxToolRounds
	}
	if o.timeout <= 0 {
		o.timeout = defaultOracleTimeout
	}
	return o
}

func (o *GeminiOracle) Recommend(ctx context.Context, req types.PreferenceRequest) ([]types.Destination, error) {
	ctx, span := otel.Tracer("RecommendationOracle").Start(ctx, "Recommend", trace.WithAttributes(
		attribute.String("model", o.model),
		attribute.Bool("model_driven", o.modelDriven),
		attribute.String("location", req.Location),
	))
	defer span.End()

	l := o.logger.With(slog.String("method", "Recommend"))

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](o.temperature),
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
	contents := genai.Text(recommendationPrompt(req, o.modelDriven))

	// one deadline for the whole exchange, tool rounds included
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var text string
	var err error
	if o.modelDriven && o.resolver != nil {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{resolvePlaceDeclaration()}}}
		text, err = o.runToolLoop(callCtx, contents, cfg)
	} else {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = destinationSchema()
		var resp *genai.GenerateContentResponse
		resp, err = o.gen.GenerateContent(callCtx, o.model, contents, cfg)
		if err == nil {
			text = resp.Text()
		}
	}

	if err != nil && !errors.Is(err, types.ErrMalformedResponse) {
		l.ErrorContext(ctx, "Oracle call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Oracle unavailable")
		o.countError(ctx, "unavailable")
		return nil, fmt.Errorf("%w: %w", types.ErrOracleUnavailable, err)
	}

	var destinations []types.Destination
	if err == nil {
		destinations, err = parseRecommendations(text)
	}
	if err != nil {
		l.WarnContext(ctx, "Discarding malformed oracle output", slog.Any("error", err), slog.Int("length", len(text)))
		span.RecordError(err)
		o.countError(ctx, "malformed")
		return []types.Destination{}, nil
	}

	if !o.modelDriven {
		for i := range destinations {
			destinations[i].ImageURL = ""
		}
	}
	span.SetAttributes(attribute.Int("destinations.count", len(destinations)))
	span.SetStatus(codes.Ok, "Recommendations generated")
	return destinations, nil
}

// runToolLoop keeps the conversation going while the model asks for place
// lookups, answering every call, until it replies with text.
func (o *GeminiOracle) runToolLoop(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	for round := 0; round < o.maxToolRounds; round++ {
		resp, err := o.gen.GenerateContent(ctx, o.model, contents, cfg)
		if err != nil {
			return "", err
		}
		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return resp.Text(), nil
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, o.executeTool(ctx, call))
		}
		contents = append(contents, &genai.Content{Role: "user", Parts: parts})
	}
	return "", fmt.Errorf("%w: no answer after %d tool rounds", types.ErrMalformedResponse, o.maxToolRounds)
}

func (o *GeminiOracle) executeTool(ctx context.Context, call *genai.FunctionCall) *genai.Part {
	var response map[string]any
	if call.Name != resolvePlaceTool {
		response = map[string]any{"error": fmt.Sprintf("unknown function %s", call.Name)}
	} else {
		query, _ := call.Args["query"].(string)
		result := o.resolver.Resolve(ctx, query)
		response = map[string]any{
			"imageUrl":  result.ImageURL,
			"latitude":  result.Latitude,
			"longitude": result.Longitude,
		}
	}
	part := genai.NewPartFromFunctionResponse(call.Name, response)
	part.FunctionResponse.ID = call.ID
	return part
}

func (o *GeminiOracle) countError(ctx context.Context, kind string) {
	metrics.Get().OracleErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
