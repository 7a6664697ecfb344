package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-tourease-suggestions/config"
)

// ContentGenerator is the slice of the Gemini API the services depend on.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ ContentGenerator = (*AIClient)(nil)

type AIClient struct {
	client *genai.Client
	logger *slog.Logger
}

func NewAIClient(ctx context.Context, cfg config.GenAIConfig, logger *slog.Logger) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if cfg.APIKey == "" {
		err := errors.New("GOOGLE_GEMINI_API_KEY is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	span.SetStatus(codes.Ok, "AI client created successfully")
	return &AIClient{client: client, logger: logger}, nil
}

func (ai *AIClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateContent", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Int("contents.count", len(contents)),
	))
	defer span.End()

	resp, err := ai.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		ai.logger.ErrorContext(ctx, "Gemini request failed", slog.String("model", model), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Gemini request failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Content generated")
	return resp, nil
}

// GenerateText sends a single user prompt and returns the concatenated text
// of the first candidate.
func GenerateText(ctx context.Context, gen ContentGenerator, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := gen.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// UnavailableGenerator stands in for the Gemini client when it could not be
// created. Every call fails with Err.
type UnavailableGenerator struct {
	Err error
}

func (u UnavailableGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, u.Err
}
