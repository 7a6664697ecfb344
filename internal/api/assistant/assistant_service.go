package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-tourease-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-tourease-suggestions/config"
	generativeAI "github.com/FACorreiaa/go-tourease-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const (
	defaultAskTimeout = 30 * time.Second
	defaultModel      = "gemini-2.0-flash"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Ask answers a single question about a destination. Every failure,
	// including an empty answer, is reported as types.ErrCouldNotAnswer.
	Ask(ctx context.Context, destination, question string) (string, error)
}

type ServiceImpl struct {
	gen     generativeAI.ContentGenerator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewServiceImpl(gen generativeAI.ContentGenerator, cfg config.GenAIConfig, logger *slog.Logger) *ServiceImpl {
	model := cfg.AssistantModel
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAskTimeout
	}
	return &ServiceImpl{gen: gen, model: model, timeout: timeout, logger: logger}
}

func askPrompt(destination, question string) string {
	return fmt.Sprintf("You are a helpful AI travel assistant. You will answer user questions about travel destinations.\n\nDestination: %s\nQuestion: %s\n\nAnswer:", destination, question)
}

func (s *ServiceImpl) Ask(ctx context.Context, destination, question string) (string, error) {
	ctx, span := otel.Tracer("AssistantService").Start(ctx, "Ask", trace.WithAttributes(
		attribute.String("destination", destination),
		attribute.String("model", s.model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := generativeAI.GenerateText(ctx, s.gen, s.model, askPrompt(destination, question), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
	})
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty answer")
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Assistant could not answer",
			slog.String("destination", destination),
			slog.Any("error", err))
		metrics.Get().OracleErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ask failed")
		return "", fmt.Errorf("%w: %w", types.ErrCouldNotAnswer, err)
	}
	return strings.TrimSpace(answer), nil
}
