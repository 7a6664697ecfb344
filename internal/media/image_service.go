package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/go-tourease-suggestions/internal/api/generative_ai"
)

// ImageService produces a hosted image URL for a destination.
type ImageService interface {
	DestinationImage(ctx context.Context, name, destinationType string) (string, error)
}

var _ ImageService = (*GeneratedImageService)(nil)

type ImageServiceConfig struct {
	Bucket        string
	PublicBaseURL string
	MaxDimension  int
}

// GeneratedImageService asks the image model for a picture, resizes it and
// stores it.
type GeneratedImageService struct {
	generator  generativeAI.ImageGenerator
	processor  Processor
	storage    ObjectStorage
	bucket     string
	publicBase string
	maxDim     int
	logger     *slog.Logger
}

func NewGeneratedImageService(generator generativeAI.ImageGenerator, processor Processor, storage ObjectStorage, cfg ImageServiceConfig, logger *slog.Logger) *GeneratedImageService {
	maxDim := cfg.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &GeneratedImageService{
		generator:  generator,
		processor:  processor,
		storage:    storage,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxDim:     maxDim,
		logger:     logger,
	}
}

func (s *GeneratedImageService) DestinationImage(ctx context.Context, name, destinationType string) (string, error) {
	ctx, span := otel.Tracer("Media").Start(ctx, "DestinationImage", trace.WithAttributes(
		attribute.String("destination.name", name),
	))
	defer span.End()

	img, err := s.generator.GenerateImage(ctx, generativeAI.DestinationImagePrompt(name, destinationType))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Image generation failed")
		return "", err
	}

	result, err := s.processor.Process(ctx, Upload{
		Reader:      bytes.NewReader(img.Data),
		Size:        int64(len(img.Data)),
		ContentType: img.MIMEType,
	}, s.maxDim)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Image processing failed")
		return "", err
	}

	objectName := fmt.Sprintf("destinations/%s/%s%s", slug.Make(name), uuid.NewString(), extensionFor(result.ContentType))
	url, err := s.storage.Upload(ctx, s.bucket, objectName, result.ContentType, bytes.NewReader(result.Bytes), int64(len(result.Bytes)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Image upload failed")
		return "", err
	}
	if s.publicBase != "" && !strings.HasPrefix(url, "data:") {
		url = s.publicBase + "/" + objectName
	}

	s.logger.DebugContext(ctx, "Destination image stored",
		slog.String("destination", name),
		slog.Bool("resized", result.Resized),
		slog.Int("bytes", len(result.Bytes)))
	span.SetStatus(codes.Ok, "Image stored")
	return url, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
