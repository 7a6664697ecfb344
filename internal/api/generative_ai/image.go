package generativeAI

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

// GeneratedImage is raw image bytes returned by the model.
type GeneratedImage struct {
	Data     []byte
	MIMEType string
}

// ImageGenerator turns a text prompt into a single image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error)
}

var _ ImageGenerator = (*GeminiImageGenerator)(nil)

type GeminiImageGenerator struct {
	gen   ContentGenerator
	model string
}

func NewGeminiImageGenerator(gen ContentGenerator, model string) *GeminiImageGenerator {
	return &GeminiImageGenerator{gen: gen, model: model}
}

func (g *GeminiImageGenerator) GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	resp, err := g.gen.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &GeneratedImage{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}, nil
			}
		}
	}
	return nil, types.ErrNoImage
}

// DestinationImagePrompt is the prompt used to illustrate a destination.
func DestinationImagePrompt(name, destinationType string) string {
	return fmt.Sprintf("Sebuah foto yang indah, berkualitas tinggi, dan realistis dari destinasi wisata: %s, Indonesia. Tipe: %s.", name, destinationType)
}
