package generativeAI

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func responseWithParts(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around object", in: "Berikut hasilnya: {\"a\":{\"b\":2}} semoga membantu", want: `{"a":{"b":2}}`},
		{name: "no object", in: "  maaf  ", want: "maaf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONResponse(tt.in))
		})
	}
}

func TestGenerateText(t *testing.T) {
	ctx := context.Background()
	gen := new(MockContentGenerator)
	gen.On("GenerateContent", ctx, "gemini-test", mock.Anything, mock.Anything).
		Return(responseWithParts(&genai.Part{Text: "halo"}), nil).Once()

	got, err := GenerateText(ctx, gen, "gemini-test", "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "halo", got)
	gen.AssertExpectations(t)
}

func TestGeminiImageGenerator_GenerateImage(t *testing.T) {
	ctx := context.Background()

	t.Run("returns inline data", func(t *testing.T) {
		gen := new(MockContentGenerator)
		g := NewGeminiImageGenerator(gen, "image-model")
		gen.On("GenerateContent", ctx, "image-model", mock.Anything, mock.MatchedBy(func(c *genai.GenerateContentConfig) bool {
			return assert.ObjectsAreEqual([]string{"TEXT", "IMAGE"}, c.ResponseModalities)
		})).Return(responseWithParts(
			&genai.Part{Text: "ini gambarnya"},
			&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
		), nil).Once()

		img, err := g.GenerateImage(ctx, "Borobudur")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MIMEType)
		assert.Equal(t, []byte{1, 2, 3}, img.Data)
		gen.AssertExpectations(t)
	})

	t.Run("text only reply", func(t *testing.T) {
		gen := new(MockContentGenerator)
		g := NewGeminiImageGenerator(gen, "image-model")
		gen.On("GenerateContent", ctx, "image-model", mock.Anything, mock.Anything).
			Return(responseWithParts(&genai.Part{Text: "tidak bisa"}), nil).Once()

		_, err := g.GenerateImage(ctx, "Borobudur")
		assert.ErrorIs(t, err, types.ErrNoImage)
	})

	t.Run("transport error", func(t *testing.T) {
		gen := new(MockContentGenerator)
		g := NewGeminiImageGenerator(gen, "image-model")
		gen.On("GenerateContent", ctx, "image-model", mock.Anything, mock.Anything).
			Return(nil, errors.New("quota")).Once()

		_, err := g.GenerateImage(ctx, "Borobudur")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrNoImage)
	})
}

func TestUnavailableGenerator(t *testing.T) {
	cause := errors.New("GOOGLE_GEMINI_API_KEY is not set")
	_, err := GenerateText(context.Background(), UnavailableGenerator{Err: cause}, "m", "hi", nil)
	assert.ErrorIs(t, err, cause)
}
