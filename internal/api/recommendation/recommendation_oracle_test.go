package recommendation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-tourease-suggestions/config"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/places"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
	}}}
}

func callResponse(calls ...*genai.FunctionCall) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, &genai.Part{FunctionCall: c})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: "model", Parts: parts},
	}}}
}

var testPrefs = types.PreferenceRequest{
	Budget:         "Dibawah Rp 1.000.000",
	Interests:      "pantai",
	NumberOfPeople: "2 orang",
	Location:       "Denpasar",
}

func setupOracleTest(strategy string, resolver *MockResolver) (*GeminiOracle, *MockContentGenerator) {
	gen := new(MockContentGenerator)
	var r places.Resolver
	if resolver != nil {
		r = resolver
	}
	oracle := NewGeminiOracle(gen,
		config.GenAIConfig{Model: "gemini-test", Temperature: 0.5},
		config.RecommendationConfig{Strategy: strategy, MaxToolRounds: 3},
		r,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return oracle, gen
}

func TestParseRecommendations(t *testing.T) {
	t.Run("fenced json with blank names", func(t *testing.T) {
		got, err := parseRecommendations("```json\n{\"destinations\":[{\"name\":\" Kuta Beach \",\"estimatedCost\":\"Rp 200.000\"},{\"name\":\"  \"}]}\n```")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Kuta Beach", got[0].Name)
		assert.Equal(t, "Rp 200.000", got[0].EstimatedCost)
	})

	t.Run("missing list is empty", func(t *testing.T) {
		got, err := parseRecommendations(`{}`)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseRecommendations("maaf, saya tidak bisa")
		assert.ErrorIs(t, err, types.ErrMalformedResponse)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := parseRecommendations("   ")
		assert.ErrorIs(t, err, types.ErrMalformedResponse)
	})

	t.Run("wrong types", func(t *testing.T) {
		_, err := parseRecommendations(`{"destinations":[{"name":"Bali","latitude":"far"}]}`)
		assert.ErrorIs(t, err, types.ErrMalformedResponse)
	})
}

func TestGeminiOracle_Recommend_PipelineDriven(t *testing.T) {
	ctx := context.Background()

	t.Run("structured output with images cleared", func(t *testing.T) {
		oracle, gen := setupOracleTest(config.StrategyPipelineDriven, nil)
		gen.On("GenerateContent", mock.Anything, "gemini-test", mock.Anything, mock.MatchedBy(func(c *genai.GenerateContentConfig) bool {
			return c.ResponseMIMEType == "application/json" && c.ResponseSchema != nil && len(c.Tools) == 0
		})).Return(textResponse(`{"destinations":[{"name":"Kuta Beach","description":"Pantai","estimatedCost":"Rp 200.000","destinationType":"Pantai","imageUrl":"https://made.up/img.png"}]}`), nil).Once()

		got, err := oracle.Recommend(ctx, testPrefs)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Kuta Beach", got[0].Name)
		assert.Empty(t, got[0].ImageURL)
		gen.AssertExpectations(t)
	})

	t.Run("malformed output becomes empty list", func(t *testing.T) {
		oracle, gen := setupOracleTest(config.StrategyPipelineDriven, nil)
		gen.On("GenerateContent", mock.Anything, "gemini-test", mock.Anything, mock.Anything).
			Return(textResponse("not json at all"), nil).Once()

		got, err := oracle.Recommend(ctx, testPrefs)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("transport error is unavailable", func(t *testing.T) {
		oracle, gen := setupOracleTest(config.StrategyPipelineDriven, nil)
		upstream := errors.New("503 from upstream")
		gen.On("GenerateContent", mock.Anything, "gemini-test", mock.Anything, mock.Anything).
			Return(nil, upstream).Once()

		_, err := oracle.Recommend(ctx, testPrefs)
		assert.ErrorIs(t, err, types.ErrOracleUnavailable)
		assert.ErrorIs(t, err, upstream)
	})
}

func TestGeminiOracle_Recommend_ModelDriven(t *testing.T) {
	ctx := context.Background()

	t.Run("executes tool calls then parses the answer", func(t *testing.T) {
		resolver := new(MockResolver)
		oracle, gen := setupOracleTest(config.StrategyModelDriven, resolver)

		resolver.On("Resolve", mock.Anything, "Kuta Beach").
			Return(types.PlaceResult{ImageURL: "https://photo/kuta", Latitude: -8.7185, Longitude: 115.1686, PhotoFound: true, Located: true}).Once()

		gen.On("GenerateContent", mock.Anything, "gemini-test", mock.MatchedBy(func(c []*genai.Content) bool {
			return len(c) == 1
		}), mock.MatchedBy(func(c *genai.GenerateContentConfig) bool {
			return len(c.Tools) == 1 && c.ResponseSchema == nil
		})).Return(callResponse(&genai.FunctionCall{ID: "call-1", Name: resolvePlaceTool, Args: map[string]any{"query": "Kuta Beach"}}), nil).Once()

		gen.On("GenerateContent", mock.Anything, "gemini-test", mock.MatchedBy(func(c []*genai.Content) bool {
			if len(c) != 3 {
				return false
			}
			fr := c[2].Parts[0].FunctionResponse
			return c[2].Role == "user" && fr != nil && fr.ID == "call-1" && fr.Response["imageUrl"] == "https://photo/kuta"
		}), mock.Anything).Return(textResponse(`{"destinations":[{"name":"Kuta Beach","imageUrl":"https://photo/kuta","latitude":-8.7185,"longitude":115.1686}]}`), nil).Once()

		got, err := oracle.Recommend(ctx, testPrefs)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "https://photo/kuta", got[0].ImageURL)
		require.NotNil(t, got[0].Latitude)
		assert.Equal(t, -8.7185, *got[0].Latitude)
		gen.AssertExpectations(t)
		resolver.AssertExpectations(t)
	})

	t.Run("unknown tool gets an error response", func(t *testing.T) {
		resolver := new(MockResolver)
		oracle, _ := setupOracleTest(config.StrategyModelDriven, resolver)

		part := oracle.executeTool(ctx, &genai.FunctionCall{ID: "x", Name: "bookHotel"})
		require.NotNil(t, part.FunctionResponse)
		assert.Contains(t, part.FunctionResponse.Response, "error")
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("endless tool calls end as empty list", func(t *testing.T) {
		resolver := new(MockResolver)
		oracle, gen := setupOracleTest(config.StrategyModelDriven, resolver)
		resolver.On("Resolve", mock.Anything, "Bali").Return(types.PlaceResult{ImageURL: "p"})
		gen.On("GenerateContent", mock.Anything, "gemini-test", mock.Anything, mock.Anything).
			Return(callResponse(&genai.FunctionCall{Name: resolvePlaceTool, Args: map[string]any{"query": "Bali"}}), nil).Times(3)

		got, err := oracle.Recommend(ctx, testPrefs)
		require.NoError(t, err)
		assert.Empty(t, got)
		gen.AssertExpectations(t)
	})
}

// stalledGenerator never answers on its own; it only returns once ctx ends.
type stalledGenerator struct{}

func (stalledGenerator) GenerateContent(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGeminiOracle_Recommend_Timeout(t *testing.T) {
	for _, strategy := range []string{config.StrategyPipelineDriven, config.StrategyModelDriven} {
		t.Run(strategy, func(t *testing.T) {
			oracle := NewGeminiOracle(stalledGenerator{},
				config.GenAIConfig{Model: "gemini-test", Timeout: 50 * time.Millisecond},
				config.RecommendationConfig{Strategy: strategy},
				new(MockResolver),
				slog.New(slog.NewTextHandler(io.Discard, nil)))

			start := time.Now()
			_, err := oracle.Recommend(context.Background(), testPrefs)
			assert.Less(t, time.Since(start), time.Second)
			assert.ErrorIs(t, err, types.ErrOracleUnavailable)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		})
	}
}
