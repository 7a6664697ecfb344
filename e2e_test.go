package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/genai"
	"googlemaps.github.io/maps"

	"github.com/FACorreiaa/go-tourease-suggestions/config"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/auth"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/container"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/docstore"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/media"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const recommendationJSON = `{"destinations":[
	{"name":"Pantai Kuta","description":"Pantai pasir putih","estimatedCost":"Rp 150.000","destinationType":"Pantai"},
	{"name":"Ubud","description":"Sawah terasering","estimatedCost":"Rp 300.000","destinationType":"Budaya"},
	{"name":"  ","description":"tanpa nama"}
]}`

// fakeGemini answers by request shape: JSON schema requests get destinations,
// image modality requests get a PNG and everything else gets prose.
type fakeGemini struct {
	mu        sync.Mutex
	failNext  bool
	imagePNG  []byte
	callCount int
}

func (f *fakeGemini) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount++
	if f.failNext {
		f.failNext = false
		return nil, fmt.Errorf("upstream 503")
	}

	var part *genai.Part
	switch {
	case cfg != nil && cfg.ResponseSchema != nil:
		part = &genai.Part{Text: recommendationJSON}
	case cfg != nil && len(cfg.ResponseModalities) > 0:
		part = &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: f.imagePNG}}
	default:
		part = &genai.Part{Text: "Musim kemarau, April sampai Oktober."}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: "model", Parts: []*genai.Part{part}},
	}}}, nil
}

// fakePlaces knows Kuta only.
type fakePlaces struct{}

func (fakePlaces) FindPlaceFromText(_ context.Context, r *maps.FindPlaceFromTextRequest) (maps.FindPlaceFromTextResponse, error) {
	if !strings.Contains(strings.ToLower(r.Input), "kuta") {
		return maps.FindPlaceFromTextResponse{}, nil
	}
	return maps.FindPlaceFromTextResponse{Candidates: []maps.PlacesSearchResult{{
		PlaceID:  "kuta-1",
		Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: -8.7185, Lng: 115.1686}},
		Photos:   []maps.Photo{{PhotoReference: "kuta-photo"}},
	}}}, nil
}

func (fakePlaces) PlaceDetails(context.Context, *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error) {
	return maps.PlaceDetailsResult{}, nil
}

func tinyPNG(t testing.TB) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Repositories.Backend = config.BackendMemory
	cfg.Repositories.Minio.Bucket = "tourease-media"
	cfg.Auth.Provider = config.AuthProviderJWT
	cfg.Auth.JWT = config.JWTConfig{SecretKey: "e2e-secret", Issuer: "tourease", Audience: "tourease-web"}
	cfg.Auth.AdminEmails = []string{"admin@tourease.com"}
	cfg.GenAI = config.GenAIConfig{Model: "gemini-test", ImageModel: "gemini-image-test", Temperature: 0.5, Timeout: 5 * time.Second}
	cfg.Places = config.PlacesConfig{APIKey: "test-key", PlaceholderImageURL: "https://placehold.co/600x400.png", RetryPrefix: "wisata", Timeout: time.Second}
	cfg.Recommendation = config.RecommendationConfig{
		Strategy:          config.StrategyPipelineDriven,
		Enricher:          config.EnricherPlaces,
		EnrichmentTimeout: 2 * time.Second,
		MaxConcurrency:    4,
		SavedImagePatch:   config.EnricherImage,
		BackgroundTimeout: 5 * time.Second,
	}
	cfg.Server.Timeout = 10 * time.Second
	return cfg
}

// E2ETestSuite drives the fully wired router over HTTP.
type E2ETestSuite struct {
	suite.Suite
	server     *httptest.Server
	client     *http.Client
	container  *container.Container
	store      docstore.Store
	gemini     *fakeGemini
	userToken  string
	adminToken string
}

func (suite *E2ETestSuite) SetupTest() {
	t := suite.T()
	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	verifier, err := auth.NewJWTVerifier(cfg.Auth.JWT)
	require.NoError(t, err)

	suite.store = docstore.NewMemoryStore()
	suite.gemini = &fakeGemini{imagePNG: tinyPNG(t)}
	suite.container = container.Build(cfg, container.Dependencies{
		Store:     suite.store,
		Verifier:  verifier,
		Generator: suite.gemini,
		PlacesAPI: fakePlaces{},
		Storage:   media.DataURLStorage{},
	}, logger)

	suite.server = httptest.NewServer(suite.container.Router)
	suite.client = &http.Client{Timeout: 30 * time.Second}

	suite.userToken, err = verifier.Issue(types.Identity{UID: "user-1", Email: "ayu@example.com", DisplayName: "Ayu"}, time.Hour)
	require.NoError(t, err)
	suite.adminToken, err = verifier.Issue(types.Identity{UID: "admin-1", Email: "admin@tourease.com"}, time.Hour)
	require.NoError(t, err)
}

func (suite *E2ETestSuite) TearDownTest() {
	suite.server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	suite.NoError(suite.container.Close(ctx))
}

// drain waits for background writes started by earlier requests.
func (suite *E2ETestSuite) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	suite.Require().NoError(suite.container.Runner.Shutdown(ctx))
}

func (suite *E2ETestSuite) makeRequest(method, path string, body any, token string) *http.Response {
	t := suite.T()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, suite.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := suite.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (suite *E2ETestSuite) TestPing() {
	resp := suite.makeRequest(http.MethodGet, "/ping", nil, "")
	defer resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *E2ETestSuite) TestRecommendationWorkflow() {
	t := suite.T()
	input := types.PreferenceRequest{Budget: "Dibawah Rp 1.000.000", Interests: "pantai", NumberOfPeople: "2 orang", Location: "Denpasar"}

	resp := suite.makeRequest(http.MethodPost, "/api/v1/recommendations", types.RecommendationRequest{
		PreferenceRequest: input,
		SaveHistory:       true,
	}, suite.userToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[types.RecommendationResponse](t, resp)

	require.Len(t, result.Destinations, 2)
	kuta := result.Destinations[0]
	assert.Equal(t, "Pantai Kuta", kuta.Name)
	assert.Contains(t, kuta.ImageURL, "photoreference=kuta-photo")
	require.NotNil(t, kuta.Latitude)
	assert.InDelta(t, -8.7185, *kuta.Latitude, 1e-9)

	ubud := result.Destinations[1]
	assert.Equal(t, "Ubud", ubud.Name)
	assert.Equal(t, "https://placehold.co/600x400.png", ubud.ImageURL)
	assert.Nil(t, ubud.Latitude)

	suite.drain()

	resp = suite.makeRequest(http.MethodGet, "/api/v1/history", nil, suite.userToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[struct {
		History []types.SearchHistoryEntry `json:"history"`
	}](t, resp)
	require.Len(t, history.History, 1)
	assert.Equal(t, input, history.History[0].Input)
	require.Len(t, history.History[0].Destinations, 2)
	for _, d := range history.History[0].Destinations {
		assert.Empty(t, d.ImageURL)
	}
	assert.NotNil(t, history.History[0].Destinations[0].Latitude)
}

func (suite *E2ETestSuite) TestOracleUnavailable() {
	suite.gemini.failNext = true
	resp := suite.makeRequest(http.MethodPost, "/api/v1/recommendations", types.RecommendationRequest{
		PreferenceRequest: types.PreferenceRequest{Budget: "a", Interests: "b", NumberOfPeople: "c", Location: "d"},
	}, suite.userToken)
	defer resp.Body.Close()

	suite.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	suite.Contains(string(body), "Recommendation service is unavailable, please retry")
	suite.NotContains(string(body), "upstream 503")
}

func (suite *E2ETestSuite) TestSaveDestinationWorkflow() {
	t := suite.T()

	resp := suite.makeRequest(http.MethodPost, "/api/v1/saved", types.Destination{
		Name:            "Bali Beach",
		Description:     "versi pertama",
		DestinationType: "Pantai",
	}, suite.userToken)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	resp = suite.makeRequest(http.MethodPost, "/api/v1/saved", types.Destination{
		Name:            "Bali Beach",
		Description:     "versi kedua",
		DestinationType: "Pantai",
		ImageURL:        "https://img.example.com/bali.jpg",
	}, suite.userToken)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	suite.drain()

	resp = suite.makeRequest(http.MethodGet, "/api/v1/saved", nil, suite.userToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[struct {
		Saved []types.SavedDestination `json:"saved"`
	}](t, resp)
	require.Len(t, saved.Saved, 1)
	assert.Equal(t, "versi kedua", saved.Saved[0].Description)
	assert.NotEmpty(t, saved.Saved[0].ImageURL)

	resp = suite.makeRequest(http.MethodGet, "/api/v1/notifications", nil, suite.userToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decode[struct {
		Notifications []types.Notification `json:"notifications"`
	}](t, resp)
	require.NotEmpty(t, feed.Notifications)
	assert.Equal(t, types.NotificationImagePatched, feed.Notifications[0].Kind)
}

func (suite *E2ETestSuite) TestAssistantAndPlaces() {
	t := suite.T()

	resp := suite.makeRequest(http.MethodPost, "/api/v1/assistant/ask", types.AskRequest{
		Destination: "Bali",
		Question:    "Kapan waktu terbaik berkunjung?",
	}, suite.userToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	answer := decode[types.AskResponse](t, resp)
	assert.NotEmpty(t, answer.Answer)

	suite.gemini.failNext = true
	resp = suite.makeRequest(http.MethodPost, "/api/v1/assistant/ask", types.AskRequest{
		Destination: "Bali",
		Question:    "?",
	}, suite.userToken)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()

	resp = suite.makeRequest(http.MethodPost, "/api/v1/places/resolve", types.ResolvePlaceRequest{Query: "Pantai Kuta"}, suite.userToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	place := decode[types.PlaceResult](t, resp)
	assert.InDelta(t, 115.1686, place.Longitude, 1e-9)
}

func (suite *E2ETestSuite) TestProfileAndAdmin() {
	t := suite.T()

	resp := suite.makeRequest(http.MethodGet, "/api/v1/me", nil, suite.userToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[types.UserProfile](t, resp)
	assert.Equal(t, "user-1", profile.UID)
	assert.Equal(t, "password", profile.ProviderID)

	resp = suite.makeRequest(http.MethodGet, "/api/v1/admin/users", nil, suite.userToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = suite.makeRequest(http.MethodGet, "/api/v1/admin/stats/signups", nil, suite.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[struct {
		Signups []types.DailySignups `json:"signups"`
	}](t, resp)
	require.Len(t, stats.Signups, 1)
	assert.Equal(t, 2, stats.Signups[0].Count)

	resp = suite.makeRequest(http.MethodGet, "/api/v1/admin/histories?limit=1", nil, suite.adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (suite *E2ETestSuite) TestAuthErrors() {
	resp := suite.makeRequest(http.MethodGet, "/api/v1/history", nil, "")
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = suite.makeRequest(http.MethodGet, "/api/v1/history", nil, "not-a-token")
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = suite.makeRequest(http.MethodPost, "/api/v1/recommendations", map[string]string{"budget": "x"}, suite.userToken)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(E2ETestSuite))
}
