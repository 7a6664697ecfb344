package places

import (
	"context"
	"net/http"

	"googlemaps.github.io/maps"

	"github.com/FACorreiaa/go-tourease-suggestions/config"
)

const defaultMapsBaseURL = "https://maps.googleapis.com"

// PlacesAPI is the subset of the Google Maps client used by the resolver.
type PlacesAPI interface {
	FindPlaceFromText(ctx context.Context, r *maps.FindPlaceFromTextRequest) (maps.FindPlaceFromTextResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
}

var _ PlacesAPI = (*maps.Client)(nil)

// NewMapsClient builds a Places client, or returns a nil PlacesAPI when no API
// key is configured so the resolver falls back to placeholders.
func NewMapsClient(cfg config.PlacesConfig, httpClient *http.Client) (PlacesAPI, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, maps.WithHTTPClient(httpClient))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
