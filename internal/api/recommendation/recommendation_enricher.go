package recommendation

import (
	"context"
	"errors"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/places"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/media"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

// Enricher attaches media and, when known, coordinates to one destination.
type Enricher interface {
	Enrich(ctx context.Context, destination types.Destination) (types.Enrichment, error)
}

var (
	_ Enricher = (*PlacesEnricher)(nil)
	_ Enricher = (*ImageEnricher)(nil)
)

// PlacesEnricher always yields an image, possibly the placeholder, and sets
// coordinates only when the place was actually located.
type PlacesEnricher struct {
	resolver places.Resolver
}

func NewPlacesEnricher(resolver places.Resolver) *PlacesEnricher {
	return &PlacesEnricher{resolver: resolver}
}

func (e *PlacesEnricher) Enrich(ctx context.Context, destination types.Destination) (types.Enrichment, error) {
	result := e.resolver.Resolve(ctx, destination.Name)
	enrichment := types.Enrichment{ImageURL: result.ImageURL}
	if result.Located {
		lat, lng := result.Latitude, result.Longitude
		enrichment.Latitude, enrichment.Longitude = &lat, &lng
	}
	return enrichment, nil
}

// ImageEnricher asks the image model for a picture of the destination.
type ImageEnricher struct {
	images media.ImageService
}

func NewImageEnricher(images media.ImageService) *ImageEnricher {
	return &ImageEnricher{images: images}
}

func (e *ImageEnricher) Enrich(ctx context.Context, destination types.Destination) (types.Enrichment, error) {
	url, err := e.images.DestinationImage(ctx, destination.Name, destination.DestinationType)
	if err != nil {
		return types.Enrichment{}, err
	}
	if url == "" {
		return types.Enrichment{}, errors.New("image service returned an empty url")
	}
	return types.Enrichment{ImageURL: url}, nil
}
