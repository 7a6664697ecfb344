package places

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"googlemaps.github.io/maps"

	"github.com/FACorreiaa/go-tourease-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-tourease-suggestions/config"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const (
	DefaultPlaceholderImageURL = "https://placehold.co/600x400.png"
	DefaultLatitude            = -2.548926
	DefaultLongitude           = 118.014863

	outcomePhoto       = "photo"
	outcomeLocatedOnly = "located_only"
	outcomeNoMatch     = "no_match"
	outcomeError       = "error"
	outcomeSkipped     = "skipped"
)

// Resolver turns a free-text place name into a displayable image URL and
// coordinates.
type Resolver interface {
	// Resolve never fails; unresolvable parts fall back to the placeholder
	// image and the default coordinates.
	Resolve(ctx context.Context, query string) types.PlaceResult
}

var _ Resolver = (*ResolverImpl)(nil)

type ResolverImpl struct {
	api          PlacesAPI
	apiKey       string
	photoBaseURL string
	maxWidth     int
	placeholder  string
	defaultLat   float64
	defaultLng   float64
	retryPrefix  string
	timeout      time.Duration
	cache        *cache.Cache
	group        singleflight.Group
	logger       *slog.Logger
}

// NewResolver accepts a nil api, in which case every lookup degrades to the
// fallback result.
func NewResolver(api PlacesAPI, cfg config.PlacesConfig, logger *slog.Logger) *ResolverImpl {
	r := &ResolverImpl{
		api:          api,
		apiKey:       cfg.APIKey,
		photoBaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		maxWidth:     cfg.PhotoMaxWidth,
		placeholder:  cfg.PlaceholderImageURL,
		defaultLat:   cfg.DefaultLatitude,
		defaultLng:   cfg.DefaultLongitude,
		retryPrefix:  strings.TrimSpace(cfg.RetryPrefix),
		timeout:      cfg.Timeout,
		logger:       logger,
	}
	if r.photoBaseURL == "" {
		r.photoBaseURL = defaultMapsBaseURL
	}
	if r.maxWidth <= 0 {
		r.maxWidth = 800
	}
	if r.placeholder == "" {
		r.placeholder = DefaultPlaceholderImageURL
	}
	if r.defaultLat == 0 && r.defaultLng == 0 {
		r.defaultLat, r.defaultLng = DefaultLatitude, DefaultLongitude
	}
	if r.timeout <= 0 {
		r.timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	r.cache = cache.New(ttl, ttl*2)
	return r
}

func (r *ResolverImpl) fallback() types.PlaceResult {
	return types.PlaceResult{ImageURL: r.placeholder, Latitude: r.defaultLat, Longitude: r.defaultLng}
}

func (r *ResolverImpl) Resolve(ctx context.Context, query string) types.PlaceResult {
	ctx, span := otel.Tracer("PlaceResolver").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("place.query", query),
	))
	defer span.End()

	q := strings.TrimSpace(query)
	if q == "" || r.api == nil {
		r.record(ctx, outcomeSkipped)
		return r.fallback()
	}

	key := strings.ToLower(q)
	if cached, ok := r.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.(types.PlaceResult)
	}

	// The flight outlives any single caller; each attempt carries its own timeout.
	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		result, complete := r.lookup(context.WithoutCancel(ctx), q)
		if complete {
			r.cache.SetDefault(key, result)
		}
		return result, nil
	})
	result := v.(types.PlaceResult)
	span.SetAttributes(
		attribute.Bool("place.photo_found", result.PhotoFound),
		attribute.Bool("place.located", result.Located),
	)
	return result
}

// lookup runs the first attempt and, when it found no photo, a single retry
// with the domain qualifier. complete is false when an upstream error cut
// the lookup short, so the partial result is not cached.
func (r *ResolverImpl) lookup(ctx context.Context, q string) (types.PlaceResult, bool) {
	l := r.logger.With(slog.String("query", q))

	best, err := r.attempt(ctx, q)
	if err != nil {
		l.WarnContext(ctx, "Place lookup failed", slog.Any("error", err))
		r.record(ctx, outcomeError)
		return best, false
	}
	if best.PhotoFound || r.retryPrefix == "" || strings.HasPrefix(strings.ToLower(q), strings.ToLower(r.retryPrefix)+" ") {
		r.record(ctx, outcomeOf(best))
		return best, true
	}

	retried, err := r.attempt(ctx, r.retryPrefix+" "+q)
	if err != nil {
		l.WarnContext(ctx, "Place retry lookup failed", slog.Any("error", err))
		r.record(ctx, outcomeError)
		return merge(best, retried), false
	}
	best = merge(best, retried)
	r.record(ctx, outcomeOf(best))
	return best, true
}

// merge keeps the photo from whichever attempt found one and the coordinates
// of the first attempt that located the place.
func merge(first, second types.PlaceResult) types.PlaceResult {
	out := first
	if !first.PhotoFound && second.PhotoFound {
		out.ImageURL = second.ImageURL
		out.PhotoFound = true
	}
	if !first.Located && second.Located {
		out.Latitude, out.Longitude, out.Located = second.Latitude, second.Longitude, true
	}
	return out
}

func (r *ResolverImpl) attempt(ctx context.Context, q string) (types.PlaceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result := r.fallback()
	resp, err := r.api.FindPlaceFromText(ctx, &maps.FindPlaceFromTextRequest{
		Input:     q,
		InputType: maps.FindPlaceFromTextInputTypeTextQuery,
		Fields: []maps.PlaceSearchFieldMask{
			maps.PlaceSearchFieldMaskPlaceID,
			maps.PlaceSearchFieldMaskPhotos,
			maps.PlaceSearchFieldMaskGeometry,
		},
	})
	if err != nil {
		return result, fmt.Errorf("find place: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return result, nil
	}

	candidate := resp.Candidates[0]
	location := candidate.Geometry.Location
	photos := candidate.Photos

	if candidate.PlaceID != "" && (len(photos) == 0 || location == (maps.LatLng{})) {
		details, err := r.api.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
			PlaceID: candidate.PlaceID,
			Fields: []maps.PlaceDetailsFieldMask{
				maps.PlaceDetailsFieldMaskPhotos,
				maps.PlaceDetailsFieldMaskGeometry,
			},
		})
		if err != nil {
			setLocation(&result, location)
			return result, fmt.Errorf("place details: %w", err)
		}
		if location == (maps.LatLng{}) {
			location = details.Geometry.Location
		}
		if len(photos) == 0 {
			photos = details.Photos
		}
	}

	setLocation(&result, location)
	if len(photos) > 0 && photos[0].PhotoReference != "" {
		result.ImageURL = r.photoURL(photos[0].PhotoReference)
		result.PhotoFound = true
	}
	return result, nil
}

func setLocation(result *types.PlaceResult, location maps.LatLng) {
	if location == (maps.LatLng{}) {
		return
	}
	result.Latitude, result.Longitude, result.Located = location.Lat, location.Lng, true
}

// photoURL is handed to clients as is; the photo itself is never fetched here.
func (r *ResolverImpl) photoURL(reference string) string {
	v := url.Values{}
	v.Set("maxwidth", strconv.Itoa(r.maxWidth))
	v.Set("photoreference", reference)
	v.Set("key", r.apiKey)
	return r.photoBaseURL + "/maps/api/place/photo?" + v.Encode()
}

func outcomeOf(result types.PlaceResult) string {
	switch {
	case result.PhotoFound:
		return outcomePhoto
	case result.Located:
		return outcomeLocatedOnly
	default:
		return outcomeNoMatch
	}
}

func (r *ResolverImpl) record(ctx context.Context, outcome string) {
	metrics.Get().PlaceLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
