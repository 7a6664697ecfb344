package types

// PlaceResult is what the place resolver hands back. ImageURL is always
// displayable; PhotoFound and Located report which parts came from the
// provider rather than from the fallbacks.
type PlaceResult struct {
	ImageURL   string  `json:"imageUrl"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	PhotoFound bool    `json:"-"`
	Located    bool    `json:"-"`
}

// ResolvePlaceRequest is the body of POST /places/resolve.
type ResolvePlaceRequest struct {
	Query string `json:"query"`
}

// Enrichment is the media and location data attached to one destination.
type Enrichment struct {
	ImageURL  string
	Latitude  *float64
	Longitude *float64
}
