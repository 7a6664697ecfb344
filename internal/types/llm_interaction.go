package types

import "time"

// PreferenceRequest is the immutable input of a recommendation search.
type PreferenceRequest struct {
	Budget         string `json:"budget"`
	Interests      string `json:"interests"`
	NumberOfPeople string `json:"numberOfPeople"`
	Location       string `json:"location"`
}

// Destination is a single recommended place. EstimatedCost is free text as
// produced by the model. ImageURL and the coordinates are optional.
type Destination struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	EstimatedCost   string   `json:"estimatedCost"`
	DestinationType string   `json:"destinationType"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
}

// SearchHistoryEntry is a persisted recommendation search.
type SearchHistoryEntry struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId,omitempty"`
	Input        PreferenceRequest `json:"input"`
	Destinations []Destination     `json:"destinations"`
	SearchedAt   time.Time         `json:"searchedAt"`
}

// SavedDestination is a destination the user explicitly saved.
type SavedDestination struct {
	Destination
	SavedAt time.Time `json:"savedAt"`
}

// RecommendationRequest is the body of POST /recommendations.
type RecommendationRequest struct {
	PreferenceRequest
	SaveHistory bool `json:"saveHistory"`
}

// RecommendationResponse wraps the enriched destinations.
type RecommendationResponse struct {
	Destinations []Destination `json:"destinations"`
}

// AskRequest is the body of POST /assistant/ask.
type AskRequest struct {
	Destination string `json:"destination"`
	Question    string `json:"question"`
}

// AskResponse carries the assistant answer.
type AskResponse struct {
	Answer string `json:"answer"`
}

// HistoryListOptions bounds the cross-user scan. Zero means unbounded.
type HistoryListOptions struct {
	PerUserLimit int
}
