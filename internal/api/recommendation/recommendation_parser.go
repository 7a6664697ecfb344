package recommendation

import (
	"encoding/json"
	"fmt"
	"strings"

	generativeAI "github.com/FACorreiaa/go-tourease-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

// parseRecommendations validates model output. Entries without a name are
// dropped; a missing destinations list is an empty result.
func parseRecommendations(text string) ([]types.Destination, error) {
	cleaned := generativeAI.CleanJSONResponse(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty output", types.ErrMalformedResponse)
	}

	var payload struct {
		Destinations []types.Destination `json:"destinations"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedResponse, err)
	}

	out := make([]types.Destination, 0, len(payload.Destinations))
	for _, d := range payload.Destinations {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
