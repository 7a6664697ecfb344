package generativeAI

import "strings"

// CleanJSONResponse strips markdown fences and any prose around the outermost
// JSON object of a model reply. It returns the input trimmed when no object
// is found.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
		response = strings.TrimSpace(response)
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return response
	}
	return response[start : end+1]
}
