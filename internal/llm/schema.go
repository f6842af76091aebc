package llm

// BuildValidationJSONSchema returns the JSON-Schema (draft 2020-12 subset)
// a per-document validation verdict must match before any field access.
func BuildValidationJSONSchema() map[string]any {
	// additionalProperties stays open: models often volunteer extra keys and
	// the contract is "at minimum is_valid and reason".
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_valid": map[string]any{"type": "boolean"},
			"reason":   map[string]any{"type": "string"},
		},
		"required": []string{"is_valid", "reason"},
	}
}

// BuildEstimateJSONSchema returns the schema for the per-application credit
// estimate. Fields are integers when present; absent fields default to the
// no-data sentinel rather than failing the application.
func BuildEstimateJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"proposed_score": map[string]any{"type": "integer"},
			"proposed_limit": map[string]any{"type": "integer", "minimum": 0},
		},
	}
}
