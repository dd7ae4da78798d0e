package vision

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vbonduro/mealmate/internal/domain"
)

var jsonNull = []byte("null")

// ParseExtraction decodes the model's message content into an
// ExtractionResult. The content must be a JSON object whose "ingredients" is
// an array of strings and whose "description", if present, is a string.
// service names the backend in returned errors.
func ParseExtraction(service, content string) (*domain.ExtractionResult, error) {
	content = stripCodeFence(content)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, &domain.ParseError{Service: service, Reason: "content is not a JSON object", Raw: content, Err: err}
	}
	if fields == nil {
		return nil, &domain.ParseError{Service: service, Reason: "content is not a JSON object", Raw: content}
	}

	rawIngredients, ok := fields["ingredients"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawIngredients), jsonNull) {
		return nil, &domain.ParseError{Service: service, Reason: "missing ingredients array", Raw: content}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawIngredients, &items); err != nil {
		return nil, &domain.ParseError{Service: service, Reason: "ingredients is not an array", Raw: content, Err: err}
	}

	result := &domain.ExtractionResult{Ingredients: make([]string, 0, len(items))}
	for _, item := range items {
		var s string
		if bytes.Equal(bytes.TrimSpace(item), jsonNull) {
			return nil, &domain.ParseError{Service: service, Reason: "ingredients must only contain strings", Raw: content}
		}
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, &domain.ParseError{Service: service, Reason: "ingredients must only contain strings", Raw: content, Err: err}
		}
		result.Ingredients = append(result.Ingredients, s)
	}

	if rawDescription, ok := fields["description"]; ok {
		if bytes.Equal(bytes.TrimSpace(rawDescription), jsonNull) {
			return nil, &domain.ParseError{Service: service, Reason: "description must be a string", Raw: content}
		}
		if err := json.Unmarshal(rawDescription, &result.Description); err != nil {
			return nil, &domain.ParseError{Service: service, Reason: "description must be a string", Raw: content, Err: err}
		}
	}

	return result, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some models
// add even when asked for bare JSON.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
