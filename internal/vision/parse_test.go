package vision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/mealmate/internal/domain"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected *domain.ExtractionResult
	}{
		{
			name:     "ingredients only",
			content:  `{"ingredients": ["egg", "milk"]}`,
			expected: &domain.ExtractionResult{Ingredients: []string{"egg", "milk"}},
		},
		{
			name:     "empty ingredients with description",
			content:  `{"ingredients": [], "description": "A picture of a cat"}`,
			expected: &domain.ExtractionResult{Ingredients: []string{}, Description: "A picture of a cat"},
		},
		{
			name:     "code fenced json",
			content:  "```json\n{\"ingredients\": [\"onion\"]}\n```",
			expected: &domain.ExtractionResult{Ingredients: []string{"onion"}},
		},
		{
			name:     "unknown keys ignored",
			content:  `{"ingredients": ["rice"], "confidence": 0.9}`,
			expected: &domain.ExtractionResult{Ingredients: []string{"rice"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseExtraction("test", tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseExtractionRejectsMalformedContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "Here are the ingredients: egg, milk"},
		{name: "json array", content: `["egg"]`},
		{name: "json null", content: `null`},
		{name: "missing ingredients", content: `{"description": "food"}`},
		{name: "null ingredients", content: `{"ingredients": null}`},
		{name: "ingredients not array", content: `{"ingredients": "egg, milk"}`},
		{name: "non-string ingredient", content: `{"ingredients": ["egg", 2]}`},
		{name: "null ingredient", content: `{"ingredients": ["egg", null]}`},
		{name: "non-string description", content: `{"ingredients": [], "description": 5}`},
		{name: "null description", content: `{"ingredients": [], "description": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtraction("test", tt.content)
			require.Error(t, err)
			var parseErr *domain.ParseError
			assert.True(t, errors.As(err, &parseErr), "expected ParseError, got %T", err)
		})
	}
}

func TestSchemaRequiresIngredients(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "ingredients")
	assert.Contains(t, props, "description")
	assert.Contains(t, schema["required"], "ingredients")
}
