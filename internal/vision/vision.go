package vision

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/vbonduro/mealmate/internal/domain"
)

// SystemPrompt is the shared instruction used by all vision adapters.
const SystemPrompt = `You are an assistant that extracts raw ingredients from a food photo and returns them as a JSON object.
The object must have a key "ingredients" whose value is a JSON array of strings, for example:
{"ingredients": ["onion", "garlic", "chicken", "carrot", "potato"]}
If you cannot find any ingredients, return an empty array for "ingredients" together with a short "description" of what the image shows, for example:
{"ingredients": [], "description": "A picture of a cat"}
The whole response must be a single valid JSON object. Do not use punctuation inside ingredient names. Do not list an ingredient twice.`

// UserPrompt accompanies the image in the user turn.
const UserPrompt = "List all ingredients visible in this image."

// Extractor lists the ingredients in a base64-encoded photo. mimeType is the
// detected type of the photo; adapters that must label the image use it.
type Extractor interface {
	ExtractIngredients(ctx context.Context, imageBase64, mimeType string) (*domain.ExtractionResult, error)
}

// DataURI wraps base64 JPEG data the way chat-completion APIs expect inline images.
func DataURI(imageBase64 string) string {
	return "data:image/jpeg;base64," + imageBase64
}

// Schema returns the JSON schema of domain.ExtractionResult as a generic map,
// suitable for embedding in request bodies.
func Schema() (map[string]any, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schemaJSON, err := json.Marshal(r.Reflect(&domain.ExtractionResult{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction schema: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(schemaJSON, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extraction schema: %w", err)
	}
	return m, nil
}
