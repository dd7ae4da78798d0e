package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/mealmate/internal/domain"
	"github.com/vbonduro/mealmate/internal/vision"
)

const serviceName = "Ollama"

type OllamaExtractor struct {
	host   string
	model  string
	schema map[string]any
	client *http.Client
}

func NewOllamaExtractor(host, model string) (*OllamaExtractor, error) {
	schema, err := vision.Schema()
	if err != nil {
		return nil, err
	}
	return &OllamaExtractor{
		host:   host,
		model:  model,
		schema: schema,
		client: &http.Client{},
	}, nil
}

// ExtractIngredients sends the raw base64 image; Ollama detects the format
// itself, so mimeType is unused.
func (e *OllamaExtractor) ExtractIngredients(ctx context.Context, imageBase64, _ string) (*domain.ExtractionResult, error) {
	// Ollama constrains the output to the schema given in "format".
	reqBody := map[string]interface{}{
		"model":  e.model,
		"system": vision.SystemPrompt,
		"prompt": vision.UserPrompt,
		"images": []string{imageBase64},
		"format": e.schema,
		"stream": false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &domain.ExternalAPIError{Service: serviceName, Err: fmt.Errorf("failed to call ollama: %w", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &domain.ExternalAPIError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, &domain.ParseError{Service: serviceName, Reason: "failed to decode response", Err: err}
	}

	return vision.ParseExtraction(serviceName, respBody.Response)
}
