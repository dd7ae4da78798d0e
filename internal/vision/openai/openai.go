// Package openai extracts ingredients with the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/vbonduro/mealmate/internal/domain"
	"github.com/vbonduro/mealmate/internal/vision"
)

const serviceName = "OpenAI"

const defaultModel = "gpt-4o"

type OpenAIExtractor struct {
	client oai.Client
	apiKey string
	model  string
}

// NewOpenAIExtractor builds an extractor. baseURL may be empty to use the
// public API endpoint. The SDK's own retries are disabled; a failed call is
// reported to the caller as-is.
func NewOpenAIExtractor(apiKey, model, baseURL string) *OpenAIExtractor {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAIExtractor{
		client: oai.NewClient(opts...),
		apiKey: apiKey,
		model:  model,
	}
}

// ExtractIngredients always sends the image as a JPEG data URI; the API
// sniffs the actual format, so mimeType is not used.
func (e *OpenAIExtractor) ExtractIngredients(ctx context.Context, imageBase64, _ string) (*domain.ExtractionResult, error) {
	if e.apiKey == "" {
		return nil, &domain.ConfigurationError{Key: "OPENAI_API_KEY"}
	}

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(e.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(vision.SystemPrompt),
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.TextContentPart(vision.UserPrompt),
				oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
					URL: vision.DataURI(imageBase64),
				}),
			}),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	completion, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return nil, &domain.ExternalAPIError{
				Service:    serviceName,
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.RawJSON(),
				Err:        err,
			}
		}
		return nil, &domain.ExternalAPIError{Service: serviceName, Err: fmt.Errorf("failed to call openai: %w", err)}
	}

	if len(completion.Choices) == 0 {
		return nil, &domain.ParseError{Service: serviceName, Reason: "response has no choices"}
	}

	return vision.ParseExtraction(serviceName, completion.Choices[0].Message.Content)
}
