package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/mealmate/internal/domain"
	"github.com/vbonduro/mealmate/internal/vision"
)

const serviceName = "Claude"

const defaultMediaType = "image/jpeg"

type ClaudeExtractor struct {
	client *anthropic.Client
	apiKey string
	model  string
}

// NewClaudeExtractor builds an extractor. baseURL may be empty to use the
// public Anthropic endpoint.
func NewClaudeExtractor(apiKey, model, baseURL string) *ClaudeExtractor {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeExtractor{
		client: anthropic.NewClient(apiKey, opts...),
		apiKey: apiKey,
		model:  model,
	}
}

// ExtractIngredients labels the image with mimeType, which must match the
// image bytes for the Messages API to accept it.
func (e *ClaudeExtractor) ExtractIngredients(ctx context.Context, imageBase64, mimeType string) (*domain.ExtractionResult, error) {
	if e.apiKey == "" {
		return nil, &domain.ConfigurationError{Key: "CLAUDE_API_KEY"}
	}
	if mimeType == "" {
		mimeType = defaultMediaType
	}

	req := anthropic.MessagesRequest{
		Model:  anthropic.Model(e.model),
		System: vision.SystemPrompt,
		// An ingredient list for a single photo stays far below this.
		MaxTokens: 1024,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.MessageContentSource{
					Type:      anthropic.MessagesContentSourceTypeBase64,
					MediaType: mimeType,
					Data:      imageBase64,
				}),
				anthropic.NewTextMessageContent(vision.UserPrompt),
			},
		}},
	}

	resp, err := e.client.CreateMessages(ctx, req)
	if err != nil {
		var reqErr *anthropic.RequestError
		if errors.As(err, &reqErr) {
			return nil, &domain.ExternalAPIError{Service: serviceName, StatusCode: reqErr.StatusCode, Err: err}
		}
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return nil, &domain.ExternalAPIError{Service: serviceName, Body: apiErr.Message, Err: err}
		}
		return nil, &domain.ExternalAPIError{Service: serviceName, Err: fmt.Errorf("failed to call claude: %w", err)}
	}

	for _, blk := range resp.Content {
		if blk.Type == anthropic.MessagesContentTypeText {
			return vision.ParseExtraction(serviceName, blk.GetText())
		}
	}
	return nil, &domain.ParseError{Service: serviceName, Reason: "response has no text content"}
}
