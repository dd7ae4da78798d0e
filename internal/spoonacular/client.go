// Package spoonacular is a client for the Spoonacular recipe search and recipe
// information endpoints.
package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/vbonduro/mealmate/internal/domain"
)

const (
	// DefaultBaseURL is the public Spoonacular API.
	DefaultBaseURL = "https://api.spoonacular.com"

	// PageSize is the number of recipes requested per search.
	PageSize = 5

	serviceName = "Spoonacular"

	// maxErrorBody bounds how much of an error response is kept for messages.
	maxErrorBody = 64 * 1024
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client. An empty baseURL selects DefaultBaseURL. A
// missing apiKey is not rejected here; every call then fails with a
// ConfigurationError.
func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// NormalizeIngredients lowercases and trims every ingredient, drops empty
// ones and keeps the original order.
func NormalizeIngredients(ingredients []string) []string {
	return lo.FilterMap(ingredients, func(i string, _ int) (string, bool) {
		n := strings.ToLower(strings.TrimSpace(i))
		return n, n != ""
	})
}

// SearchByIngredients returns up to PageSize recipes that use ingredients,
// starting at offset. An ingredient list that normalizes to nothing returns an
// empty result without calling the API.
func (c *Client) SearchByIngredients(ctx context.Context, ingredients []string, sort domain.SortPreference, offset int) ([]domain.RecipeSummary, error) {
	query := strings.Join(NormalizeIngredients(ingredients), ",")
	if query == "" {
		return []domain.RecipeSummary{}, nil
	}
	if c.apiKey == "" {
		return nil, &domain.ConfigurationError{Key: "SPOONACULAR_API_KEY"}
	}

	params := url.Values{}
	params.Set("includeIngredients", query)
	params.Set("number", strconv.Itoa(PageSize))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("addRecipeInformation", "true")
	params.Set("instructionsRequired", "true")
	params.Set("sort", string(sort))
	params.Set("ignorePantry", "true")
	params.Set("apiKey", c.apiKey)

	c.logger.Info("fetching recipes", "ingredients", query, "sort", sort, "offset", offset)

	body, status, err := c.get(ctx, "/recipes/complexSearch", params)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		c.logger.Error("recipe search failed", "status", status)
		return nil, &domain.ExternalAPIError{Service: serviceName, StatusCode: status, Body: string(body)}
	}

	if !json.Valid(body) {
		return nil, &domain.ParseError{Service: serviceName, Reason: "search response is not valid JSON"}
	}
	recipes, ok := c.decodeResults(body)
	if !ok {
		return []domain.RecipeSummary{}, nil
	}

	c.logger.Info("fetched recipes", "ingredients", query, "count", len(recipes))
	return recipes, nil
}

// decodeResults reads the results array of a search response. Anything other
// than an object with a results array reports false. Entries that do not
// decode as a recipe are skipped so one bad entry does not empty the page.
func (c *Client) decodeResults(body []byte) ([]domain.RecipeSummary, bool) {
	var data struct {
		Results json.RawMessage `json:"results"`
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Warn("recipe search response is not an object", "error", err)
		return nil, false
	}
	if err := json.Unmarshal(data.Results, &items); err != nil || items == nil {
		c.logger.Warn("recipe search response has no results array", "error", err)
		return nil, false
	}

	recipes := lo.FilterMap(items, func(raw json.RawMessage, i int) (domain.RecipeSummary, bool) {
		var r domain.RecipeSummary
		if err := json.Unmarshal(raw, &r); err != nil {
			c.logger.Warn("skipping malformed recipe in search results", "index", i, "error", err)
			return r, false
		}
		return r, true
	})
	return recipes, true
}

// RecipeInformation returns full details for one recipe. A 404 from the API
// is reported as a *domain.NotFoundError.
func (c *Client) RecipeInformation(ctx context.Context, id string) (*domain.RecipeDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("recipe id is required")
	}
	if c.apiKey == "" {
		return nil, &domain.ConfigurationError{Key: "SPOONACULAR_API_KEY"}
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)

	c.logger.Info("fetching recipe details", "recipe_id", id)

	body, status, err := c.get(ctx, "/recipes/"+url.PathEscape(id)+"/information", params)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &domain.NotFoundError{Resource: "recipe", ID: id}
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		c.logger.Error("recipe details failed", "recipe_id", id, "status", status)
		return nil, &domain.ExternalAPIError{Service: serviceName, StatusCode: status, Body: string(body)}
	}

	var detail domain.RecipeDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, &domain.ParseError{Service: serviceName, Reason: "details response is not a JSON object", Err: err}
	}
	if detail.ID == 0 {
		return nil, &domain.ParseError{Service: serviceName, Reason: "details response has no id"}
	}
	return &detail, nil
}

// get issues a GET and returns the response body and status code. Transport
// failures are returned as *domain.ExternalAPIError.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &domain.ExternalAPIError{Service: serviceName, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close spoonacular response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return nil, 0, &domain.ExternalAPIError{Service: serviceName, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode >= http.StatusMultipleChoices && len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return body, resp.StatusCode, nil
}
