// Package flow sequences ingredient extraction, recipe suggestions and recipe
// details for one scanning session. Every fetch carries a generation number;
// a result whose generation is no longer current is discarded instead of
// being committed.
package flow

import (
	"context"
	"errors"

	"github.com/vbonduro/mealmate/internal/domain"
)

// ErrSuperseded is returned by an operation whose result was discarded
// because a newer input replaced it while it was in flight.
var ErrSuperseded = errors.New("superseded by a newer request")

// ErrNoIngredients is returned by More when there is nothing to search for.
var ErrNoIngredients = errors.New("no ingredients to search with")

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the loading/data/error triple of one fetch slot.
type State[T any] struct {
	Status Status `json:"status"`
	Data   T      `json:"data"`
	Error  string `json:"error,omitempty"`
}

func idle[T any]() State[T] { return State[T]{Status: StatusIdle} }

func loading[T any]() State[T] { return State[T]{Status: StatusLoading} }

func settled[T any](data T, err error) State[T] {
	if err != nil {
		return State[T]{Status: StatusError, Error: err.Error()}
	}
	return State[T]{Status: StatusSuccess, Data: data}
}

// DetailState adds the not-found outcome to a recipe detail fetch.
type DetailState struct {
	State[*domain.RecipeDetail]
	RecipeID string `json:"recipeId,omitempty"`
	NotFound bool   `json:"notFound"`
}

// Snapshot is a point-in-time copy of a session, safe to render or encode.
type Snapshot struct {
	ID          string                          `json:"id"`
	ImageRef    string                          `json:"imageRef,omitempty"`
	Extraction  State[*domain.ExtractionResult] `json:"extraction"`
	Recipes     State[[]domain.RecipeSummary]   `json:"recipes"`
	Ingredients []string                        `json:"ingredients"`
	Sort        domain.SortPreference           `json:"sort"`
	Offset      int                             `json:"offset"`
	Detail      DetailState                     `json:"detail"`
}

// ImageLoader resolves an image reference to base64-encoded image data and
// its MIME type.
type ImageLoader interface {
	LoadBase64(ctx context.Context, ref string) (data, mimeType string, err error)
}

// RecipeSearcher finds one page of recipes for a set of ingredients.
type RecipeSearcher interface {
	SearchByIngredients(ctx context.Context, ingredients []string, sort domain.SortPreference, offset int) ([]domain.RecipeSummary, error)
}

// RecipeDetailer fetches one recipe by id.
type RecipeDetailer interface {
	RecipeInformation(ctx context.Context, id string) (*domain.RecipeDetail, error)
}
