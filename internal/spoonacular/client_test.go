package spoonacular

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/mealmate/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient("spoon-key", server.URL, slog.Default()), &calls
}

func TestNormalizeIngredients(t *testing.T) {
	assert.Equal(t, []string{"egg", "milk"}, NormalizeIngredients([]string{"  Egg ", "MILK"}))
	assert.Equal(t, []string{"flour", "egg"}, NormalizeIngredients([]string{"", "Flour", "   ", "egg"}))
	assert.Empty(t, NormalizeIngredients(nil))
}

func TestSearchByIngredientsBuildsQuery(t *testing.T) {
	var query map[string]string
	var path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		_, _ = w.Write([]byte(`{"results":[{"id":1,"title":"Omelette","readyInMinutes":10,"servings":1,"usedIngredientCount":2}]}`))
	})

	recipes, err := client.SearchByIngredients(context.Background(), []string{"  Egg ", "MILK"}, domain.SortMinMissingIngredients, 5)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, int64(1), recipes[0].ID)
	assert.Equal(t, "Omelette", recipes[0].Title)
	require.NotNil(t, recipes[0].UsedIngredientCount)
	assert.Equal(t, 2, *recipes[0].UsedIngredientCount)
	assert.Nil(t, recipes[0].MissedIngredientCount)

	assert.Equal(t, "/recipes/complexSearch", path)
	assert.Equal(t, map[string]string{
		"includeIngredients":   "egg,milk",
		"number":               "5",
		"offset":               "5",
		"addRecipeInformation": "true",
		"instructionsRequired": "true",
		"sort":                 "min-missing-ingredients",
		"ignorePantry":         "true",
		"apiKey":               "spoon-key",
	}, query)
}

func TestSearchByIngredientsEmptyQuerySkipsNetwork(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	for _, ingredients := range [][]string{nil, {}, {"  ", ""}} {
		recipes, err := client.SearchByIngredients(context.Background(), ingredients, domain.SortMaxUsedIngredients, 0)
		require.NoError(t, err)
		assert.Empty(t, recipes)
		assert.NotNil(t, recipes)
	}
	assert.Zero(t, calls.Load())
}

func TestSearchByIngredientsMissingResults(t *testing.T) {
	for _, body := range []string{`{}`, `{"results":"nope"}`, `[]`, `{"results":null}`} {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		recipes, err := client.SearchByIngredients(context.Background(), []string{"egg"}, domain.SortMaxUsedIngredients, 0)
		require.NoError(t, err, body)
		assert.Empty(t, recipes, body)
	}
}

func TestSearchByIngredientsSkipsMalformedRecipe(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":1,"title":"Omelette"},{"id":"two","title":7},{"id":3,"title":"Frittata"}]}`))
	})

	recipes, err := client.SearchByIngredients(context.Background(), []string{"egg"}, domain.SortMaxUsedIngredients, 0)
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, int64(1), recipes[0].ID)
	assert.Equal(t, int64(3), recipes[1].ID)
}

func TestSearchByIngredientsAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "daily quota used up", http.StatusPaymentRequired)
	})

	_, err := client.SearchByIngredients(context.Background(), []string{"egg"}, domain.SortMaxUsedIngredients, 0)

	var apiErr *domain.ExternalAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "daily quota used up")
	assert.Contains(t, err.Error(), "(402)")
}

func TestSearchByIngredientsMissingAPIKey(t *testing.T) {
	client := NewClient("", "http://127.0.0.1:1", slog.Default())

	recipes, err := client.SearchByIngredients(context.Background(), nil, domain.SortMaxUsedIngredients, 0)
	require.NoError(t, err)
	assert.Empty(t, recipes)

	_, err = client.SearchByIngredients(context.Background(), []string{"egg"}, domain.SortMaxUsedIngredients, 0)
	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestRecipeInformation(t *testing.T) {
	var path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{
			"id": 716429,
			"title": "Pasta with Garlic",
			"summary": "Easy pasta. Try <a href=\"https://spoonacular.com/recipes/x-12\">X</a>.",
			"vegetarian": true,
			"extendedIngredients": [{"id": 1, "name": "garlic", "original": "2 cloves garlic", "amount": 2, "unit": "cloves"}],
			"instructions": "Boil pasta.",
			"analyzedInstructions": [{"name": "", "steps": [{"number": 1, "step": "Boil pasta."}]}]
		}`))
	})

	detail, err := client.RecipeInformation(context.Background(), "716429")
	require.NoError(t, err)
	assert.Equal(t, "/recipes/716429/information", path)
	assert.Equal(t, int64(716429), detail.ID)
	assert.True(t, detail.Vegetarian)
	require.Len(t, detail.ExtendedIngredients, 1)
	assert.Equal(t, "2 cloves garlic", detail.ExtendedIngredients[0].Original)
	require.NotNil(t, detail.Instructions)
	assert.Equal(t, "Boil pasta.", *detail.Instructions)
	require.Len(t, detail.AnalyzedInstructions, 1)
	assert.Equal(t, 1, detail.AnalyzedInstructions[0].Steps[0].Number)
}

func TestRecipeInformationNotFoundDistinctFromServerError(t *testing.T) {
	notFound, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"failure"}`, http.StatusNotFound)
	})
	broken, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := notFound.RecipeInformation(context.Background(), "42")
	var nfErr *domain.NotFoundError
	require.True(t, errors.As(err, &nfErr))
	assert.Contains(t, err.Error(), "(404)")

	_, err = broken.RecipeInformation(context.Background(), "42")
	assert.False(t, errors.As(err, &nfErr))
	var apiErr *domain.ExternalAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestRecipeInformationInvalidBody(t *testing.T) {
	for _, body := range []string{`[]`, `null`, `{"title":"no id"}`, `not json`} {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, err := client.RecipeInformation(context.Background(), "1")
		var parseErr *domain.ParseError
		assert.True(t, errors.As(err, &parseErr), body)
	}
}
