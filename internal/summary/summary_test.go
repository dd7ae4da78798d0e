package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAndLinkSummary(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected Parsed
	}{
		{
			name:     "empty input",
			html:     "",
			expected: Parsed{SummaryText: "", RelatedRecipes: []RelatedRecipe{}},
		},
		{
			name: "no links keeps whole text",
			html: "  A <b>hearty</b> soup. Serves 4!  ",
			expected: Parsed{
				SummaryText:    "A hearty soup. Serves 4!",
				RelatedRecipes: []RelatedRecipe{},
			},
		},
		{
			name: "trailer sentence removed",
			html: `Pasta with <b>garlic</b> takes 20 minutes. Try <a href="https://spoonacular.com/recipes/pesto-12">Pesto</a> and <a href="https://spoonacular.com/recipes/ragu-345">Ragu</a> for similar recipes.`,
			expected: Parsed{
				SummaryText: "Pasta with garlic takes 20 minutes.",
				RelatedRecipes: []RelatedRecipe{
					{ID: "12", Title: "Pesto"},
					{ID: "345", Title: "Ragu"},
				},
			},
		},
		{
			name: "link without preceding terminator empties summary",
			html: `See <a href="/r/5">Soup</a> and <a href="/r/9">Stew</a>.`,
			expected: Parsed{
				SummaryText: "",
				RelatedRecipes: []RelatedRecipe{
					{ID: "5", Title: "Soup"},
					{ID: "9", Title: "Stew"},
				},
			},
		},
		{
			name: "question and exclamation marks end sentences",
			html: `Is it good? Yes! Similar: <a href="/r/7">Chili</a>`,
			expected: Parsed{
				SummaryText:    "Is it good? Yes!",
				RelatedRecipes: []RelatedRecipe{{ID: "7", Title: "Chili"}},
			},
		},
		{
			name: "nested tags in link title stripped",
			html: `Tasty. More: <a href="/r/42"> <b>Bread</b> </a>`,
			expected: Parsed{
				SummaryText:    "Tasty.",
				RelatedRecipes: []RelatedRecipe{{ID: "42", Title: "Bread"}},
			},
		},
		{
			name: "empty link title discarded",
			html: `Tasty. More: <a href="/r/1"><i> </i></a> and <a href="/r/2">Cake</a>`,
			expected: Parsed{
				SummaryText:    "Tasty.",
				RelatedRecipes: []RelatedRecipe{{ID: "2", Title: "Cake"}},
			},
		},
		{
			name: "decimal point is not a boundary",
			html: `Costs 1.5 dollars per serving. It is like <a href="/r/3">Tacos</a>.`,
			expected: Parsed{
				SummaryText:    "Costs 1.5 dollars per serving.",
				RelatedRecipes: []RelatedRecipe{{ID: "3", Title: "Tacos"}},
			},
		},
		{
			// Abbreviations split early; kept as the documented heuristic.
			name: "abbreviation splits mid description",
			html: `Created by Dr. Smith for <a href="/r/8">Brunch</a>.`,
			expected: Parsed{
				SummaryText:    "Created by Dr.",
				RelatedRecipes: []RelatedRecipe{{ID: "8", Title: "Brunch"}},
			},
		},
		{
			name: "terminator directly before link",
			html: `Great dish.<a href="/r/11">Salad</a>`,
			expected: Parsed{
				SummaryText:    "Great dish.",
				RelatedRecipes: []RelatedRecipe{{ID: "11", Title: "Salad"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAndLinkSummary(tt.html))
		})
	}
}

func TestStripHTMLIdempotentOnPlainText(t *testing.T) {
	for _, s := range []string{"", "plain text", "5 > 3 and 2 < 4", "Eggs, milk. Done!"} {
		assert.Equal(t, s, StripHTML(s))
		assert.Equal(t, StripHTML(s), StripHTML(StripHTML(s)))
	}
}

func TestSegments(t *testing.T) {
	html := `Try <b>this</b>: <a href="/r/5">Soup</a> or <a href="/r/9">Stew</a>`

	assert.Equal(t, []Segment{
		{Kind: SegmentText, Content: "Try this: "},
		{Kind: SegmentLink, Content: "Soup", RecipeID: "5"},
		{Kind: SegmentText, Content: " or "},
		{Kind: SegmentLink, Content: "Stew", RecipeID: "9"},
	}, Segments(html))

	assert.Empty(t, Segments(""))
}
