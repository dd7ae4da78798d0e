// Package summary splits recipe summaries from the recipe API into a plain
// description and the "related recipes" links appended to it.
package summary

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// linkPattern captures the trailing digits of the href (the recipe id) and
	// the link text.
	linkPattern = regexp.MustCompile(`<a href=".*?(\d+)">(.+?)</a>`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

type RelatedRecipe struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Parsed struct {
	SummaryText    string          `json:"summaryText"`
	RelatedRecipes []RelatedRecipe `json:"relatedRecipes"`
}

// StripHTML removes every tag from s. Plain text is returned unchanged.
func StripHTML(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// ParseAndLinkSummary returns the leading description of html and every
// related-recipe link found in it.
func ParseAndLinkSummary(html string) Parsed {
	parsed := Parsed{RelatedRecipes: []RelatedRecipe{}}
	if html == "" {
		return parsed
	}

	matches := linkPattern.FindAllStringSubmatchIndex(html, -1)
	for _, m := range matches {
		title := strings.TrimSpace(StripHTML(html[m[4]:m[5]]))
		if title == "" {
			continue
		}
		parsed.RelatedRecipes = append(parsed.RelatedRecipes, RelatedRecipe{
			ID:    html[m[2]:m[3]],
			Title: title,
		})
	}

	split := len(html)
	if len(matches) > 0 {
		split = sentenceBoundary(html[:matches[0][0]])
	}
	parsed.SummaryText = strings.TrimSpace(StripHTML(html[:split]))
	return parsed
}

// sentenceBoundary returns the offset just past the last sentence terminator
// in text that is followed by whitespace or the end of text, including that
// whitespace. It returns 0 when text has no such terminator.
func sentenceBoundary(text string) int {
	for i := len(text) - 1; i >= 0; i-- {
		if !isTerminator(text[i]) {
			continue
		}
		next := i + 1
		if next < len(text) {
			r, _ := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(r) {
				continue
			}
		}
		for next < len(text) {
			r, size := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(r) {
				break
			}
			next += size
		}
		return next
	}
	return 0
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// SegmentKind distinguishes plain text from recipe links in a Segment.
type SegmentKind string

const (
	SegmentText SegmentKind = "text"
	SegmentLink SegmentKind = "link"
)

// Segment is one piece of a summary rendered inline: either text or a link to
// another recipe.
type Segment struct {
	Kind     SegmentKind `json:"type"`
	Content  string      `json:"content"`
	RecipeID string      `json:"recipeId,omitempty"`
}

// Segments splits html into text and link pieces in document order, with tags
// removed from both. Whitespace-only text between links is dropped.
func Segments(html string) []Segment {
	segments := []Segment{}
	if html == "" {
		return segments
	}

	last := 0
	for _, m := range linkPattern.FindAllStringSubmatchIndex(html, -1) {
		if m[0] > last {
			segments = appendText(segments, html[last:m[0]])
		}
		segments = append(segments, Segment{
			Kind:     SegmentLink,
			Content:  StripHTML(html[m[4]:m[5]]),
			RecipeID: html[m[2]:m[3]],
		})
		last = m[1]
	}
	if last < len(html) {
		segments = appendText(segments, html[last:])
	}
	return segments
}

func appendText(segments []Segment, raw string) []Segment {
	text := StripHTML(raw)
	if strings.TrimSpace(text) == "" {
		return segments
	}
	return append(segments, Segment{Kind: SegmentText, Content: text})
}
