package feed

import (
	"strings"
	"time"

	"autopilot/internal/domain"
)

// MaxItemAge is how far back in time an item may have been published and
// still enter the pipeline.
const MaxItemAge = 48 * time.Hour

// KeywordFilter classifies text against include/exclude keyword sets.
// With a non-empty include set, at least one include token must appear;
// any exclude token rejects regardless of include matches.
type KeywordFilter struct {
	include []string
	exclude []string
}

// NewKeywordFilter normalizes both keyword sets (trimmed, lowercase,
// empty tokens dropped).
func NewKeywordFilter(include, exclude []string) *KeywordFilter {
	return &KeywordFilter{
		include: normalizeKeywords(include),
		exclude: normalizeKeywords(exclude),
	}
}

// Pass reports whether the text survives both keyword gates. Matching is
// case-insensitive substring matching.
func (f *KeywordFilter) Pass(text string) bool {
	lower := strings.ToLower(text)

	if len(f.include) > 0 {
		found := false
		for _, word := range f.include {
			if strings.Contains(lower, word) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, word := range f.exclude {
		if strings.Contains(lower, word) {
			return false
		}
	}

	return true
}

// PassItem applies the filter to an item's title and description combined.
func (f *KeywordFilter) PassItem(item domain.FeedItem) bool {
	return f.Pass(item.Title + " " + item.Description)
}

// FreshEnough reports whether the item was published within MaxItemAge of now.
func FreshEnough(item domain.FeedItem, now time.Time) bool {
	return !item.PublishedAt.Before(now.Add(-MaxItemAge))
}

func normalizeKeywords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			out = append(out, word)
		}
	}
	return out
}
