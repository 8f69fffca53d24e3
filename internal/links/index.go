package links

import (
	"context"
	"fmt"
	"sort"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// DefaultRelatedLimit caps related-link suggestions per draft.
const DefaultRelatedLimit = 5

// Index maintains a bag-of-keywords entry per published article and scores
// new content against it for internal-link suggestions.
type Index struct {
	store ports.LinkStore
}

// NewIndex wires the relevance index over its storage.
func NewIndex(store ports.LinkStore) *Index {
	return &Index{store: store}
}

// Add extracts keywords from title and body and stores/replaces the entry
// for the article.
func (i *Index) Add(ctx context.Context, articleID int64, title, url, body string) error {
	entry := domain.LinkEntry{
		ArticleID: articleID,
		Title:     title,
		URL:       url,
		Keywords:  ExtractKeywords(title + " " + body),
	}
	if err := i.store.Replace(ctx, entry); err != nil {
		return fmt.Errorf("replace link entry %d: %w", articleID, err)
	}
	return nil
}

// Remove deletes the entry for the article.
func (i *Index) Remove(ctx context.Context, articleID int64) error {
	if err := i.store.Delete(ctx, articleID); err != nil {
		return fmt.Errorf("delete link entry %d: %w", articleID, err)
	}
	return nil
}

// FindRelated scores every indexed entry by keyword overlap with the query
// text and returns entries with a positive score, highest first, truncated
// to limit.
func (i *Index) FindRelated(ctx context.Context, title, body string, limit int) ([]domain.RelatedLink, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	entries, err := i.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load link index: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	query := map[string]struct{}{}
	for _, word := range ExtractKeywords(title + " " + body) {
		query[word] = struct{}{}
	}

	var scored []domain.RelatedLink
	for _, entry := range entries {
		overlap := 0
		for _, keyword := range entry.Keywords {
			if _, ok := query[keyword]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			scored = append(scored, domain.RelatedLink{
				ArticleID: entry.ArticleID,
				Title:     entry.Title,
				URL:       entry.URL,
				Score:     overlap,
			})
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
