package costs

import (
	"context"
	"fmt"
	"time"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// defaultImagePrice is charged for models missing from the price table.
const defaultImagePrice = 0.05

// imagePrices holds approximate flat prices per generated image.
var imagePrices = map[string]float64{
	"fal-ai/flux-2-pro":            0.05,
	"fal-ai/flux-2/klein/realtime": 0.01,
	"fal-ai/nano-banana-pro":       0.02,
	"xai/grok-imagine-image":       0.07,
}

// Ledger records token and image usage per generation event and aggregates
// spending summaries. Entries are append-only; article ids are back-filled
// after publish.
type Ledger struct {
	store ports.CostStore
	now   func() time.Time
}

// NewLedger wires the ledger over its storage.
func NewLedger(store ports.CostStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Record appends one entry and returns its id for later back-filling.
func (l *Ledger) Record(ctx context.Context, entry domain.CostEntry) (int64, error) {
	entry.CreatedAt = l.now().UTC()
	id, err := l.store.Insert(ctx, entry)
	if err != nil {
		return 0, fmt.Errorf("insert cost entry: %w", err)
	}
	return id, nil
}

// RecordText appends a text-generation entry from provider-reported usage.
func (l *Ledger) RecordText(ctx context.Context, articleID *int64, costType domain.CostType, model string, usage domain.TokenUsage) (int64, error) {
	return l.Record(ctx, domain.CostEntry{
		ArticleID: articleID,
		Type:      costType,
		Model:     model,
		TokensIn:  usage.PromptTokens,
		TokensOut: usage.CompletionTokens,
		CostUSD:   usage.TotalCost,
	})
}

// RecordImage appends an image entry priced from the static per-model table.
func (l *Ledger) RecordImage(ctx context.Context, articleID *int64, costType domain.CostType, model string) (int64, error) {
	price, ok := imagePrices[model]
	if !ok {
		price = defaultImagePrice
	}
	return l.Record(ctx, domain.CostEntry{
		ArticleID: articleID,
		Type:      costType,
		Model:     model,
		CostUSD:   &price,
	})
}

// AttachArticle back-fills the article id on entries created before publish.
func (l *Ledger) AttachArticle(ctx context.Context, entryIDs []int64, articleID int64) error {
	if len(entryIDs) == 0 {
		return nil
	}
	if err := l.store.AttachArticle(ctx, entryIDs, articleID); err != nil {
		return fmt.Errorf("attach article %d to cost entries: %w", articleID, err)
	}
	return nil
}

// Summary aggregates spending over today / 7d / 30d / total windows and
// derives the per-article average. An empty ledger reports all zeroes.
func (l *Ledger) Summary(ctx context.Context) (domain.CostSummary, error) {
	summary, err := l.store.Summary(ctx, l.now())
	if err != nil {
		return domain.CostSummary{}, fmt.Errorf("cost summary: %w", err)
	}
	if summary.ArticleCount > 0 {
		summary.AvgPerArticle = summary.CostTotal / float64(summary.ArticleCount)
	}
	return summary, nil
}

// PerArticle returns the most recent articles with aggregated totals.
func (l *Ledger) PerArticle(ctx context.Context, limit int) ([]domain.ArticleCost, error) {
	rows, err := l.store.PerArticle(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("per-article costs: %w", err)
	}
	return rows, nil
}

// PostersToday counts social posters billed since local midnight. The social
// sharer uses it to enforce the daily poster ceiling.
func (l *Ledger) PostersToday(ctx context.Context) (int, error) {
	now := l.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := l.store.CountTypeSince(ctx, domain.CostSocialPoster, midnight)
	if err != nil {
		return 0, fmt.Errorf("count posters today: %w", err)
	}
	return count, nil
}
