package costs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopilot/internal/domain"
)

type fakeCostStore struct {
	entries  []domain.CostEntry
	attached map[int64]int64
	summary  domain.CostSummary
}

func newFakeCostStore() *fakeCostStore {
	return &fakeCostStore{attached: map[int64]int64{}}
}

func (s *fakeCostStore) Insert(_ context.Context, entry domain.CostEntry) (int64, error) {
	entry.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

func (s *fakeCostStore) AttachArticle(_ context.Context, entryIDs []int64, articleID int64) error {
	for _, id := range entryIDs {
		s.attached[id] = articleID
	}
	return nil
}

func (s *fakeCostStore) Summary(_ context.Context, _ time.Time) (domain.CostSummary, error) {
	return s.summary, nil
}

func (s *fakeCostStore) PerArticle(_ context.Context, _ int) ([]domain.ArticleCost, error) {
	return nil, nil
}

func (s *fakeCostStore) CountTypeSince(_ context.Context, t domain.CostType, since time.Time) (int, error) {
	count := 0
	for _, entry := range s.entries {
		if entry.Type == t && !entry.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func TestRecordTextCarriesUsage(t *testing.T) {
	store := newFakeCostStore()
	ledger := NewLedger(store)

	cost := 0.0123
	id, err := ledger.RecordText(context.Background(), nil, domain.CostText, "test-model",
		domain.TokenUsage{PromptTokens: 100, CompletionTokens: 900, TotalCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	entry := store.entries[0]
	assert.Equal(t, domain.CostText, entry.Type)
	assert.Equal(t, 100, entry.TokensIn)
	assert.Equal(t, 900, entry.TokensOut)
	require.NotNil(t, entry.CostUSD)
	assert.InDelta(t, 0.0123, *entry.CostUSD, 1e-9)
	assert.Nil(t, entry.ArticleID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestRecordImagePricing(t *testing.T) {
	store := newFakeCostStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	tests := []struct {
		model string
		want  float64
	}{
		{model: "fal-ai/flux-2-pro", want: 0.05},
		{model: "fal-ai/nano-banana-pro", want: 0.02},
		{model: "some/unknown-model", want: 0.05},
	}

	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			id, err := ledger.RecordImage(ctx, nil, domain.CostFeaturedImage, tc.model)
			require.NoError(t, err)

			entry := store.entries[id-1]
			require.NotNil(t, entry.CostUSD)
			assert.InDelta(t, tc.want, *entry.CostUSD, 1e-9)
		})
	}
}

func TestAttachArticle(t *testing.T) {
	store := newFakeCostStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	id1, err := ledger.RecordText(ctx, nil, domain.CostText, "m", domain.TokenUsage{})
	require.NoError(t, err)
	id2, err := ledger.RecordImage(ctx, nil, domain.CostFeaturedImage, "m")
	require.NoError(t, err)

	require.NoError(t, ledger.AttachArticle(ctx, []int64{id1, id2}, 42))
	assert.Equal(t, int64(42), store.attached[id1])
	assert.Equal(t, int64(42), store.attached[id2])
}

func TestAttachArticleNoEntries(t *testing.T) {
	ledger := NewLedger(newFakeCostStore())
	assert.NoError(t, ledger.AttachArticle(context.Background(), nil, 42))
}

func TestSummaryEmptyLedger(t *testing.T) {
	ledger := NewLedger(newFakeCostStore())

	summary, err := ledger.Summary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.CostToday)
	assert.Zero(t, summary.Cost7d)
	assert.Zero(t, summary.Cost30d)
	assert.Zero(t, summary.CostTotal)
	assert.Zero(t, summary.ArticleCount)
	assert.Zero(t, summary.AvgPerArticle, "no articles must not divide")
	assert.Zero(t, summary.TokensInTotal)
	assert.Zero(t, summary.TokensOutTotal)
}

func TestSummaryDerivesAveragePerArticle(t *testing.T) {
	store := newFakeCostStore()
	store.summary = domain.CostSummary{
		CostToday:    0.5,
		CostTotal:    10,
		ArticleCount: 4,
	}
	ledger := NewLedger(store)

	summary, err := ledger.Summary(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.5, summary.AvgPerArticle, 1e-9)
}

func TestPostersToday(t *testing.T) {
	store := newFakeCostStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	fixed := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }

	articleID := int64(1)
	_, err := ledger.RecordImage(ctx, &articleID, domain.CostSocialPoster, "fal-ai/nano-banana-pro")
	require.NoError(t, err)
	_, err = ledger.RecordImage(ctx, &articleID, domain.CostFeaturedImage, "fal-ai/flux-2-pro")
	require.NoError(t, err)

	// A poster from yesterday must not count.
	ledger.now = func() time.Time { return fixed.AddDate(0, 0, -1) }
	_, err = ledger.RecordImage(ctx, &articleID, domain.CostSocialPoster, "fal-ai/nano-banana-pro")
	require.NoError(t, err)
	ledger.now = func() time.Time { return fixed }

	count, err := ledger.PostersToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
