package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopilot/internal/authors"
	"autopilot/internal/config"
	"autopilot/internal/costs"
	"autopilot/internal/domain"
	"autopilot/internal/feed"
	"autopilot/internal/imagegen"
	"autopilot/internal/links"
	"autopilot/internal/ports"
	"autopilot/internal/schedule"
	"autopilot/internal/writer"
)

type fakeSource struct {
	items []domain.FeedItem
}

func (f *fakeSource) Fetch(context.Context) ([]domain.FeedItem, error) {
	return f.items, nil
}

type fakeSeen struct {
	records map[string]domain.SeenRecord
}

func newFakeSeen() *fakeSeen {
	return &fakeSeen{records: map[string]domain.SeenRecord{}}
}

func (f *fakeSeen) Has(_ context.Context, fingerprint string) (bool, error) {
	_, ok := f.records[fingerprint]
	return ok, nil
}

func (f *fakeSeen) Mark(_ context.Context, rec domain.SeenRecord) error {
	if _, ok := f.records[rec.Fingerprint]; !ok {
		f.records[rec.Fingerprint] = rec
	}
	return nil
}

func (f *fakeSeen) PublishedSince(_ context.Context, _ time.Time) (int, error) {
	count := 0
	for _, rec := range f.records {
		if rec.ArticleID != nil {
			count++
		}
	}
	return count, nil
}

type fakeState struct {
	index int
}

func (f *fakeState) RotationIndex(context.Context) (int, error) { return f.index, nil }
func (f *fakeState) SetRotationIndex(_ context.Context, index int) error {
	f.index = index
	return nil
}

type createdArticle struct {
	domain.NewArticle
	id int64
}

type fakeArticles struct {
	created []createdArticle
	shared  map[int64]string
}

func newFakeArticles() *fakeArticles {
	return &fakeArticles{shared: map[int64]string{}}
}

func (f *fakeArticles) Create(_ context.Context, article domain.NewArticle) (int64, error) {
	id := int64(len(f.created) + 1)
	f.created = append(f.created, createdArticle{NewArticle: article, id: id})
	return id, nil
}

func (f *fakeArticles) URL(_ context.Context, articleID int64) (string, error) {
	return fmt.Sprintf("https://site/articles/%d", articleID), nil
}

func (f *fakeArticles) AttachImage(context.Context, int64, int64) error { return nil }

func (f *fakeArticles) ResolveCategory(_ context.Context, name string) (int64, error) {
	return 77, nil
}

func (f *fakeArticles) RecentByAuthor(context.Context, int64, int) ([]domain.StoredArticle, error) {
	return nil, nil
}

func (f *fakeArticles) Published(context.Context) ([]domain.StoredArticle, error) {
	return nil, nil
}

func (f *fakeArticles) Shared(_ context.Context, articleID int64) (bool, error) {
	_, ok := f.shared[articleID]
	return ok, nil
}

func (f *fakeArticles) SetShared(_ context.Context, articleID int64, postID string) error {
	f.shared[articleID] = postID
	return nil
}

type fakeMedia struct{}

func (fakeMedia) Upload(context.Context, ports.MediaUpload) (int64, error) { return 1, nil }
func (fakeMedia) FileURL(context.Context, int64) (string, error) {
	return "https://site/media/x.png", nil
}

type fakeLinkStore struct {
	entries map[int64]domain.LinkEntry
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{entries: map[int64]domain.LinkEntry{}}
}

func (f *fakeLinkStore) Replace(_ context.Context, entry domain.LinkEntry) error {
	f.entries[entry.ArticleID] = entry
	return nil
}

func (f *fakeLinkStore) All(context.Context) ([]domain.LinkEntry, error) { return nil, nil }
func (f *fakeLinkStore) Delete(context.Context, int64) error             { return nil }

type fakeCostStore struct {
	entries  []domain.CostEntry
	attached map[int64]int64
}

func newFakeCostStore() *fakeCostStore {
	return &fakeCostStore{attached: map[int64]int64{}}
}

func (f *fakeCostStore) Insert(_ context.Context, entry domain.CostEntry) (int64, error) {
	f.entries = append(f.entries, entry)
	return int64(len(f.entries)), nil
}

func (f *fakeCostStore) AttachArticle(_ context.Context, entryIDs []int64, articleID int64) error {
	for _, id := range entryIDs {
		f.attached[id] = articleID
	}
	return nil
}

func (f *fakeCostStore) Summary(context.Context, time.Time) (domain.CostSummary, error) {
	return domain.CostSummary{}, nil
}

func (f *fakeCostStore) PerArticle(context.Context, int) ([]domain.ArticleCost, error) {
	return nil, nil
}

func (f *fakeCostStore) CountTypeSince(context.Context, domain.CostType, time.Time) (int, error) {
	return 0, nil
}

type fakeChat struct {
	calls int
}

func (f *fakeChat) Complete(_ context.Context, _ ports.ChatRequest) (ports.ChatResult, error) {
	f.calls++
	text := fmt.Sprintf(`{"title":"Artikkel %d","content":"<p>Innhold %d</p>","excerpt":"Utdrag","category_hint":""}`, f.calls, f.calls)
	return ports.ChatResult{
		Text:  text,
		Usage: domain.TokenUsage{PromptTokens: 100, CompletionTokens: 400},
	}, nil
}

func pipelineConfig() config.Config {
	return config.Config{
		Automation: config.AutomationConfig{
			Enabled:   true,
			Interval:  "1h",
			MaxPerRun: 3,
			MaxPerDay: 10,
		},
		Publish: config.PublishConfig{Status: "publish", DefaultCategory: 9},
		Writer: config.WriterConfig{
			APIKey:   "key",
			Model:    "test-model",
			Language: "norsk",
		},
	}
}

func item(n int, published time.Time) domain.FeedItem {
	title := fmt.Sprintf("Sak %d", n)
	url := fmt.Sprintf("https://feed/%d", n)
	return domain.FeedItem{
		Title:       title,
		URL:         url,
		Description: "beskrivelse",
		PublishedAt: published,
		Fingerprint: feed.Fingerprint(title, url),
	}
}

func buildPipeline(t *testing.T, cfg config.Config, source ports.FeedSource, now time.Time) (*Pipeline, *fakeSeen, *fakeState, *fakeArticles, *fakeLinkStore, *fakeCostStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seen := newFakeSeen()
	state := &fakeState{}
	articles := newFakeArticles()
	linkStore := newFakeLinkStore()
	costStore := newFakeCostStore()

	ledger := costs.NewLedger(costStore)
	textGen := writer.NewGenerator(&fakeChat{}, articles, cfg.Writer, logger)
	imageGen := imagegen.NewGenerator(nil, fakeMedia{}, cfg.Images, cfg.Writer.InlineImages, logger)

	pipeline := NewPipeline(PipelineDeps{
		Config:   cfg,
		Source:   source,
		Seen:     seen,
		State:    state,
		Articles: articles,
		Media:    fakeMedia{},
		Index:    links.NewIndex(linkStore),
		Rotator:  authors.NewRotator(cfg.Authors.Default, cfg.Authors.Pool),
		Writer:   textGen,
		Images:   imageGen,
		Ledger:   ledger,
		Spreader: schedule.NewSpreader(cfg.Automation.WorkHours),
		Logger:   logger,
	})
	pipeline.now = func() time.Time { return now }
	pipeline.shuffle = func(int, func(i, j int)) {}

	return pipeline, seen, state, articles, linkStore, costStore
}

func TestRunPublishesBatch(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()
	source := &fakeSource{items: []domain.FeedItem{
		item(1, now.Add(-time.Hour)),
		item(2, now.Add(-2*time.Hour)),
		item(3, now.Add(-3*time.Hour)),
	}}

	pipeline, seen, _, articles, linkStore, costStore := buildPipeline(t, cfg, source, now)

	published, err := pipeline.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, published)

	require.Len(t, articles.created, 3)
	// First item publishes immediately, the rest are scheduled into the
	// future.
	assert.Equal(t, "publish", articles.created[0].Status)
	assert.Nil(t, articles.created[0].ScheduledAt)
	for _, created := range articles.created[1:] {
		assert.Equal(t, "future", created.Status)
		require.NotNil(t, created.ScheduledAt)
		assert.True(t, created.ScheduledAt.After(now))
	}

	// Empty category hint falls back to the configured default.
	assert.Equal(t, int64(9), articles.created[0].CategoryID)

	assert.Len(t, seen.records, 3)
	for _, rec := range seen.records {
		require.NotNil(t, rec.ArticleID)
	}

	assert.Len(t, linkStore.entries, 3)

	// One text cost entry per article, back-filled with the article id.
	require.Len(t, costStore.entries, 3)
	assert.Len(t, costStore.attached, 3)
}

func TestRunSkipsWhenDisabled(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()
	cfg.Automation.Enabled = false
	source := &fakeSource{items: []domain.FeedItem{item(1, now)}}

	pipeline, _, _, articles, _, _ := buildPipeline(t, cfg, source, now)

	published, err := pipeline.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, published)
	assert.Empty(t, articles.created)
}

func TestRunForceBypassesGates(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()
	cfg.Automation.Enabled = false
	cfg.Automation.WorkHours = config.WorkHoursConfig{Enabled: true, Start: 8, End: 22}
	source := &fakeSource{items: []domain.FeedItem{item(1, now)}}

	pipeline, _, _, articles, _, _ := buildPipeline(t, cfg, source, now)

	published, err := pipeline.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Len(t, articles.created, 1)
}

func TestRunSkipsOutsideWorkHours(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()
	cfg.Automation.WorkHours = config.WorkHoursConfig{Enabled: true, Start: 8, End: 22}
	source := &fakeSource{items: []domain.FeedItem{item(1, now)}}

	pipeline, _, _, articles, _, _ := buildPipeline(t, cfg, source, now)

	published, err := pipeline.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, published)
	assert.Empty(t, articles.created)
}

func TestRunFiltersSeenAndStaleItems(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()

	fresh := item(1, now.Add(-time.Hour))
	stale := item(2, now.Add(-72*time.Hour))
	duplicate := item(3, now.Add(-time.Hour))
	source := &fakeSource{items: []domain.FeedItem{fresh, stale, duplicate}}

	pipeline, seen, _, articles, _, _ := buildPipeline(t, cfg, source, now)
	require.NoError(t, seen.Mark(context.Background(), domain.SeenRecord{Fingerprint: duplicate.Fingerprint}))

	published, err := pipeline.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	require.Len(t, articles.created, 1)
	assert.Equal(t, "Artikkel 1", articles.created[0].Title)
}

func TestRunHonorsKeywordFilter(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()
	cfg.Keywords.Exclude = []string{"beskrivelse"}
	source := &fakeSource{items: []domain.FeedItem{item(1, now)}}

	pipeline, _, _, articles, _, _ := buildPipeline(t, cfg, source, now)

	published, err := pipeline.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, published)
	assert.Empty(t, articles.created)
}

func TestRunRespectsPerRunLimit(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()
	cfg.Automation.MaxPerRun = 2
	source := &fakeSource{items: []domain.FeedItem{
		item(1, now), item(2, now), item(3, now), item(4, now),
	}}

	pipeline, _, _, articles, _, _ := buildPipeline(t, cfg, source, now)

	published, err := pipeline.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Len(t, articles.created, 2)
}

func TestRunStopsAtDailyCeiling(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()
	cfg.Automation.MaxPerDay = 1
	source := &fakeSource{items: []domain.FeedItem{item(1, now), item(2, now)}}

	pipeline, _, _, articles, _, _ := buildPipeline(t, cfg, source, now)

	published, err := pipeline.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Len(t, articles.created, 1)
}

func TestRunAdvancesRotationIndex(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cfg := pipelineConfig()
	cfg.Authors.Method = domain.RotateRoundRobin
	cfg.Authors.Pool = []domain.AuthorPoolEntry{
		{UserID: 10, Weight: 1},
		{UserID: 20, Weight: 1},
	}
	source := &fakeSource{items: []domain.FeedItem{item(1, now), item(2, now), item(3, now)}}

	pipeline, _, state, articles, _, _ := buildPipeline(t, cfg, source, now)

	_, err := pipeline.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 3, state.index)
	require.Len(t, articles.created, 3)
	assert.Equal(t, int64(10), articles.created[0].AuthorID)
	assert.Equal(t, int64(20), articles.created[1].AuthorID)
	assert.Equal(t, int64(10), articles.created[2].AuthorID)
}
