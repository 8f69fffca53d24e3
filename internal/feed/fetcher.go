package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"autopilot/internal/config"
	"autopilot/internal/domain"
	"autopilot/internal/links"
	"autopilot/internal/ports"
)

const fetchTimeout = 30 * time.Second

// Fetcher pulls items from every active configured feed.
type Fetcher struct {
	feeds  []config.FeedConfig
	parser *gofeed.Parser
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.FeedSource = (*Fetcher)(nil)

// NewFetcher builds a feed source over the configured feed list.
func NewFetcher(feeds []config.FeedConfig, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		logger: logger,
		now:    time.Now,
	}
}

// Fetch downloads and parses all active feeds. A failing feed is logged and
// skipped; the remaining feeds still contribute items.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.FeedItem, error) {
	var items []domain.FeedItem

	for _, feed := range f.feeds {
		if !feed.Active || feed.URL == "" {
			continue
		}

		parsed, err := f.fetchOne(ctx, feed.URL)
		if err != nil {
			f.logger.Error("feed fetch failed", "feed", feed.Name, "error", err)
			continue
		}

		for _, item := range parsed.Items {
			items = append(items, toFeedItem(item, feed.Name, f.now()))
		}
	}

	return items, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) (*gofeed.Feed, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(url, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return parsed, nil
}

func toFeedItem(item *gofeed.Item, feedName string, now time.Time) domain.FeedItem {
	published := now
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	title := links.StripTags(item.Title)
	return domain.FeedItem{
		Title:       title,
		URL:         item.Link,
		Description: links.StripTags(item.Description),
		PublishedAt: published,
		FeedName:    feedName,
		Fingerprint: Fingerprint(title, item.Link),
	}
}

// Fingerprint derives the deduplication hash over title and url. It is
// deterministic across runs and case-sensitive as produced.
func Fingerprint(title, url string) string {
	sum := sha256.Sum256([]byte(title + url))
	return fmt.Sprintf("%x", sum)
}
