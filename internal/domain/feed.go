package domain

import "time"

// FeedItem is one entry parsed from an RSS or Atom source.
type FeedItem struct {
	Title       string
	URL         string
	Description string
	PublishedAt time.Time
	FeedName    string
	Fingerprint string
}

// SeenRecord marks a feed item as processed so it is never drafted twice.
// The fingerprint is globally unique; a second insert is ignored.
type SeenRecord struct {
	Fingerprint string
	Title       string
	URL         string
	ArticleID   *int64
	CreatedAt   time.Time
}
