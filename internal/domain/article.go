package domain

import (
	"encoding/json"
	"time"
)

// InlineImage is a marker+prompt pair instructing where to embed a generated
// image inside the article body.
type InlineImage struct {
	Marker  string `json:"marker"`
	Prompt  string `json:"prompt"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

// Draft is an article produced by the writer, not yet published.
type Draft struct {
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Excerpt      string        `json:"excerpt"`
	CategoryHint string        `json:"category_hint"`
	ImagePrompt  string        `json:"image_prompt"`
	ImageAlt     string        `json:"image_alt"`
	ImageCaption string        `json:"image_caption"`
	InlineImages []InlineImage `json:"inline_images"`

	// Generation metadata for cost accounting and diagnosis.
	Model string          `json:"-"`
	Usage TokenUsage      `json:"-"`
	Raw   json.RawMessage `json:"-"`
}

// TokenUsage carries provider-reported token counts per completion.
// TotalCost is nil when the provider does not report cost.
type TokenUsage struct {
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	TotalCost        *float64 `json:"total_cost,omitempty"`
}

// NewArticle is the payload handed to the article store on publish.
// ScheduledAt nil means publish immediately.
type NewArticle struct {
	Title       string
	Content     string
	Excerpt     string
	Status      string
	AuthorID    int64
	CategoryID  int64
	ScheduledAt *time.Time
}

// StoredArticle is a published article as read back from the store.
type StoredArticle struct {
	ID          int64
	Title       string
	URL         string
	Content     string
	AuthorID    int64
	PublishedAt time.Time
}

// LinkEntry is the per-article keyword index used for relevance scoring.
// At most one entry exists per article; re-indexing replaces.
type LinkEntry struct {
	ArticleID int64
	Title     string
	URL       string
	Keywords  []string
}

// RelatedLink is a scored suggestion for internal linking.
type RelatedLink struct {
	ArticleID int64
	Title     string
	URL       string
	Score     int
}
