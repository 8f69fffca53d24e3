package ports

import (
	"context"
	"time"

	"autopilot/internal/domain"
)

// FeedSource pulls fresh items from the configured feeds.
type FeedSource interface {
	Fetch(ctx context.Context) ([]domain.FeedItem, error)
}

// SeenStore persists processed item fingerprints for deduplication.
// Mark ignores duplicate fingerprints instead of overwriting.
type SeenStore interface {
	Has(ctx context.Context, fingerprint string) (bool, error)
	Mark(ctx context.Context, rec domain.SeenRecord) error
	PublishedSince(ctx context.Context, since time.Time) (int, error)
}

// LinkStore persists the per-article keyword index.
type LinkStore interface {
	Replace(ctx context.Context, entry domain.LinkEntry) error
	All(ctx context.Context) ([]domain.LinkEntry, error)
	Delete(ctx context.Context, articleID int64) error
}

// CostStore is the append-only cost ledger storage.
type CostStore interface {
	Insert(ctx context.Context, entry domain.CostEntry) (int64, error)
	AttachArticle(ctx context.Context, entryIDs []int64, articleID int64) error
	Summary(ctx context.Context, now time.Time) (domain.CostSummary, error)
	PerArticle(ctx context.Context, limit int) ([]domain.ArticleCost, error)
	CountTypeSince(ctx context.Context, t domain.CostType, since time.Time) (int, error)
}

// LogStore is the persistent log sink behind the slog handler.
type LogStore interface {
	Append(ctx context.Context, entry domain.LogEntry) error
	Latest(ctx context.Context, limit int) ([]domain.LogEntry, error)
	Prune(ctx context.Context, keep int) error
}

// StateStore holds small cross-run counters, currently the author rotation
// index.
type StateStore interface {
	RotationIndex(ctx context.Context) (int, error)
	SetRotationIndex(ctx context.Context, index int) error
}

// ArticleStore creates and reads published articles.
type ArticleStore interface {
	Create(ctx context.Context, article domain.NewArticle) (int64, error)
	URL(ctx context.Context, articleID int64) (string, error)
	AttachImage(ctx context.Context, articleID, mediaID int64) error
	ResolveCategory(ctx context.Context, name string) (int64, error)
	RecentByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.StoredArticle, error)
	Published(ctx context.Context) ([]domain.StoredArticle, error)
	Shared(ctx context.Context, articleID int64) (bool, error)
	SetShared(ctx context.Context, articleID int64, postID string) error
}

// MediaUpload describes an image handed to the media store.
type MediaUpload struct {
	SourceURL string
	Filename  string
	Title     string
	Alt       string
	Caption   string
}

// MediaStore downloads and keeps generated images, returning a handle.
type MediaStore interface {
	Upload(ctx context.Context, upload MediaUpload) (int64, error)
	FileURL(ctx context.Context, mediaID int64) (string, error)
}

// ChatRequest is one chat-completion call.
type ChatRequest struct {
	Model        string
	Temperature  float64
	System       string
	User         string
	JSONResponse bool
	Timeout      time.Duration
}

// ChatResult is the completion text plus provider usage metadata.
type ChatResult struct {
	Text  string
	Usage domain.TokenUsage
	Raw   []byte
}

// ChatClient talks to an LLM chat-completion API. Failures are returned as
// domain.StageError values; there is no automatic retry.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResult, error)
}

// ImageJob is one submission to the queue-based image service.
type ImageJob struct {
	Prompt          string
	ReferenceURLs   []string
	EnableWebSearch bool
}

// ImageQueueClient implements the submit/poll/fetch protocol of a queue-based
// image generation service.
type ImageQueueClient interface {
	Submit(ctx context.Context, model string, job ImageJob) (string, error)
	Status(ctx context.Context, model, requestID string) (string, error)
	Result(ctx context.Context, model, requestID string) (string, error)
}

// SocialClient posts to the social platform page.
type SocialClient interface {
	PostLink(ctx context.Context, message, link string) (string, error)
	PostPhoto(ctx context.Context, message, photoURL string) (string, error)
}
