package domain

import "time"

// CostType labels what a ledger entry was billed for.
type CostType string

const (
	CostText          CostType = "text"
	CostFeaturedImage CostType = "featured_image"
	CostInlineImage   CostType = "inline_image"
	CostStyleAnalysis CostType = "style_analysis"
	CostSocialPoster  CostType = "social_poster"
)

// CostEntry is one append-only row in the cost ledger. ArticleID is nil until
// publish completes and is back-filled afterwards.
type CostEntry struct {
	ID        int64
	ArticleID *int64
	Type      CostType
	Model     string
	TokensIn  int
	TokensOut int
	CostUSD   *float64
	CreatedAt time.Time
}

// CostSummary aggregates the ledger over standard time windows.
type CostSummary struct {
	CostToday      float64
	Cost7d         float64
	Cost30d        float64
	CostTotal      float64
	AvgPerArticle  float64
	ArticleCount   int
	TokensInTotal  int
	TokensOutTotal int
}

// ArticleCost is the per-article aggregation returned by the ledger.
type ArticleCost struct {
	ArticleID int64
	TokensIn  int
	TokensOut int
	CostUSD   float64
	Types     []string
	CreatedAt time.Time
}
