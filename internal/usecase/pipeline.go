package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"autopilot/internal/authors"
	"autopilot/internal/config"
	"autopilot/internal/costs"
	"autopilot/internal/domain"
	"autopilot/internal/feed"
	"autopilot/internal/imagegen"
	"autopilot/internal/links"
	"autopilot/internal/ports"
	"autopilot/internal/schedule"
	"autopilot/internal/social"
	"autopilot/internal/writer"
)

// PipelineDeps wires all collaborators into the run orchestrator.
type PipelineDeps struct {
	Config   config.Config
	Source   ports.FeedSource
	Seen     ports.SeenStore
	State    ports.StateStore
	Articles ports.ArticleStore
	Media    ports.MediaStore
	Index    *links.Index
	Rotator  *authors.Rotator
	Writer   *writer.Generator
	Images   *imagegen.Generator
	Sharer   *social.Sharer
	Ledger   *costs.Ledger
	Spreader *schedule.Spreader
	Logger   *slog.Logger
}

// Pipeline executes one automation run: fetch, dedupe, filter, then draft,
// illustrate, schedule and publish each surviving item. Per-item failures are
// absorbed and logged; the run result is the number of published articles.
type Pipeline struct {
	cfg      config.Config
	source   ports.FeedSource
	seen     ports.SeenStore
	state    ports.StateStore
	articles ports.ArticleStore
	media    ports.MediaStore
	index    *links.Index
	rotator  *authors.Rotator
	writer   *writer.Generator
	images   *imagegen.Generator
	sharer   *social.Sharer
	ledger   *costs.Ledger
	spreader *schedule.Spreader
	logger   *slog.Logger

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		cfg:      deps.Config,
		source:   deps.Source,
		seen:     deps.Seen,
		state:    deps.State,
		articles: deps.Articles,
		media:    deps.Media,
		index:    deps.Index,
		rotator:  deps.Rotator,
		writer:   deps.Writer,
		images:   deps.Images,
		sharer:   deps.Sharer,
		ledger:   deps.Ledger,
		spreader: deps.Spreader,
		logger:   deps.Logger,
		now:      time.Now,
		shuffle:  rand.Shuffle,
	}
}

// Run executes one pipeline pass. force bypasses the enabled, work-hours and
// up-front daily-ceiling gates (the per-item ceiling still applies).
func (p *Pipeline) Run(ctx context.Context, force bool) (int, error) {
	now := p.now().In(p.cfg.Automation.Location())

	if !force {
		if !p.cfg.Automation.Enabled {
			p.logger.Info("automation disabled, skipping run")
			return 0, nil
		}
		if !schedule.WithinWorkHours(p.cfg.Automation.WorkHours, now) {
			p.logger.Info("outside work hours, skipping run")
			return 0, nil
		}
		count, err := p.publishedToday(ctx, now)
		if err != nil {
			return 0, err
		}
		if count >= p.cfg.Automation.MaxPerDay {
			p.logger.Info("daily limit reached, skipping run", "count", count)
			return 0, nil
		}
	}

	p.logger.Info("autopilot run started")

	items, err := p.collectItems(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		p.logger.Info("no new items to process")
		return 0, nil
	}

	scheduleTimes := p.spreader.Times(len(items), p.cfg.Automation.IntervalDuration(), now)

	rotationIndex, err := p.state.RotationIndex(ctx)
	if err != nil {
		p.logger.Warn("could not load rotation index, starting at zero", "error", err)
		rotationIndex = 0
	}

	published := 0
	postersThisRun := 0
	for i, item := range items {
		// Non-strict bound: re-checked per item but not atomic with the
		// eventual insert, so concurrent runs may slightly overshoot.
		count, err := p.publishedToday(ctx, now)
		if err != nil {
			return published, err
		}
		if count >= p.cfg.Automation.MaxPerDay {
			p.logger.Info("daily limit reached mid-run", "published", published)
			break
		}

		var authorID int64
		authorID, rotationIndex = p.rotator.Resolve(p.cfg.Authors.Method, rotationIndex)
		if err := p.state.SetRotationIndex(ctx, rotationIndex); err != nil {
			p.logger.Warn("could not persist rotation index", "error", err)
		}

		hadPoster := p.processItem(ctx, item, authorID, scheduleTimes[i], &published, postersThisRun)
		if hadPoster {
			postersThisRun++
		}
	}

	p.logger.Info("autopilot run finished", "published", published)
	return published, nil
}

// collectItems fetches all feeds and applies the age, dedupe and keyword
// gates, then shuffles and truncates to the per-run budget.
func (p *Pipeline) collectItems(ctx context.Context, now time.Time) ([]domain.FeedItem, error) {
	fetched, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feeds: %w", err)
	}

	filter := feed.NewKeywordFilter(p.cfg.Keywords.Include, p.cfg.Keywords.Exclude)

	var items []domain.FeedItem
	for _, item := range fetched {
		if !feed.FreshEnough(item, now) {
			continue
		}
		seen, err := p.seen.Has(ctx, item.Fingerprint)
		if err != nil {
			p.logger.Warn("dedupe check failed, skipping item", "url", item.URL, "error", err)
			continue
		}
		if seen {
			continue
		}
		if !filter.PassItem(item) {
			continue
		}
		items = append(items, item)
	}

	p.shuffle(len(items), func(a, b int) {
		items[a], items[b] = items[b], items[a]
	})
	if len(items) > p.cfg.Automation.MaxPerRun {
		items = items[:p.cfg.Automation.MaxPerRun]
	}

	p.logger.Info("feed collection finished", "new_items", len(items))
	return items, nil
}

// processItem drafts, illustrates and publishes a single item. It reports
// whether a social poster was generated; all failures are absorbed.
func (p *Pipeline) processItem(ctx context.Context, item domain.FeedItem, authorID int64, scheduledAt *time.Time, published *int, postersThisRun int) bool {
	related, err := p.index.FindRelated(ctx, item.Title, item.Description, links.DefaultRelatedLimit)
	if err != nil {
		p.logger.Warn("related-link scoring failed", "title", item.Title, "error", err)
	}

	draft, err := p.writer.Generate(ctx, item, related, p.cfg.Authors.Styles[authorID])
	if err != nil {
		p.logger.Warn("could not draft article", "title", item.Title, "error", err)
		return false
	}

	var pendingCosts []int64
	if id, err := p.ledger.RecordText(ctx, nil, domain.CostText, draft.Model, draft.Usage); err != nil {
		p.logger.Warn("could not record text cost", "error", err)
	} else {
		pendingCosts = append(pendingCosts, id)
	}

	var featuredID int64
	if p.cfg.Images.Enabled && draft.ImagePrompt != "" {
		featuredID, err = p.images.Generate(ctx, draft.ImagePrompt, draft.Title, draft.ImageAlt, draft.ImageCaption)
		if err != nil {
			// Non-fatal: publish proceeds without a featured image.
			p.logger.Warn("featured image failed", "title", draft.Title, "error", err)
			featuredID = 0
		} else if id, err := p.ledger.RecordImage(ctx, nil, domain.CostFeaturedImage, p.cfg.Images.Model); err == nil {
			pendingCosts = append(pendingCosts, id)
		}
	}

	if p.cfg.Writer.InlineImages.Enabled {
		draft.Content = p.embedInlineImages(ctx, &draft, &pendingCosts)
	}

	articleID, err := p.publish(ctx, draft, item, authorID, featuredID, scheduledAt)
	if err != nil {
		p.logger.Error("could not publish article", "title", draft.Title, "error", err)
		return false
	}

	if err := p.ledger.AttachArticle(ctx, pendingCosts, articleID); err != nil {
		p.logger.Warn("could not back-fill cost entries", "article_id", articleID, "error", err)
	}

	*published++

	if p.sharer != nil {
		hadPoster, err := p.sharer.Share(ctx, articleID, draft, authorID, postersThisRun)
		if err != nil {
			p.logger.Warn("social share failed", "article_id", articleID, "error", err)
		}
		return hadPoster
	}
	return false
}

// embedInlineImages generates one image per directive and splices it in at
// the marker. A failed directive's marker is stripped rather than left as a
// visible placeholder.
func (p *Pipeline) embedInlineImages(ctx context.Context, draft *domain.Draft, pendingCosts *[]int64) string {
	content := draft.Content
	for i, directive := range draft.InlineImages {
		if directive.Marker == "" || !strings.Contains(content, directive.Marker) {
			continue
		}

		mediaID, model, err := p.images.GenerateInline(ctx, directive.Prompt, directive.Alt, directive.Caption, draft.Title, i+1)
		if err != nil {
			p.logger.Warn("inline image failed, stripping marker", "marker", directive.Marker, "error", err)
			content = strings.Replace(content, directive.Marker, "", 1)
			continue
		}

		if id, err := p.ledger.RecordImage(ctx, nil, domain.CostInlineImage, model); err == nil {
			*pendingCosts = append(*pendingCosts, id)
		}

		imageURL, err := p.media.FileURL(ctx, mediaID)
		if err != nil {
			p.logger.Warn("inline image url lookup failed, stripping marker", "media_id", mediaID, "error", err)
			content = strings.Replace(content, directive.Marker, "", 1)
			continue
		}

		figure := inlineFigure(imageURL, directive.Alt, directive.Caption)
		content = strings.Replace(content, directive.Marker, figure, 1)
	}
	return content
}

// publish persists the article, attaches the featured image, marks the item
// seen and feeds the relevance index.
func (p *Pipeline) publish(ctx context.Context, draft domain.Draft, item domain.FeedItem, authorID, featuredID int64, scheduledAt *time.Time) (int64, error) {
	status := p.cfg.Publish.Status
	article := domain.NewArticle{
		Title:      draft.Title,
		Content:    draft.Content,
		Excerpt:    draft.Excerpt,
		Status:     status,
		AuthorID:   authorID,
		CategoryID: p.resolveCategory(ctx, draft.CategoryHint),
	}
	if scheduledAt != nil && status == "publish" {
		article.Status = "future"
		article.ScheduledAt = scheduledAt
	}

	articleID, err := p.articles.Create(ctx, article)
	if err != nil {
		return 0, fmt.Errorf("create article: %w", err)
	}

	if featuredID != 0 {
		if err := p.articles.AttachImage(ctx, articleID, featuredID); err != nil {
			p.logger.Warn("could not attach featured image", "article_id", articleID, "error", err)
		}
	}

	if err := p.seen.Mark(ctx, domain.SeenRecord{
		Fingerprint: item.Fingerprint,
		Title:       item.Title,
		URL:         item.URL,
		ArticleID:   &articleID,
	}); err != nil {
		p.logger.Warn("could not mark item seen", "url", item.URL, "error", err)
	}

	articleURL, err := p.articles.URL(ctx, articleID)
	if err != nil {
		p.logger.Warn("could not resolve article url for index", "article_id", articleID, "error", err)
	}
	if err := p.index.Add(ctx, articleID, draft.Title, articleURL, draft.Content); err != nil {
		p.logger.Warn("could not index article", "article_id", articleID, "error", err)
	}

	p.logger.Info("article created", "article_id", articleID, "title", draft.Title,
		"status", article.Status, "scheduled", scheduledAt != nil)
	return articleID, nil
}

func (p *Pipeline) resolveCategory(ctx context.Context, hint string) int64 {
	if strings.TrimSpace(hint) == "" {
		return p.cfg.Publish.DefaultCategory
	}
	id, err := p.articles.ResolveCategory(ctx, strings.TrimSpace(hint))
	if err != nil {
		p.logger.Warn("could not resolve category, using default", "hint", hint, "error", err)
		return p.cfg.Publish.DefaultCategory
	}
	return id
}

func (p *Pipeline) publishedToday(ctx context.Context, now time.Time) (int, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := p.seen.PublishedSince(ctx, midnight)
	if err != nil {
		return 0, fmt.Errorf("count published today: %w", err)
	}
	return count, nil
}

func inlineFigure(url, alt, caption string) string {
	if caption == "" {
		return fmt.Sprintf(`<figure class="ap-inline-image"><img src="%s" alt="%s"/></figure>`, url, alt)
	}
	return fmt.Sprintf(`<figure class="ap-inline-image"><img src="%s" alt="%s"/><figcaption>%s</figcaption></figure>`, url, alt, caption)
}
