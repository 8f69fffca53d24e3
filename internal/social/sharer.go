package social

import (
	"context"
	"fmt"
	"log/slog"

	"autopilot/internal/config"
	"autopilot/internal/costs"
	"autopilot/internal/domain"
	"autopilot/internal/imagegen"
	"autopilot/internal/ports"
	"autopilot/internal/writer"
)

// Poster models: plain generation, and an edit variant that accepts
// reference images.
const (
	posterModel     = "fal-ai/nano-banana-pro"
	posterEditModel = "fal-ai/nano-banana-pro/edit"
)

// Sharer posts published articles to the Facebook page, optionally with a
// generated poster image.
type Sharer struct {
	cfg      config.FacebookConfig
	language string
	text     *writer.Generator
	images   *imagegen.Generator
	client   ports.SocialClient
	articles ports.ArticleStore
	media    ports.MediaStore
	ledger   *costs.Ledger
	logger   *slog.Logger
}

// NewSharer wires the social sharer.
func NewSharer(cfg config.FacebookConfig, language string, text *writer.Generator, images *imagegen.Generator, client ports.SocialClient, articles ports.ArticleStore, media ports.MediaStore, ledger *costs.Ledger, logger *slog.Logger) *Sharer {
	return &Sharer{
		cfg:      cfg,
		language: language,
		text:     text,
		images:   images,
		client:   client,
		articles: articles,
		media:    media,
		ledger:   ledger,
		logger:   logger,
	}
}

// Share posts one article. It returns whether a poster was generated so the
// orchestrator can enforce the per-run poster ceiling. Sharing failures are
// logged, never fatal.
func (s *Sharer) Share(ctx context.Context, articleID int64, draft domain.Draft, authorID int64, postersThisRun int) (bool, error) {
	if !s.cfg.Enabled {
		return false, nil
	}
	if s.cfg.PageID == "" || s.cfg.AccessToken == "" {
		s.logger.Warn("facebook sharing: missing page id or access token")
		return false, nil
	}

	shared, err := s.articles.Shared(ctx, articleID)
	if err != nil {
		return false, fmt.Errorf("check shared flag: %w", err)
	}
	if shared {
		s.logger.Info("facebook sharing: article already shared", "article_id", articleID)
		return false, nil
	}

	link, err := s.articles.URL(ctx, articleID)
	if err != nil {
		return false, fmt.Errorf("resolve article url: %w", err)
	}

	var (
		postID    string
		hadPoster bool
	)

	switch {
	case s.cfg.ImageMode == "generated_poster" && s.posterEligible(ctx, authorID, postersThisRun):
		message := s.postText(ctx, articleID, draft, link)
		photoURL, ok := s.makePoster(ctx, articleID, draft, authorID)
		if ok {
			postID, err = s.client.PostPhoto(ctx, message+"\n\n"+link, photoURL)
			hadPoster = true
		} else {
			s.logger.Warn("facebook sharing: poster generation failed, falling back to link post")
			postID, err = s.client.PostLink(ctx, message, link)
		}

	case s.cfg.ImageMode == "generated_poster":
		postID, err = s.shareWithoutPoster(ctx, articleID, draft, link)
		if err == nil && postID == "" {
			// skip mode
			return false, nil
		}

	default:
		message := s.postText(ctx, articleID, draft, link)
		postID, err = s.client.PostLink(ctx, message, link)
	}

	if err != nil {
		s.logger.Error("facebook sharing failed", "article_id", articleID, "error", err)
		return hadPoster, err
	}

	if err := s.articles.SetShared(ctx, articleID, postID); err != nil {
		return hadPoster, fmt.Errorf("mark article shared: %w", err)
	}
	s.logger.Info("article shared", "article_id", articleID, "post_id", postID, "had_poster", hadPoster)
	return hadPoster, nil
}

// shareWithoutPoster handles the configured fallback when a poster is not
// eligible. An empty post id with nil error means the article was skipped.
func (s *Sharer) shareWithoutPoster(ctx context.Context, articleID int64, draft domain.Draft, link string) (string, error) {
	switch s.cfg.NoPosterMode {
	case "excerpt":
		return s.client.PostLink(ctx, fallbackText(draft), link)
	case "skip":
		s.logger.Info("facebook sharing: skipping article, poster not eligible", "article_id", articleID)
		return "", nil
	default: // ai_text
		return s.client.PostLink(ctx, s.postText(ctx, articleID, draft, link), link)
	}
}

// posterEligible checks the author whitelist and the per-run and daily
// poster ceilings.
func (s *Sharer) posterEligible(ctx context.Context, authorID int64, postersThisRun int) bool {
	if len(s.cfg.PosterAuthors) > 0 {
		allowed := false
		for _, id := range s.cfg.PosterAuthors {
			if id == authorID {
				allowed = true
				break
			}
		}
		if !allowed {
			s.logger.Info("facebook poster: author not in poster list", "author_id", authorID)
			return false
		}
	}

	if s.cfg.PosterPerRun > 0 && postersThisRun >= s.cfg.PosterPerRun {
		s.logger.Info("facebook poster: per-run limit reached", "limit", s.cfg.PosterPerRun)
		return false
	}

	if s.cfg.PosterDailyLimit > 0 {
		count, err := s.ledger.PostersToday(ctx)
		if err != nil {
			s.logger.Warn("facebook poster: could not count today's posters", "error", err)
			return false
		}
		if count >= s.cfg.PosterDailyLimit {
			s.logger.Info("facebook poster: daily limit reached", "limit", s.cfg.PosterDailyLimit)
			return false
		}
	}

	return true
}

// postText asks the writer for engagement text, falling back to the excerpt
// on any failure. Successful generations are billed to the article.
func (s *Sharer) postText(ctx context.Context, articleID int64, draft domain.Draft, link string) string {
	text, usage, model, err := s.text.SocialText(ctx, draft.Title, draft.Excerpt, link)
	if err != nil {
		s.logger.Warn("facebook sharing: text generation failed, using excerpt", "error", err)
		return fallbackText(draft)
	}

	if _, err := s.ledger.RecordText(ctx, &articleID, domain.CostText, model, usage); err != nil {
		s.logger.Warn("facebook sharing: could not record text cost", "error", err)
	}
	return text
}

// makePoster generates the sharing poster and resolves its public URL. The
// model and prompt vary with the available reference images.
func (s *Sharer) makePoster(ctx context.Context, articleID int64, draft domain.Draft, authorID int64) (string, bool) {
	var refs []string
	authorPhoto := s.cfg.AuthorPhotos[authorID]
	if authorPhoto != "" {
		refs = append(refs, authorPhoto)
	}
	if s.cfg.LogoURL != "" {
		refs = append(refs, s.cfg.LogoURL)
	}

	model := posterModel
	var prompt string
	switch {
	case authorPhoto != "" && s.cfg.LogoURL != "":
		model = posterEditModel
		prompt = posterPromptAuthorLogo(draft.Title, draft.Excerpt, s.language)
	case s.cfg.LogoURL != "":
		model = posterEditModel
		prompt = posterPromptLogoOnly(draft.Title, draft.Excerpt, s.language)
	default:
		prompt = posterPromptPlain(draft.Title, draft.Excerpt, s.language)
	}

	mediaID, err := s.images.GeneratePoster(ctx, model, ports.ImageJob{
		Prompt:          prompt,
		ReferenceURLs:   refs,
		EnableWebSearch: true,
	}, draft.Title)
	if err != nil {
		s.logger.Error("facebook poster generation failed", "article_id", articleID, "error", err)
		return "", false
	}

	photoURL, err := s.media.FileURL(ctx, mediaID)
	if err != nil {
		s.logger.Error("facebook poster: could not resolve media url", "media_id", mediaID, "error", err)
		return "", false
	}

	if _, err := s.ledger.RecordImage(ctx, &articleID, domain.CostSocialPoster, model); err != nil {
		s.logger.Warn("facebook poster: could not record cost", "error", err)
	}
	return photoURL, true
}

func fallbackText(draft domain.Draft) string {
	if draft.Excerpt != "" {
		return draft.Excerpt
	}
	return draft.Title
}
