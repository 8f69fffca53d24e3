package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"autopilot/internal/config"
	"autopilot/internal/domain"
	"autopilot/internal/links"
	"autopilot/internal/ports"
)

const (
	generateTimeout = 120 * time.Second
	sideTextTimeout = 60 * time.Second

	styleSampleLimit = 2000
	styleTemperature = 0.3
	socialTemperature = 0.8
)

// Generator drafts articles through the chat-completion provider. All
// failures are typed and non-retrying.
type Generator struct {
	chat     ports.ChatClient
	articles ports.ArticleStore
	cfg      config.WriterConfig
	logger   *slog.Logger
}

// NewGenerator wires the content generator.
func NewGenerator(chat ports.ChatClient, articles ports.ArticleStore, cfg config.WriterConfig, logger *slog.Logger) *Generator {
	return &Generator{chat: chat, articles: articles, cfg: cfg, logger: logger}
}

// Generate drafts one article for the feed item, weaving in the related
// links. authorStyle, when non-empty, overrides the configured global style.
func (g *Generator) Generate(ctx context.Context, item domain.FeedItem, related []domain.RelatedLink, authorStyle string) (domain.Draft, error) {
	if g.cfg.APIKey == "" {
		return domain.Draft{}, domain.Stagef("writer", domain.ErrConfig, "chat provider api key is missing")
	}

	model := g.cfg.ActiveModel()
	result, err := g.chat.Complete(ctx, ports.ChatRequest{
		Model:        model,
		Temperature:  g.cfg.Temperature,
		System:       buildSystemPrompt(g.cfg, authorStyle),
		User:         buildUserPrompt(g.cfg, item, related),
		JSONResponse: true,
		Timeout:      generateTimeout,
	})
	if err != nil {
		return domain.Draft{}, err
	}
	if strings.TrimSpace(result.Text) == "" {
		return domain.Draft{}, domain.Stagef("writer", domain.ErrParse, "empty completion")
	}

	var draft domain.Draft
	if err := json.Unmarshal([]byte(result.Text), &draft); err != nil {
		g.logger.Error("draft response is not valid JSON", "error", err, "raw", result.Text)
		return domain.Draft{}, domain.StageFailure("writer", domain.ErrParse, err)
	}
	if draft.Title == "" || draft.Content == "" {
		g.logger.Error("draft response missing title or content", "raw", result.Text)
		return domain.Draft{}, domain.Stagef("writer", domain.ErrParse, "draft missing title or content")
	}

	draft.Content = Sanitize(CleanContent(draft.Content))
	draft.Model = model
	draft.Usage = result.Usage
	draft.Raw = json.RawMessage(result.Raw)

	g.logger.Info("article drafted", "title", draft.Title, "model", model,
		"tokens_in", draft.Usage.PromptTokens, "tokens_out", draft.Usage.CompletionTokens)

	return draft, nil
}

// StyleResult is the outcome of a style analysis call.
type StyleResult struct {
	Style string
	Model string
	Usage domain.TokenUsage
}

// AnalyzeStyle samples an author's most recent published articles and asks
// the model for a concise prose description of tone, cadence, vocabulary and
// voice. The result is plain text, not JSON.
func (g *Generator) AnalyzeStyle(ctx context.Context, authorID int64, numPosts int) (StyleResult, error) {
	if g.cfg.APIKey == "" {
		return StyleResult{}, domain.Stagef("style", domain.ErrConfig, "chat provider api key is missing")
	}
	if numPosts <= 0 {
		numPosts = 5
	}

	posts, err := g.articles.RecentByAuthor(ctx, authorID, numPosts)
	if err != nil {
		return StyleResult{}, fmt.Errorf("load author posts: %w", err)
	}
	if len(posts) == 0 {
		return StyleResult{}, domain.Stagef("style", domain.ErrConfig, "no published articles for author %d", authorID)
	}

	samples := make([]string, 0, len(posts))
	for _, post := range posts {
		text := links.StripTags(post.Content)
		if runes := []rune(text); len(runes) > styleSampleLimit {
			text = string(runes[:styleSampleLimit])
		}
		samples = append(samples, fmt.Sprintf("--- Article: %q ---\n%s", post.Title, text))
	}

	model := g.cfg.ActiveModel()
	system := fmt.Sprintf("You are an expert in writing-style analysis. Analyze the texts and describe the writing style briefly and precisely in %s. Focus on: tone, sentence length, word choice, rhetorical devices, perspective, and overall voice. The answer must be usable as an instruction for an AI to imitate the style.", g.cfg.Language)
	user := fmt.Sprintf("Analyze the writing style in these articles:\n\n%s\n\nGive a short and precise description of the writing style.", strings.Join(samples, "\n\n"))

	result, err := g.chat.Complete(ctx, ports.ChatRequest{
		Model:       model,
		Temperature: styleTemperature,
		System:      system,
		User:        user,
		Timeout:     sideTextTimeout,
	})
	if err != nil {
		return StyleResult{}, err
	}

	style := strings.TrimSpace(result.Text)
	if style == "" {
		return StyleResult{}, domain.Stagef("style", domain.ErrParse, "empty completion")
	}

	return StyleResult{Style: style, Model: model, Usage: result.Usage}, nil
}

// SocialText writes a short engagement text for a social post about the
// article. The link is appended by the caller, never embedded.
func (g *Generator) SocialText(ctx context.Context, title, excerpt, link string) (string, domain.TokenUsage, string, error) {
	if g.cfg.APIKey == "" {
		return "", domain.TokenUsage{}, "", domain.Stagef("social-text", domain.ErrConfig, "chat provider api key is missing")
	}

	model := g.cfg.ActiveModel()
	system := fmt.Sprintf("You are a social media expert. Write a short, engaging Facebook post in %s that makes people click the link. Maximum 2-3 sentences. No hashtags. Do not include the link in the text; it is added automatically.", g.cfg.Language)
	user := fmt.Sprintf("Write a Facebook post for this article:\n\nTitle: %s\nSummary: %s\nLink: %s", title, excerpt, link)

	result, err := g.chat.Complete(ctx, ports.ChatRequest{
		Model:       model,
		Temperature: socialTemperature,
		System:      system,
		User:        user,
		Timeout:     sideTextTimeout,
	})
	if err != nil {
		return "", domain.TokenUsage{}, model, err
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", result.Usage, model, domain.Stagef("social-text", domain.ErrParse, "empty completion")
	}
	return text, result.Usage, model, nil
}
