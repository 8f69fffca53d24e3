package imagegen

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"autopilot/internal/config"
	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// Generator runs the two-phase submit/poll/fetch protocol against the image
// queue and hands finished images to the media store.
type Generator struct {
	queue  ports.ImageQueueClient
	media  ports.MediaStore
	cfg    config.ImageConfig
	inline config.InlineImagesConfig
	poller *Poller
	logger *slog.Logger
}

// NewGenerator wires the image generator.
func NewGenerator(queue ports.ImageQueueClient, media ports.MediaStore, cfg config.ImageConfig, inline config.InlineImagesConfig, logger *slog.Logger) *Generator {
	return &Generator{
		queue:  queue,
		media:  media,
		cfg:    cfg,
		inline: inline,
		poller: NewPoller(),
		logger: logger,
	}
}

// WithPoller overrides the default polling policy.
func (g *Generator) WithPoller(p *Poller) *Generator {
	g.poller = p
	return g
}

// Generate produces the featured image for an article. The returned handle
// identifies the stored media; alt falls back to the title and caption to
// empty.
func (g *Generator) Generate(ctx context.Context, prompt, title, alt, caption string) (int64, error) {
	if g.cfg.APIKey == "" {
		return 0, domain.Stagef("image", domain.ErrConfig, "image provider api key is missing")
	}
	if !g.cfg.Enabled {
		return 0, domain.Stagef("image", domain.ErrConfig, "image generation is disabled")
	}

	model := g.cfg.Model
	mediaID, err := g.run(ctx, "image", model, ports.ImageJob{Prompt: g.styled(prompt)}, title, title, alt, caption)
	if err != nil {
		return 0, err
	}

	g.logger.Info("featured image generated", "media_id", mediaID, "title", title)
	return mediaID, nil
}

// GenerateInline produces one body image for an inline marker, using the
// (typically cheaper) inline model and an index-suffixed filename. The model
// used is returned for cost accounting even on failure.
func (g *Generator) GenerateInline(ctx context.Context, prompt, alt, caption, title string, index int) (int64, string, error) {
	model := g.inline.Model
	if model == "" {
		model = g.cfg.Model
	}
	if g.cfg.APIKey == "" {
		return 0, model, domain.Stagef("inline-image", domain.ErrConfig, "image provider api key is missing")
	}

	filename := fmt.Sprintf("%s-inline-%d", title, index)
	mediaID, err := g.run(ctx, "inline-image", model, ports.ImageJob{Prompt: g.styled(prompt)}, filename, title, alt, caption)
	if err != nil {
		return 0, model, err
	}

	g.logger.Info("inline image generated", "media_id", mediaID, "index", index, "title", title)
	return mediaID, model, nil
}

// GeneratePoster runs the same protocol for a social poster with an
// arbitrary model and job (reference images, web search).
func (g *Generator) GeneratePoster(ctx context.Context, model string, job ports.ImageJob, title string) (int64, error) {
	if g.cfg.APIKey == "" {
		return 0, domain.Stagef("poster", domain.ErrConfig, "image provider api key is missing")
	}
	return g.run(ctx, "poster", model, job, "poster-"+title, title, title, "")
}

func (g *Generator) run(ctx context.Context, stage, model string, job ports.ImageJob, filenameTitle, title, alt, caption string) (int64, error) {
	requestID, err := g.queue.Submit(ctx, model, job)
	if err != nil {
		return 0, err
	}

	err = g.poller.Await(ctx, stage, func(ctx context.Context) (string, error) {
		return g.queue.Status(ctx, model, requestID)
	})
	if err != nil {
		return 0, err
	}

	imageURL, err := g.queue.Result(ctx, model, requestID)
	if err != nil {
		return 0, err
	}

	if alt == "" {
		alt = title
	}
	mediaID, err := g.media.Upload(ctx, ports.MediaUpload{
		SourceURL: imageURL,
		Filename:  Slugify(filenameTitle) + ".png",
		Title:     title,
		Alt:       alt,
		Caption:   caption,
	})
	if err != nil {
		return 0, fmt.Errorf("store image: %w", err)
	}
	return mediaID, nil
}

func (g *Generator) styled(prompt string) string {
	if g.cfg.Style == "" {
		return prompt
	}
	return g.cfg.Style + ": " + prompt
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds a safe filename stem from a title.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
