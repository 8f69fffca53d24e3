package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"autopilot/internal/authors"
	"autopilot/internal/config"
	"autopilot/internal/costs"
	"autopilot/internal/feed"
	"autopilot/internal/imagegen"
	"autopilot/internal/infrastructure/facebook"
	"autopilot/internal/infrastructure/falqueue"
	"autopilot/internal/infrastructure/openrouter"
	"autopilot/internal/infrastructure/storage"
	"autopilot/internal/links"
	"autopilot/internal/logging"
	"autopilot/internal/ports"
	"autopilot/internal/schedule"
	"autopilot/internal/social"
	"autopilot/internal/usecase"
	"autopilot/internal/writer"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	Cfg      config.Config
	Logger   *slog.Logger
	Pipeline *usecase.Pipeline
	Runner   *usecase.Runner
	Writer   *writer.Generator
	Ledger   *costs.Ledger
	Index    *links.Index
	Logs     ports.LogStore
	Articles ports.ArticleStore

	pool *pgxpool.Pool
}

// New connects storage, bootstraps the schema and builds the full pipeline.
func New(ctx context.Context, cfg config.Config) (*Application, error) {
	pool, err := storage.NewPool(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := storage.Bootstrap(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logRepo := storage.NewLogRepo(pool)
	console := logging.New(cfg.Logging.Level)
	logger := slog.New(logging.NewSinkHandler(console.Handler(), logRepo))

	seenRepo := storage.NewSeenRepo(pool)
	linkRepo := storage.NewLinkRepo(pool)
	costRepo := storage.NewCostRepo(pool)
	stateRepo := storage.NewStateRepo(pool)
	articleRepo := storage.NewArticleRepo(pool, cfg.Publish.SiteURL)
	mediaRepo := storage.NewMediaRepo(pool, cfg.Media.Directory, cfg.Publish.SiteURL)

	ledger := costs.NewLedger(costRepo)
	index := links.NewIndex(linkRepo)
	rotator := authors.NewRotator(cfg.Authors.Default, cfg.Authors.Pool)
	spreader := schedule.NewSpreader(cfg.Automation.WorkHours)

	source := feed.NewFetcher(cfg.Feeds, logger.With("component", "feed"))

	chat := openrouter.NewClient(cfg.Writer.Endpoint, cfg.Writer.APIKey)
	textGen := writer.NewGenerator(chat, articleRepo, cfg.Writer, logger.With("component", "writer"))

	queue := falqueue.NewClient(cfg.Images.BaseURL, cfg.Images.APIKey)
	imageGen := imagegen.NewGenerator(queue, mediaRepo, cfg.Images, cfg.Writer.InlineImages,
		logger.With("component", "imagegen"))

	var sharer *social.Sharer
	if cfg.Facebook.Enabled {
		fb := facebook.NewClient(cfg.Facebook.PageID, cfg.Facebook.AccessToken)
		sharer = social.NewSharer(cfg.Facebook, cfg.Writer.Language, textGen, imageGen,
			fb, articleRepo, mediaRepo, ledger, logger.With("component", "social"))
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Config:   cfg,
		Source:   source,
		Seen:     seenRepo,
		State:    stateRepo,
		Articles: articleRepo,
		Media:    mediaRepo,
		Index:    index,
		Rotator:  rotator,
		Writer:   textGen,
		Images:   imageGen,
		Sharer:   sharer,
		Ledger:   ledger,
		Spreader: spreader,
		Logger:   logger.With("component", "pipeline"),
	})
	runner := usecase.NewRunner(pipeline, cfg.Automation.IntervalDuration(),
		logger.With("component", "runner"))

	return &Application{
		Cfg:      cfg,
		Logger:   logger,
		Pipeline: pipeline,
		Runner:   runner,
		Writer:   textGen,
		Ledger:   ledger,
		Index:    index,
		Logs:     logRepo,
		Articles: articleRepo,
		pool:     pool,
	}, nil
}

// Close releases the database pool.
func (a *Application) Close() {
	a.pool.Close()
}
