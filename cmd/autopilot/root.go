package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"autopilot/internal/app"
	"autopilot/internal/config"
	"autopilot/internal/domain"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "autopilot",
		Short:         "Feed-driven content automation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newStyleCmd(),
		newCostsCmd(),
		newLogsCmd(),
		newSyncIndexCmd(),
	)
	return root
}

// withApp loads configuration, builds the application and tears it down after
// the command body returns.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

func newRunCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				published, err := a.Pipeline.Run(ctx, force)
				if err != nil {
					return err
				}
				fmt.Printf("published %d article(s)\n", published)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "bypass the enabled, work-hours and daily-limit gates")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on its configured interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				a.Runner.Start(ctx)
				return nil
			})
		},
	}
}

func newStyleCmd() *cobra.Command {
	var (
		authorID int64
		posts    int
	)

	cmd := &cobra.Command{
		Use:   "style",
		Short: "Analyze an author's writing style from their published articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				result, err := a.Writer.AnalyzeStyle(ctx, authorID, posts)
				if err != nil {
					return err
				}

				if _, err := a.Ledger.RecordText(ctx, nil, domain.CostStyleAnalysis, result.Model, result.Usage); err != nil {
					a.Logger.Warn("could not record style analysis cost", "error", err)
				}

				color.New(color.Bold).Printf("Style for author %d (model %s):\n\n", authorID, result.Model)
				fmt.Println(result.Style)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&authorID, "author", 0, "author id to analyze")
	cmd.Flags().IntVar(&posts, "posts", 5, "number of recent articles to sample")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newCostsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show spending summary and recent per-article costs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				summary, err := a.Ledger.Summary(ctx)
				if err != nil {
					return err
				}

				bold := color.New(color.Bold)
				bold.Println("Spending")
				fmt.Printf("  today:  $%.4f\n", summary.CostToday)
				fmt.Printf("  7 days: $%.4f\n", summary.Cost7d)
				fmt.Printf("  30 days: $%.4f\n", summary.Cost30d)
				fmt.Printf("  total:  $%.4f over %d article(s), avg $%.4f\n",
					summary.CostTotal, summary.ArticleCount, summary.AvgPerArticle)
				fmt.Printf("  tokens: %d in / %d out\n", summary.TokensInTotal, summary.TokensOutTotal)

				rows, err := a.Ledger.PerArticle(ctx, limit)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					return nil
				}

				bold.Println("\nRecent articles")
				for _, row := range rows {
					fmt.Printf("  #%-6d $%.4f  %6d/%6d tokens  %s\n",
						row.ArticleID, row.CostUSD, row.TokensIn, row.TokensOut,
						strings.Join(row.Types, ","))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent articles to list")
	return cmd
}

func newLogsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent pipeline log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				entries, err := a.Logs.Latest(ctx, limit)
				if err != nil {
					return err
				}

				for _, entry := range entries {
					line := fmt.Sprintf("%s [%s] %s", entry.CreatedAt.Format("2006-01-02 15:04:05"),
						entry.Level, entry.Message)
					switch entry.Level {
					case "error":
						color.Red(line)
					case "warning":
						color.Yellow(line)
					default:
						fmt.Println(line)
					}
					if entry.Context != "" {
						fmt.Printf("    %s\n", entry.Context)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of entries to show")
	return cmd
}

func newSyncIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-index",
		Short: "Rebuild the internal-link keyword index from published articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				articles, err := a.Articles.Published(ctx)
				if err != nil {
					return err
				}

				for _, article := range articles {
					if err := a.Index.Add(ctx, article.ID, article.Title, article.URL, article.Content); err != nil {
						return err
					}
				}
				fmt.Printf("indexed %d article(s)\n", len(articles))
				return nil
			})
		},
	}
}
