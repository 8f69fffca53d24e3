package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// CostRepo stores the append-only cost ledger in Postgres.
type CostRepo struct {
	pool *pgxpool.Pool
}

var _ ports.CostStore = (*CostRepo)(nil)

// NewCostRepo wires the repository.
func NewCostRepo(pool *pgxpool.Pool) *CostRepo {
	return &CostRepo{pool: pool}
}

// Insert appends one entry and returns its id.
func (r *CostRepo) Insert(ctx context.Context, entry domain.CostEntry) (int64, error) {
	query, args, err := builder.
		Insert("cost_entries").
		Columns("article_id", "cost_type", "model", "tokens_in", "tokens_out", "cost_usd", "created_at").
		Values(entry.ArticleID, entry.Type, entry.Model, entry.TokensIn, entry.TokensOut, entry.CostUSD, entry.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cost insert: %w", err)
	}

	var id int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert cost entry: %w", err)
	}
	return id, nil
}

// AttachArticle back-fills the article id on entries created before publish.
func (r *CostRepo) AttachArticle(ctx context.Context, entryIDs []int64, articleID int64) error {
	query, args, err := builder.
		Update("cost_entries").
		Set("article_id", articleID).
		Where(sq.Eq{"id": entryIDs}).
		Where("article_id IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build cost update: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("attach article to cost entries: %w", err)
	}
	return nil
}

const summaryQuery = `
SELECT
	COALESCE(SUM(cost_usd) FILTER (WHERE created_at >= $1), 0),
	COALESCE(SUM(cost_usd) FILTER (WHERE created_at >= $2), 0),
	COALESCE(SUM(cost_usd) FILTER (WHERE created_at >= $3), 0),
	COALESCE(SUM(cost_usd), 0),
	COALESCE(SUM(tokens_in), 0),
	COALESCE(SUM(tokens_out), 0),
	COUNT(DISTINCT article_id) FILTER (WHERE article_id IS NOT NULL)
FROM cost_entries`

// Summary aggregates spending over today / 7d / 30d / total windows.
func (r *CostRepo) Summary(ctx context.Context, now time.Time) (domain.CostSummary, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var s domain.CostSummary
	err := r.pool.QueryRow(ctx, summaryQuery,
		midnight, now.AddDate(0, 0, -7), now.AddDate(0, 0, -30),
	).Scan(&s.CostToday, &s.Cost7d, &s.Cost30d, &s.CostTotal,
		&s.TokensInTotal, &s.TokensOutTotal, &s.ArticleCount)
	if err != nil {
		return domain.CostSummary{}, fmt.Errorf("query cost summary: %w", err)
	}
	return s, nil
}

// PerArticle aggregates entries per published article, most recent first.
func (r *CostRepo) PerArticle(ctx context.Context, limit int) ([]domain.ArticleCost, error) {
	query, args, err := builder.
		Select(
			"article_id",
			"COALESCE(SUM(tokens_in), 0)",
			"COALESCE(SUM(tokens_out), 0)",
			"COALESCE(SUM(cost_usd), 0)",
			"ARRAY_AGG(DISTINCT cost_type)",
			"MAX(created_at)",
		).
		From("cost_entries").
		Where("article_id IS NOT NULL").
		GroupBy("article_id").
		OrderBy("MAX(created_at) DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build per-article query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query per-article costs: %w", err)
	}
	defer rows.Close()

	var result []domain.ArticleCost
	for rows.Next() {
		var row domain.ArticleCost
		if err := rows.Scan(&row.ArticleID, &row.TokensIn, &row.TokensOut, &row.CostUSD, &row.Types, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan per-article cost: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// CountTypeSince counts entries of one type created after the cutoff.
func (r *CostRepo) CountTypeSince(ctx context.Context, t domain.CostType, since time.Time) (int, error) {
	query, args, err := builder.
		Select("COUNT(*)").
		From("cost_entries").
		Where(sq.Eq{"cost_type": t}).
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build type count: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cost entries: %w", err)
	}
	return count, nil
}
