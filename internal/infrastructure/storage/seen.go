package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// SeenRepo stores processed item fingerprints in Postgres.
type SeenRepo struct {
	pool *pgxpool.Pool
}

var _ ports.SeenStore = (*SeenRepo)(nil)

// NewSeenRepo wires the repository.
func NewSeenRepo(pool *pgxpool.Pool) *SeenRepo {
	return &SeenRepo{pool: pool}
}

// Has reports whether the fingerprint was processed before.
func (r *SeenRepo) Has(ctx context.Context, fingerprint string) (bool, error) {
	query, args, err := builder.
		Select("1").
		From("seen_items").
		Where(sq.Eq{"fingerprint": fingerprint}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build seen query: %w", err)
	}

	var one int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen item: %w", err)
	}
	return true, nil
}

// Mark records the fingerprint; duplicates are ignored.
func (r *SeenRepo) Mark(ctx context.Context, rec domain.SeenRecord) error {
	query, args, err := builder.
		Insert("seen_items").
		Columns("fingerprint", "title", "url", "article_id").
		Values(rec.Fingerprint, rec.Title, rec.URL, rec.ArticleID).
		Suffix("ON CONFLICT (fingerprint) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build seen insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert seen item: %w", err)
	}
	return nil
}

// PublishedSince counts items that became articles after the cutoff.
func (r *SeenRepo) PublishedSince(ctx context.Context, since time.Time) (int, error) {
	query, args, err := builder.
		Select("COUNT(*)").
		From("seen_items").
		Where(sq.GtOrEq{"created_at": since}).
		Where("article_id IS NOT NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build published count: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count published items: %w", err)
	}
	return count, nil
}
