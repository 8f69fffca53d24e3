package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// LinkRepo stores the per-article keyword index in Postgres.
type LinkRepo struct {
	pool *pgxpool.Pool
}

var _ ports.LinkStore = (*LinkRepo)(nil)

// NewLinkRepo wires the repository.
func NewLinkRepo(pool *pgxpool.Pool) *LinkRepo {
	return &LinkRepo{pool: pool}
}

// Replace upserts the entry keyed by article id.
func (r *LinkRepo) Replace(ctx context.Context, entry domain.LinkEntry) error {
	query, args, err := builder.
		Insert("link_index").
		Columns("article_id", "title", "url", "keywords").
		Values(entry.ArticleID, entry.Title, entry.URL, entry.Keywords).
		Suffix("ON CONFLICT (article_id) DO UPDATE SET title = EXCLUDED.title, url = EXCLUDED.url, keywords = EXCLUDED.keywords").
		ToSql()
	if err != nil {
		return fmt.Errorf("build link upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert link entry: %w", err)
	}
	return nil
}

// All loads the full index.
func (r *LinkRepo) All(ctx context.Context) ([]domain.LinkEntry, error) {
	query, args, err := builder.
		Select("article_id", "title", "url", "keywords").
		From("link_index").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build link select: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query link index: %w", err)
	}
	defer rows.Close()

	var entries []domain.LinkEntry
	for rows.Next() {
		var entry domain.LinkEntry
		if err := rows.Scan(&entry.ArticleID, &entry.Title, &entry.URL, &entry.Keywords); err != nil {
			return nil, fmt.Errorf("scan link entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes the entry for an article.
func (r *LinkRepo) Delete(ctx context.Context, articleID int64) error {
	query, args, err := builder.
		Delete("link_index").
		Where(sq.Eq{"article_id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build link delete: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete link entry: %w", err)
	}
	return nil
}
