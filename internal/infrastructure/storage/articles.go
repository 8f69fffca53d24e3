package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// ArticleRepo stores published articles and categories in Postgres.
type ArticleRepo struct {
	pool    *pgxpool.Pool
	siteURL string
}

var _ ports.ArticleStore = (*ArticleRepo)(nil)

// NewArticleRepo wires the repository. siteURL is the public base for
// article permalinks.
func NewArticleRepo(pool *pgxpool.Pool, siteURL string) *ArticleRepo {
	return &ArticleRepo{pool: pool, siteURL: strings.TrimRight(siteURL, "/")}
}

// Create inserts the article and returns its id.
func (r *ArticleRepo) Create(ctx context.Context, article domain.NewArticle) (int64, error) {
	query, args, err := builder.
		Insert("articles").
		Columns("title", "content", "excerpt", "status", "author_id", "category_id", "scheduled_at").
		Values(article.Title, article.Content, article.Excerpt, article.Status,
			article.AuthorID, article.CategoryID, article.ScheduledAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build article insert: %w", err)
	}

	var id int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// URL returns the public permalink for an article.
func (r *ArticleRepo) URL(ctx context.Context, articleID int64) (string, error) {
	query, args, err := builder.
		Select("1").
		From("articles").
		Where(sq.Eq{"id": articleID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build article lookup: %w", err)
	}

	var one int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("article %d not found", articleID)
	}
	if err != nil {
		return "", fmt.Errorf("lookup article: %w", err)
	}
	return fmt.Sprintf("%s/articles/%d", r.siteURL, articleID), nil
}

// AttachImage sets the featured media handle.
func (r *ArticleRepo) AttachImage(ctx context.Context, articleID, mediaID int64) error {
	query, args, err := builder.
		Update("articles").
		Set("featured_media_id", mediaID).
		Where(sq.Eq{"id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build image attach: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("attach featured image: %w", err)
	}
	return nil
}

// ResolveCategory finds a category by case-insensitive name, creating it when
// missing.
func (r *ArticleRepo) ResolveCategory(ctx context.Context, name string) (int64, error) {
	query, args, err := builder.
		Select("id").
		From("categories").
		Where("LOWER(name) = LOWER(?)", name).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build category lookup: %w", err)
	}

	var id int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("lookup category: %w", err)
	}

	insert, args, err := builder.
		Insert("categories").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build category insert: %w", err)
	}

	if err := r.pool.QueryRow(ctx, insert, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return id, nil
}

// RecentByAuthor returns an author's latest published articles, newest first.
func (r *ArticleRepo) RecentByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.StoredArticle, error) {
	query, args, err := builder.
		Select("id", "title", "content", "author_id", "published_at").
		From("articles").
		Where(sq.Eq{"author_id": authorID, "status": "publish"}).
		OrderBy("published_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build author query: %w", err)
	}
	return r.queryArticles(ctx, query, args)
}

// Published returns all published articles.
func (r *ArticleRepo) Published(ctx context.Context) ([]domain.StoredArticle, error) {
	query, args, err := builder.
		Select("id", "title", "content", "author_id", "published_at").
		From("articles").
		Where(sq.Eq{"status": "publish"}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build published query: %w", err)
	}
	return r.queryArticles(ctx, query, args)
}

func (r *ArticleRepo) queryArticles(ctx context.Context, query string, args []any) ([]domain.StoredArticle, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.StoredArticle
	for rows.Next() {
		var a domain.StoredArticle
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.AuthorID, &a.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.URL = fmt.Sprintf("%s/articles/%d", r.siteURL, a.ID)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Shared reports whether the article was posted to the social page.
func (r *ArticleRepo) Shared(ctx context.Context, articleID int64) (bool, error) {
	query, args, err := builder.
		Select("shared").
		From("articles").
		Where(sq.Eq{"id": articleID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build shared lookup: %w", err)
	}

	var shared bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&shared); err != nil {
		return false, fmt.Errorf("lookup shared flag: %w", err)
	}
	return shared, nil
}

// SetShared marks the article shared with its social post id.
func (r *ArticleRepo) SetShared(ctx context.Context, articleID int64, postID string) error {
	query, args, err := builder.
		Update("articles").
		Set("shared", true).
		Set("share_post_id", postID).
		Where(sq.Eq{"id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build shared update: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("mark article shared: %w", err)
	}
	return nil
}
