package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// builder is the shared statement builder with Postgres placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS seen_items (
		fingerprint TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		url         TEXT NOT NULL,
		article_id  BIGINT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS link_index (
		article_id BIGINT PRIMARY KEY,
		title      TEXT NOT NULL,
		url        TEXT NOT NULL,
		keywords   TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS cost_entries (
		id         BIGSERIAL PRIMARY KEY,
		article_id BIGINT,
		cost_type  TEXT NOT NULL,
		model      TEXT NOT NULL,
		tokens_in  INT NOT NULL DEFAULT 0,
		tokens_out INT NOT NULL DEFAULT 0,
		cost_usd   DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id         BIGSERIAL PRIMARY KEY,
		level      TEXT NOT NULL,
		message    TEXT NOT NULL,
		context    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS app_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id                BIGSERIAL PRIMARY KEY,
		title             TEXT NOT NULL,
		content           TEXT NOT NULL,
		excerpt           TEXT NOT NULL DEFAULT '',
		status            TEXT NOT NULL,
		author_id         BIGINT NOT NULL,
		category_id       BIGINT NOT NULL DEFAULT 0,
		featured_media_id BIGINT,
		scheduled_at      TIMESTAMPTZ,
		published_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		shared            BOOLEAN NOT NULL DEFAULT FALSE,
		share_post_id     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS media (
		id         BIGSERIAL PRIMARY KEY,
		filename   TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		alt        TEXT NOT NULL DEFAULT '',
		caption    TEXT NOT NULL DEFAULT '',
		path       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Bootstrap creates the schema when missing. Safe to run on every start.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range schema {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
