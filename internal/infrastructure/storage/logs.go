package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// LogRepo stores the persistent log sink rows in Postgres.
type LogRepo struct {
	pool *pgxpool.Pool
}

var _ ports.LogStore = (*LogRepo)(nil)

// NewLogRepo wires the repository.
func NewLogRepo(pool *pgxpool.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

// Append inserts one log row.
func (r *LogRepo) Append(ctx context.Context, entry domain.LogEntry) error {
	query, args, err := builder.
		Insert("logs").
		Columns("level", "message", "context", "created_at").
		Values(entry.Level, entry.Message, entry.Context, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build log insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// Latest returns the most recent rows, newest first.
func (r *LogRepo) Latest(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	query, args, err := builder.
		Select("id", "level", "message", "context", "created_at").
		From("logs").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build log select: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		if err := rows.Scan(&entry.ID, &entry.Level, &entry.Message, &entry.Context, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Prune deletes everything but the newest keep rows.
func (r *LogRepo) Prune(ctx context.Context, keep int) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM logs WHERE id NOT IN (SELECT id FROM logs ORDER BY id DESC LIMIT $1)", keep)
	if err != nil {
		return fmt.Errorf("prune logs: %w", err)
	}
	return nil
}
