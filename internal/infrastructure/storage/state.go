package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autopilot/internal/ports"
)

const rotationIndexKey = "rotation_index"

// StateRepo keeps small cross-run values in a key-value table.
type StateRepo struct {
	pool *pgxpool.Pool
}

var _ ports.StateStore = (*StateRepo)(nil)

// NewStateRepo wires the repository.
func NewStateRepo(pool *pgxpool.Pool) *StateRepo {
	return &StateRepo{pool: pool}
}

// RotationIndex loads the author rotation counter; a missing row is zero.
func (r *StateRepo) RotationIndex(ctx context.Context) (int, error) {
	query, args, err := builder.
		Select("value").
		From("app_state").
		Where(sq.Eq{"key": rotationIndexKey}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build state query: %w", err)
	}

	var value string
	err = r.pool.QueryRow(ctx, query, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query rotation index: %w", err)
	}

	index, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse rotation index %q: %w", value, err)
	}
	return index, nil
}

// SetRotationIndex upserts the counter.
func (r *StateRepo) SetRotationIndex(ctx context.Context, index int) error {
	query, args, err := builder.
		Insert("app_state").
		Columns("key", "value").
		Values(rotationIndexKey, strconv.Itoa(index)).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build state upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert rotation index: %w", err)
	}
	return nil
}
