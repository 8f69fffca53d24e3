package authors

import (
	"math/rand"

	"autopilot/internal/domain"
)

// Rotator selects a byline from the configured pool. The rotation index is
// explicit state owned by the caller and persisted between runs; it grows
// without reset and is reduced modulo the pool size on use.
type Rotator struct {
	defaultID int64
	pool      []domain.AuthorPoolEntry
	intn      func(n int) int
}

// NewRotator builds a rotator over the pool with a fallback default author.
func NewRotator(defaultID int64, pool []domain.AuthorPoolEntry) *Rotator {
	return &Rotator{defaultID: defaultID, pool: pool, intn: rand.Intn}
}

// Resolve picks an author using the given strategy and returns the possibly
// advanced rotation index. An empty pool falls back to the default author for
// every strategy.
func (r *Rotator) Resolve(strategy domain.RotationStrategy, rotationIndex int) (int64, int) {
	if strategy == domain.RotateSingle || len(r.pool) == 0 {
		return r.defaultID, rotationIndex
	}

	switch strategy {
	case domain.RotateRandom:
		return r.pool[r.intn(len(r.pool))].UserID, rotationIndex

	case domain.RotateRoundRobin:
		author := r.pool[rotationIndex%len(r.pool)].UserID
		return author, rotationIndex + 1

	case domain.RotatePercentage:
		return r.weighted(), rotationIndex

	default:
		return r.defaultID, rotationIndex
	}
}

// weighted draws proportionally to entry weights in pool order.
func (r *Rotator) weighted() int64 {
	total := 0
	for _, entry := range r.pool {
		total += entry.Weight
	}
	if total <= 0 {
		return r.pool[0].UserID
	}

	draw := r.intn(total) + 1
	cumulative := 0
	for _, entry := range r.pool {
		cumulative += entry.Weight
		if cumulative >= draw {
			return entry.UserID
		}
	}
	return r.pool[0].UserID
}
