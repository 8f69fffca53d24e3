package domain

// RotationStrategy selects how bylines are drawn from the author pool.
type RotationStrategy string

const (
	RotateSingle     RotationStrategy = "single"
	RotateRandom     RotationStrategy = "random"
	RotateRoundRobin RotationStrategy = "round_robin"
	RotatePercentage RotationStrategy = "percentage"
)

// AuthorPoolEntry is one configured byline candidate. Weight is only used by
// the percentage strategy and is always >= 1.
type AuthorPoolEntry struct {
	UserID int64 `yaml:"id" json:"id"`
	Weight int   `yaml:"weight" json:"weight"`
}
