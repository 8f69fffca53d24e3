package domain

import "time"

// LogEntry is one row in the persistent log sink.
type LogEntry struct {
	ID        int64
	Level     string
	Message   string
	Context   string
	CreatedAt time.Time
}
