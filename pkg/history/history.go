package history

import (
	"context"
	"time"
)

// Entry records one alert dispatch attempt and its outcome.
type Entry struct {
	ID        string    `json:"id" db:"id"`
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	Message   string    `json:"message" db:"message"`
	Reasons   []string  `json:"reasons" db:"reasons"`
	Delivered bool      `json:"delivered" db:"delivered"`
	Detail    string    `json:"detail" db:"detail"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Store persists the alert dispatch log.
type Store interface {
	// Record persists a single dispatch entry.
	Record(ctx context.Context, entry *Entry) error

	// List returns the most recent entries, newest first. limit <= 0 means
	// no limit.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Close releases resources.
	Close() error
}
