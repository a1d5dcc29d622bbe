package pairing

import "errors"

// ErrNotPaired indicates no operator chat has been registered yet.
var ErrNotPaired = errors.New("pairing: no chat registered")

// Record identifies the Telegram chat that receives alerts.
// A single record is active at a time; each /start overwrites it.
type Record struct {
	ChatID   int64  `json:"chat_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Store persists the active pairing record.
// Put replaces the record wholesale; Get re-reads the backing store on every
// call so the listener and the dashboard path observe a consistent view
// without in-process coordination.
type Store interface {
	// Put atomically replaces the active record.
	Put(record Record) error

	// Get returns the active record, or ErrNotPaired if the store has never
	// been written or holds an unreadable record.
	Get() (Record, error)
}
