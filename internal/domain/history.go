package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordVersion captures one row of a scope's version history as read
// back from the store. Unlike Record it carries no save-time state; it
// is a plain snapshot.
type RecordVersion struct {
	ID          uuid.UUID      `json:"id"`
	Dimension   string         `json:"dimension"`
	Keys        map[string]any `json:"keys"`
	Properties  map[string]any `json:"properties"`
	IsCurrent   bool           `json:"is_current"`
	LockVersion int64          `json:"lock_version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
