package versioning

import (
	"context"
	"fmt"

	"github.com/rpattn/dimstore/internal/domain"
)

// ConcurrencyGuard computes the next optimistic lock value for a scope.
// The value is the count of version rows in the scope including the one
// about to be written, so the first-ever save of a scope carries lock
// value 1. This is a best-effort counter read at call time, not a
// reserved sequence; real conflict detection happens in the conditional
// demote.
type ConcurrencyGuard struct {
	store Store
}

// NewConcurrencyGuard creates a guard over the given store.
func NewConcurrencyGuard(store Store) *ConcurrencyGuard {
	return &ConcurrencyGuard{store: store}
}

// NextValue returns the lock value for the record's next version. Only
// called for dimensions with a lock column and a non-empty scope.
func (g *ConcurrencyGuard) NextValue(ctx context.Context, dim domain.Dimension, rec *domain.Record) (int64, error) {
	count, err := g.store.CountScope(ctx, dim, dim.ScopeValues(rec))
	if err != nil {
		return 0, fmt.Errorf("failed to count scope rows for %s: %w", dim.Name, err)
	}
	return count + 1, nil
}
