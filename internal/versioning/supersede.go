package versioning

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rpattn/dimstore/internal/domain"
)

// SupersedeExecutor demotes the previous current row of a scope with a
// single conditional UPDATE. The one round trip both verifies the row is
// still the expected current version and flips its current flag; there
// is no separate read-then-write.
type SupersedeExecutor struct {
	store Store
}

// NewSupersedeExecutor creates an executor over the given store.
func NewSupersedeExecutor(store Store) *SupersedeExecutor {
	return &SupersedeExecutor{store: store}
}

// Demote flips the current flag of the identified row to false, guarded
// by the current-flag predicate and, when expectedLock is non-nil and
// the dimension defines a lock column, the lock predicate. Returns the
// affected row count; the caller treats anything other than exactly 1 as
// a conflict.
func (s *SupersedeExecutor) Demote(ctx context.Context, dim domain.Dimension, id uuid.UUID, expectedLock *int64) (int64, error) {
	stmt := NewConditionalUpdate(dim.Table).
		Set(dim.CurrentColumn, false).
		Where(dim.PrimaryKey, id).
		Where(dim.CurrentColumn, true)

	if expectedLock != nil && dim.LockColumn != "" {
		stmt.Where(dim.LockColumn, *expectedLock)
	}

	affected, err := s.store.ExecConditionalUpdate(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to demote %s row %s: %w", dim.Name, id, err)
	}
	return affected, nil
}
