package versioning

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpattn/dimstore/internal/domain"
)

// Store is the slice of the storage layer the versioning core consumes.
// Every call runs inside the ambient transaction supplied by the caller,
// so the demote and the insert of a versioned save commit or roll back
// together.
type Store interface {
	// CountScope returns the number of version rows, current and
	// historical, whose scope columns match the given values.
	CountScope(ctx context.Context, dim domain.Dimension, scopeValues []any) (int64, error)

	// ExecConditionalUpdate executes the built statement and returns the
	// affected row count.
	ExecConditionalUpdate(ctx context.Context, stmt *ConditionalUpdate) (int64, error)

	// Insert writes the record as a new row and returns its id.
	Insert(ctx context.Context, dim domain.Dimension, rec *domain.Record) (uuid.UUID, error)

	// Update rewrites an existing row in place.
	Update(ctx context.Context, dim domain.Dimension, rec *domain.Record) error
}
