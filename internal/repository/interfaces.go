package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpattn/dimstore/internal/domain"
)

// RecordRepository defines the operations available on one dimension's
// version rows. A repository instance is bound to a single dimension.
type RecordRepository interface {
	// Dimension returns the descriptor this repository is bound to.
	Dimension() domain.Dimension

	// Save persists the record through the versioning state machine
	// inside its own transaction: plain insert for new records, plain
	// update when content is unchanged, demote-then-insert when content
	// changed.
	Save(ctx context.Context, rec *domain.Record) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Record, error)

	// GetCurrentByKey returns the current version for the given scope
	// key values.
	GetCurrentByKey(ctx context.Context, keys map[string]any) (*domain.Record, error)

	// ListHistory returns every version row of a scope, oldest first.
	ListHistory(ctx context.Context, keys map[string]any) ([]domain.RecordVersion, error)

	Count(ctx context.Context) (int64, error)
}
