package versioning

import (
	"context"
	"fmt"

	"github.com/rpattn/dimstore/internal/domain"
)

// Orchestrator runs the save state machine for versioned records. For an
// unpersisted record it performs a plain insert; for a persisted record
// whose content is unchanged it performs a plain update; for a persisted
// record with changed content it chains a new version: demote the prior
// current row, then insert the record as a brand-new row. Any failure
// after the record entered the pending-new state restores its original
// identity before the error is surfaced.
//
// The orchestrator holds no transaction of its own; the Store it was
// built over is expected to be bound to the caller's transaction.
type Orchestrator struct {
	store     Store
	guard     *ConcurrencyGuard
	supersede *SupersedeExecutor
}

// NewOrchestrator wires the save state machine over a store.
func NewOrchestrator(store Store) *Orchestrator {
	return &Orchestrator{
		store:     store,
		guard:     NewConcurrencyGuard(store),
		supersede: NewSupersedeExecutor(store),
	}
}

// Save persists the record according to its change state.
func (o *Orchestrator) Save(ctx context.Context, dim domain.Dimension, rec *domain.Record) error {
	if !rec.Persisted() {
		return o.saveInitial(ctx, dim, rec)
	}
	if !rec.ContentChanged() {
		if err := o.store.Update(ctx, dim, rec); err != nil {
			return fmt.Errorf("failed to update %s row %s: %w", dim.Name, rec.ID, err)
		}
		rec.MarkSaved(rec.ID)
		return nil
	}
	return o.saveNewVersion(ctx, dim, rec)
}

func (o *Orchestrator) saveInitial(ctx context.Context, dim domain.Dimension, rec *domain.Record) error {
	if dim.HasLock() {
		lock, err := o.guard.NextValue(ctx, dim, rec)
		if err != nil {
			return err
		}
		rec.LockVersion = lock
	}
	rec.IsCurrent = true

	id, err := o.store.Insert(ctx, dim, rec)
	if err != nil {
		return fmt.Errorf("failed to insert %s row: %w", dim.Name, err)
	}
	rec.MarkSaved(id)
	return nil
}

func (o *Orchestrator) saveNewVersion(ctx context.Context, dim domain.Dimension, rec *domain.Record) error {
	rec.BeginVersioning()

	var expectedLock *int64
	if dim.HasLock() {
		lock, err := o.guard.NextValue(ctx, dim, rec)
		if err != nil {
			rec.RestoreIdentity()
			return err
		}
		rec.LockVersion = lock
		prior := rec.OriginalLockVersion()
		expectedLock = &prior
	}

	affected, err := o.supersede.Demote(ctx, dim, rec.OriginalID(), expectedLock)
	if err != nil {
		rec.RestoreIdentity()
		return err
	}
	if affected != 1 {
		stale := &StaleVersionError{
			Dimension: dim.Name,
			RecordID:  rec.OriginalID(),
			Affected:  affected,
		}
		if expectedLock != nil {
			stale.ExpectedLock = *expectedLock
		}
		rec.RestoreIdentity()
		return stale
	}

	id, err := o.store.Insert(ctx, dim, rec)
	if err != nil {
		rec.RestoreIdentity()
		return fmt.Errorf("failed to insert new %s version: %w", dim.Name, err)
	}
	rec.MarkSaved(id)
	return nil
}
