package recordloader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/dimstore/internal/domain"
	"github.com/rpattn/dimstore/internal/repository"
)

// RecordLoader batches record lookups by id so request handlers that
// resolve many records in one request issue a single query.
type RecordLoader struct {
	Loader *dataloader.Loader
}

// NewRecordLoader builds a loader over one dimension's repository.
func NewRecordLoader(repo repository.RecordRepository) *RecordLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]uuid.UUID, len(keys))
		for i, k := range keys {
			id, err := uuid.Parse(k.String())
			if err != nil {
				return []*dataloader.Result{{Error: fmt.Errorf("invalid UUID: %w", err)}}
			}
			ids[i] = id
		}

		records, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		recordMap := make(map[uuid.UUID]*domain.Record, len(records))
		for _, rec := range records {
			recordMap[rec.ID] = rec
		}

		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if rec, ok := recordMap[id]; ok {
				results[i] = &dataloader.Result{Data: rec}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}

		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))

	return &RecordLoader{Loader: loader}
}

// LoadMany fetches several records in one batch. Missing ids are
// dropped from the result.
func (l *RecordLoader) LoadMany(ctx context.Context, ids []uuid.UUID) ([]*domain.Record, error) {
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = dataloader.StringKey(id.String())
	}

	thunk := l.Loader.LoadMany(ctx, keys)
	data, errs := thunk()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	records := make([]*domain.Record, 0, len(data))
	for _, item := range data {
		if item == nil {
			continue
		}
		rec, ok := item.(*domain.Record)
		if !ok {
			return nil, fmt.Errorf("unexpected loader result type %T", item)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Load fetches one record through the batch.
func (l *RecordLoader) Load(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	thunk := l.Loader.Load(ctx, dataloader.StringKey(id.String()))
	data, err := thunk()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	rec, ok := data.(*domain.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected loader result type %T", data)
	}
	return rec, nil
}
