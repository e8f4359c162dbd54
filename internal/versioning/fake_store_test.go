package versioning

import (
	"context"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/dimstore/internal/domain"
)

// fakeRow mirrors the columns the core touches.
type fakeRow struct {
	id        uuid.UUID
	keys      map[string]any
	props     map[string]any
	current   bool
	lock      int64
	createdAt time.Time
}

// fakeStore is an in-memory Store for exercising the save state machine
// without a database. Single table; the dimensions under test all point
// at it.
type fakeStore struct {
	dim  domain.Dimension
	rows map[uuid.UUID]*fakeRow

	insertErr error
	updateErr error

	inserts    int
	updates    int
	statements []*ConditionalUpdate
}

func newFakeStore(dim domain.Dimension) *fakeStore {
	return &fakeStore{dim: dim, rows: make(map[uuid.UUID]*fakeRow)}
}

func (f *fakeStore) CountScope(_ context.Context, dim domain.Dimension, scopeValues []any) (int64, error) {
	var count int64
	for _, row := range f.rows {
		if f.matchesScope(dim, row, scopeValues) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) matchesScope(dim domain.Dimension, row *fakeRow, scopeValues []any) bool {
	for i, col := range dim.ScopeColumns {
		if !reflect.DeepEqual(row.keys[col], scopeValues[i]) {
			return false
		}
	}
	return true
}

func (f *fakeStore) ExecConditionalUpdate(_ context.Context, stmt *ConditionalUpdate) (int64, error) {
	f.statements = append(f.statements, stmt)

	var affected int64
	for _, row := range f.rows {
		if f.rowMatches(row, stmt.Predicates()) {
			for _, set := range stmt.Assignments() {
				f.applyAssignment(row, set)
			}
			affected++
		}
	}
	return affected, nil
}

func (f *fakeStore) rowMatches(row *fakeRow, predicates []Clause) bool {
	for _, p := range predicates {
		var got any
		switch p.Column {
		case f.dim.PrimaryKey:
			got = row.id
		case f.dim.CurrentColumn:
			got = row.current
		case f.dim.LockColumn:
			got = row.lock
		default:
			got = row.keys[p.Column]
		}
		if !reflect.DeepEqual(got, p.Value) {
			return false
		}
	}
	return true
}

func (f *fakeStore) applyAssignment(row *fakeRow, set Clause) {
	switch set.Column {
	case f.dim.CurrentColumn:
		row.current = set.Value.(bool)
	case f.dim.LockColumn:
		row.lock = set.Value.(int64)
	}
}

func (f *fakeStore) Insert(_ context.Context, _ domain.Dimension, rec *domain.Record) (uuid.UUID, error) {
	f.inserts++
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	id := uuid.New()
	keys := make(map[string]any, len(rec.Keys))
	for k, v := range rec.Keys {
		keys[k] = v
	}
	props := make(map[string]any, len(rec.Properties))
	for k, v := range rec.Properties {
		props[k] = v
	}
	f.rows[id] = &fakeRow{
		id:        id,
		keys:      keys,
		props:     props,
		current:   rec.IsCurrent,
		lock:      rec.LockVersion,
		createdAt: time.Now(),
	}
	return id, nil
}

func (f *fakeStore) Update(_ context.Context, _ domain.Dimension, rec *domain.Record) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	row, ok := f.rows[rec.ID]
	if !ok {
		return nil
	}
	for k, v := range rec.Properties {
		row.props[k] = v
	}
	row.current = rec.IsCurrent
	return nil
}

// currentRows returns the ids of rows flagged current, sorted for
// deterministic assertions.
func (f *fakeStore) currentRows() []uuid.UUID {
	var ids []uuid.UUID
	for id, row := range f.rows {
		if row.current {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
