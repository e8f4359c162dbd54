package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rpattn/dimstore/internal/domain"
)

// BeforePersister runs before the write step of a save.
type BeforePersister interface {
	BeforePersist(ctx context.Context, dim domain.Dimension, rec *domain.Record) error
}

// AroundPersister wraps the write step of a save. Implementations must
// call next exactly once for the save to happen.
type AroundPersister interface {
	AroundPersist(ctx context.Context, dim domain.Dimension, rec *domain.Record, next func(context.Context) error) error
}

// Observer runs after the write step committed its in-memory effects.
// Observer failures abort the save; the enclosing transaction rolls the
// write back.
type Observer interface {
	AfterPersist(ctx context.Context, dim domain.Dimension, rec *domain.Record) error
}

// Pipeline dispatches save stages registered once per dimension. Stages
// are explicit capability registrations, never discovered hooks: a stage
// participates only in the phases whose interface it implements.
type Pipeline struct {
	mu     sync.RWMutex
	stages map[string][]any
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{stages: make(map[string][]any)}
}

// Register attaches a stage to a dimension. The stage must implement at
// least one of the three capability interfaces.
func (p *Pipeline) Register(dimension string, stage any) error {
	_, before := stage.(BeforePersister)
	_, around := stage.(AroundPersister)
	_, after := stage.(Observer)
	if !before && !around && !after {
		return fmt.Errorf("stage %T implements no pipeline capability", stage)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages[dimension] = append(p.stages[dimension], stage)
	return nil
}

// Run executes the save flow for one record: before stages in
// registration order, then the write wrapped by around stages (outermost
// first registered), then observers in registration order.
func (p *Pipeline) Run(ctx context.Context, dim domain.Dimension, rec *domain.Record, write func(context.Context) error) error {
	if p == nil {
		return write(ctx)
	}

	p.mu.RLock()
	stages := p.stages[dim.Name]
	p.mu.RUnlock()

	for _, stage := range stages {
		if before, ok := stage.(BeforePersister); ok {
			if err := before.BeforePersist(ctx, dim, rec); err != nil {
				return fmt.Errorf("before-persist stage failed for %s: %w", dim.Name, err)
			}
		}
	}

	next := write
	for i := len(stages) - 1; i >= 0; i-- {
		around, ok := stages[i].(AroundPersister)
		if !ok {
			continue
		}
		inner := next
		next = func(ctx context.Context) error {
			return around.AroundPersist(ctx, dim, rec, inner)
		}
	}

	if err := next(ctx); err != nil {
		return err
	}

	for _, stage := range stages {
		if observer, ok := stage.(Observer); ok {
			if err := observer.AfterPersist(ctx, dim, rec); err != nil {
				return fmt.Errorf("after-persist stage failed for %s: %w", dim.Name, err)
			}
		}
	}

	return nil
}
