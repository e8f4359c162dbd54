package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rpattn/dimstore/internal/domain"
)

// MirrorBinding copies one property of the saved record onto a related
// record. Bindings replace implicit attribute-sharing wiring with an
// explicit list executed after each save.
type MirrorBinding struct {
	SourceProperty string
	TargetProperty string
}

// RecordSaver is the slice of the repository the mirror needs to persist
// updated targets.
type RecordSaver interface {
	Save(ctx context.Context, rec *domain.Record) error
}

// TargetResolver returns the records the bindings should be applied to
// for a given saved record.
type TargetResolver func(ctx context.Context, rec *domain.Record) ([]*domain.Record, error)

// AttributeMirror is a pipeline observer that propagates shared
// attributes from a saved record into its aggregated sub-records.
type AttributeMirror struct {
	bindings []MirrorBinding
	resolve  TargetResolver
	saver    RecordSaver
}

// NewAttributeMirror builds a mirror observer for the given bindings.
func NewAttributeMirror(bindings []MirrorBinding, resolve TargetResolver, saver RecordSaver) *AttributeMirror {
	return &AttributeMirror{bindings: bindings, resolve: resolve, saver: saver}
}

// AfterPersist applies every binding to every resolved target and saves
// the targets whose mirrored values actually changed.
func (m *AttributeMirror) AfterPersist(ctx context.Context, dim domain.Dimension, rec *domain.Record) error {
	if len(m.bindings) == 0 {
		return nil
	}

	targets, err := m.resolve(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to resolve mirror targets for %s: %w", dim.Name, err)
	}

	for _, target := range targets {
		changed := false
		for _, binding := range m.bindings {
			value, ok := rec.Properties[binding.SourceProperty]
			if !ok {
				continue
			}
			if reflect.DeepEqual(target.Properties[binding.TargetProperty], value) {
				continue
			}
			target.SetProperty(binding.TargetProperty, value)
			changed = true
		}
		if !changed {
			continue
		}
		if err := m.saver.Save(ctx, target); err != nil {
			return fmt.Errorf("failed to save mirror target %s: %w", target.ID, err)
		}
	}

	return nil
}
