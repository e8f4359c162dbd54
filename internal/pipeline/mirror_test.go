package pipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/rpattn/dimstore/internal/domain"
)

type stubSaver struct {
	saved []*domain.Record
	err   error
}

func (s *stubSaver) Save(ctx context.Context, rec *domain.Record) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, rec)
	return nil
}

func TestAttributeMirrorCopiesBoundProperties(t *testing.T) {
	dim := domain.NewDimension("customer", "customers", "account_id")

	source := domain.NewRecord(dim.Name, map[string]any{"account_id": "a"}, map[string]any{
		"region": "emea",
		"tier":   "gold",
	})

	target := domain.NewRecord("contact", map[string]any{"customer_id": "a"}, map[string]any{
		"region": "apac",
	})
	target.MarkSaved(uuid.New())

	saver := &stubSaver{}
	mirror := NewAttributeMirror(
		[]MirrorBinding{{SourceProperty: "region", TargetProperty: "region"}},
		func(ctx context.Context, rec *domain.Record) ([]*domain.Record, error) {
			return []*domain.Record{target}, nil
		},
		saver,
	)

	if err := mirror.AfterPersist(context.Background(), dim, source); err != nil {
		t.Fatalf("mirror returned error: %v", err)
	}

	if target.Properties["region"] != "emea" {
		t.Fatalf("expected mirrored region, got %v", target.Properties["region"])
	}
	if len(saver.saved) != 1 {
		t.Fatalf("expected one saved target, got %d", len(saver.saved))
	}
}

func TestAttributeMirrorSkipsUnchangedTargets(t *testing.T) {
	dim := domain.NewDimension("customer", "customers", "account_id")

	source := domain.NewRecord(dim.Name, nil, map[string]any{"region": "emea"})
	target := domain.NewRecord("contact", nil, map[string]any{"region": "emea"})
	target.MarkSaved(uuid.New())

	saver := &stubSaver{}
	mirror := NewAttributeMirror(
		[]MirrorBinding{{SourceProperty: "region", TargetProperty: "region"}},
		func(ctx context.Context, rec *domain.Record) ([]*domain.Record, error) {
			return []*domain.Record{target}, nil
		},
		saver,
	)

	if err := mirror.AfterPersist(context.Background(), dim, source); err != nil {
		t.Fatalf("mirror returned error: %v", err)
	}
	if len(saver.saved) != 0 {
		t.Fatalf("unchanged target must not be re-saved")
	}
}
