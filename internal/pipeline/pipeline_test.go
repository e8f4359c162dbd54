package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rpattn/dimstore/internal/domain"
)

type recordingStage struct {
	name string
	log  *[]string

	before bool
	around bool
	after  bool

	beforeErr error
	afterErr  error
}

func (s *recordingStage) BeforePersist(ctx context.Context, dim domain.Dimension, rec *domain.Record) error {
	if !s.before {
		return nil
	}
	*s.log = append(*s.log, s.name+":before")
	return s.beforeErr
}

func (s *recordingStage) AroundPersist(ctx context.Context, dim domain.Dimension, rec *domain.Record, next func(context.Context) error) error {
	if !s.around {
		return next(ctx)
	}
	*s.log = append(*s.log, s.name+":around-enter")
	err := next(ctx)
	*s.log = append(*s.log, s.name+":around-exit")
	return err
}

func (s *recordingStage) AfterPersist(ctx context.Context, dim domain.Dimension, rec *domain.Record) error {
	if !s.after {
		return nil
	}
	*s.log = append(*s.log, s.name+":after")
	return s.afterErr
}

func TestRunOrdersPhases(t *testing.T) {
	var log []string
	p := New()
	dim := domain.NewDimension("customer", "customers", "account_id")

	first := &recordingStage{name: "first", log: &log, before: true, around: true, after: true}
	second := &recordingStage{name: "second", log: &log, before: true, around: true}
	if err := p.Register(dim.Name, first); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if err := p.Register(dim.Name, second); err != nil {
		t.Fatalf("register second: %v", err)
	}

	rec := domain.NewRecord(dim.Name, nil, nil)
	err := p.Run(context.Background(), dim, rec, func(context.Context) error {
		log = append(log, "write")
		return nil
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	want := []string{
		"first:before", "second:before",
		"first:around-enter", "second:around-enter",
		"write",
		"second:around-exit", "first:around-exit",
		"first:after",
	}
	if len(log) != len(want) {
		t.Fatalf("unexpected phase log: %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("phase %d: want %q, got %q (full log %v)", i, want[i], log[i], log)
		}
	}
}

func TestRunStopsOnBeforeError(t *testing.T) {
	var log []string
	p := New()
	dim := domain.NewDimension("customer", "customers", "account_id")

	boom := errors.New("boom")
	stage := &recordingStage{name: "s", log: &log, before: true, beforeErr: boom}
	if err := p.Register(dim.Name, stage); err != nil {
		t.Fatalf("register: %v", err)
	}

	wrote := false
	err := p.Run(context.Background(), dim, domain.NewRecord(dim.Name, nil, nil), func(context.Context) error {
		wrote = true
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected before-persist error, got %v", err)
	}
	if wrote {
		t.Fatalf("write must not run after a before-persist failure")
	}
}

func TestRegisterRejectsCapabilityFreeStage(t *testing.T) {
	p := New()
	if err := p.Register("customer", struct{}{}); err == nil {
		t.Fatalf("expected error for stage with no capabilities")
	}
}

func TestNilPipelineRunsWriteDirectly(t *testing.T) {
	var p *Pipeline
	wrote := false
	err := p.Run(context.Background(), domain.Dimension{Name: "customer"}, nil, func(context.Context) error {
		wrote = true
		return nil
	})
	if err != nil || !wrote {
		t.Fatalf("nil pipeline must execute the write, err=%v wrote=%v", err, wrote)
	}
}
