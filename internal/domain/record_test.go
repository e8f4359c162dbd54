package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestContentChangedUnpersisted(t *testing.T) {
	rec := NewRecord("customer", map[string]any{"account_id": "a"}, map[string]any{"tier": "gold"})
	if rec.ContentChanged() {
		t.Fatalf("unpersisted record must not report a content change")
	}
}

func TestContentChangedAfterPropertyEdit(t *testing.T) {
	rec := NewRecord("customer", map[string]any{"account_id": "a"}, map[string]any{"tier": "gold"})
	rec.MarkSaved(uuid.New())

	if rec.ContentChanged() {
		t.Fatalf("freshly saved record must not report a content change")
	}

	rec.SetProperty("tier", "platinum")
	if !rec.ContentChanged() {
		t.Fatalf("expected content change after property edit")
	}

	rec.SetProperty("tier", "gold")
	if rec.ContentChanged() {
		t.Fatalf("restoring the persisted value must clear the content change")
	}
}

func TestContentChangedIgnoresCurrentFlag(t *testing.T) {
	rec := NewRecord("customer", map[string]any{"account_id": "a"}, map[string]any{"tier": "gold"})
	rec.MarkSaved(uuid.New())

	rec.IsCurrent = false
	if rec.ContentChanged() {
		t.Fatalf("IsCurrent alone must not count as a content change")
	}
}

func TestContentChangedOnKeyEdit(t *testing.T) {
	rec := NewRecord("customer", map[string]any{"account_id": "a"}, map[string]any{"tier": "gold"})
	rec.MarkSaved(uuid.New())

	rec.Keys["account_id"] = "b"
	if !rec.ContentChanged() {
		t.Fatalf("scope key edits count as content changes")
	}
}

func TestBeginVersioningAndRestore(t *testing.T) {
	rec := NewRecord("customer", map[string]any{"account_id": "a"}, map[string]any{"tier": "gold"})
	id := uuid.New()
	rec.MarkSaved(id)
	rec.LockVersion = 3

	rec.BeginVersioning()

	if rec.ID != uuid.Nil {
		t.Fatalf("expected cleared id, got %s", rec.ID)
	}
	if !rec.PendingNew() {
		t.Fatalf("expected pending-new state")
	}
	if rec.OriginalID() != id {
		t.Fatalf("expected original id %s, got %s", id, rec.OriginalID())
	}
	if rec.OriginalLockVersion() != 3 {
		t.Fatalf("expected original lock 3, got %d", rec.OriginalLockVersion())
	}

	rec.RestoreIdentity()

	if rec.ID != id {
		t.Fatalf("expected restored id %s, got %s", id, rec.ID)
	}
	if rec.LockVersion != 3 {
		t.Fatalf("expected restored lock 3, got %d", rec.LockVersion)
	}
	if rec.PendingNew() {
		t.Fatalf("pending-new must be cleared after restore")
	}
	if !rec.Persisted() {
		t.Fatalf("restored record still represents a committed row")
	}
}

func TestRestoreIdentityNoopWithoutPendingSave(t *testing.T) {
	rec := NewRecord("customer", nil, map[string]any{"tier": "gold"})
	id := uuid.New()
	rec.MarkSaved(id)

	rec.RestoreIdentity()

	if rec.ID != id {
		t.Fatalf("restore outside a pending save must not alter identity")
	}
}

func TestMarkSavedAdoptsNewIdentity(t *testing.T) {
	rec := NewRecord("customer", map[string]any{"account_id": "a"}, map[string]any{"tier": "gold"})
	rec.MarkSaved(uuid.New())
	rec.SetProperty("tier", "platinum")
	rec.BeginVersioning()

	newID := uuid.New()
	rec.MarkSaved(newID)

	if rec.ID != newID {
		t.Fatalf("expected new id %s, got %s", newID, rec.ID)
	}
	if rec.PendingNew() {
		t.Fatalf("pending-new must be cleared after a successful save")
	}
	if rec.ContentChanged() {
		t.Fatalf("snapshot must be refreshed after a successful save")
	}
}
