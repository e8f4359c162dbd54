package domain

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Record represents one version row of a dimension member, plus the
// transient state the save path needs: the last-persisted snapshot used
// for change detection and the original identity kept for rollback while
// a new version is pending.
type Record struct {
	ID          uuid.UUID      `json:"id"`
	Dimension   string         `json:"dimension"`
	Keys        map[string]any `json:"keys"`
	Properties  map[string]any `json:"properties"`
	IsCurrent   bool           `json:"is_current"`
	LockVersion int64          `json:"lock_version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Identity snapshot taken when a versioned save begins, restored if
	// the save fails after the record entered the pending-new state.
	originalID      uuid.UUID
	originalCurrent bool
	originalLock    int64
	pendingNew      bool

	// Last successfully persisted state, used by ContentChanged.
	persisted        bool
	persistedKeys    map[string]any
	persistedProps   map[string]any
	persistedCurrent bool
}

// NewRecord creates a not-yet-persisted record that will become the
// current version of its scope on first save.
func NewRecord(dimension string, keys, properties map[string]any) *Record {
	now := time.Now()
	return &Record{
		Dimension:  dimension,
		Keys:       copyValues(keys),
		Properties: copyValues(properties),
		IsCurrent:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Persisted reports whether the record is backed by a committed row.
// A record that cleared its id for a pending new version still counts as
// persisted until the save either completes or rolls back.
func (r *Record) Persisted() bool {
	return r.persisted
}

// PendingNew reports whether a versioned save is in flight for this
// record (id cleared, new row not yet inserted).
func (r *Record) PendingNew() bool {
	return r.pendingNew
}

// ContentChanged reports whether any attribute other than IsCurrent
// differs from the last-persisted snapshot. Unpersisted records never
// report a content change.
func (r *Record) ContentChanged() bool {
	if !r.persisted {
		return false
	}
	if !reflect.DeepEqual(r.Keys, r.persistedKeys) {
		return true
	}
	return !reflect.DeepEqual(r.Properties, r.persistedProps)
}

// OriginalID returns the identity of the row this record pointed at when
// the current save began.
func (r *Record) OriginalID() uuid.UUID {
	return r.originalID
}

// OriginalLockVersion returns the lock value the record carried before a
// pending versioned save recomputed it.
func (r *Record) OriginalLockVersion() int64 {
	return r.originalLock
}

// BeginVersioning snapshots the record's persisted identity and clears
// its id so the write step that follows treats it as a brand-new row.
func (r *Record) BeginVersioning() {
	r.originalID = r.ID
	r.originalCurrent = r.IsCurrent
	r.originalLock = r.LockVersion
	r.ID = uuid.Nil
	r.IsCurrent = true
	r.pendingNew = true
}

// RestoreIdentity undoes BeginVersioning after a failed save so the
// caller's handle still points at the last committed row.
func (r *Record) RestoreIdentity() {
	if !r.pendingNew {
		return
	}
	r.ID = r.originalID
	r.IsCurrent = r.originalCurrent
	r.LockVersion = r.originalLock
	r.pendingNew = false
}

// MarkSaved records a successful write: the record adopts the given id,
// leaves any pending-new state, and refreshes the persisted snapshot
// that ContentChanged compares against.
func (r *Record) MarkSaved(id uuid.UUID) {
	r.ID = id
	r.pendingNew = false
	r.persisted = true
	r.persistedKeys = copyValues(r.Keys)
	r.persistedProps = copyValues(r.Properties)
	r.persistedCurrent = r.IsCurrent
	r.UpdatedAt = time.Now()
}

// MarkLoaded is MarkSaved for records hydrated from the store; the
// snapshot is the row as read.
func (r *Record) MarkLoaded() {
	r.pendingNew = false
	r.persisted = true
	r.persistedKeys = copyValues(r.Keys)
	r.persistedProps = copyValues(r.Properties)
	r.persistedCurrent = r.IsCurrent
}

// SetProperty updates a single content field.
func (r *Record) SetProperty(key string, value any) {
	if r.Properties == nil {
		r.Properties = make(map[string]any)
	}
	r.Properties[key] = value
	r.UpdatedAt = time.Now()
}

// SetProperties replaces the content fields wholesale.
func (r *Record) SetProperties(properties map[string]any) {
	r.Properties = copyValues(properties)
	r.UpdatedAt = time.Now()
}

func (r *Record) GetPropertiesAsJSONB() (json.RawMessage, error) {
	if r.Properties == nil {
		r.Properties = make(map[string]any)
	}
	return json.Marshal(r.Properties)
}

// FromJSONBProperties creates a properties map from JSONB data.
func FromJSONBProperties(propertiesJSON json.RawMessage) (map[string]any, error) {
	var properties map[string]any
	err := json.Unmarshal(propertiesJSON, &properties)
	return properties, err
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
