package domain

import (
	"fmt"
	"strings"
)

// Dimension describes how one tracked entity type maps onto its table:
// where the primary key, current flag, and optional lock column live, and
// which columns identify a single version history (the scope).
type Dimension struct {
	Name          string   `json:"name"`
	Table         string   `json:"table"`
	PrimaryKey    string   `json:"primary_key"`
	CurrentColumn string   `json:"current_column"`
	LockColumn    string   `json:"lock_column,omitempty"`
	ScopeColumns  []string `json:"scope_columns,omitempty"`
}

// NewDimension fills in the conventional column names.
func NewDimension(name, table string, scopeColumns ...string) Dimension {
	return Dimension{
		Name:          name,
		Table:         table,
		PrimaryKey:    "id",
		CurrentColumn: "is_current",
		LockColumn:    "lock_version",
		ScopeColumns:  scopeColumns,
	}
}

// HasLock reports whether optimistic lock values are computed and
// enforced for this dimension. Without a lock column, or with an empty
// scope, the demote predicate falls back to the current flag alone.
func (d Dimension) HasLock() bool {
	return d.LockColumn != "" && len(d.ScopeColumns) > 0
}

// ScopeValues extracts the scope key values for a record in column
// order. Keys absent from the record come through as nil rather than
// raising, matching the silent-degrade policy for misconfigured scopes.
func (d Dimension) ScopeValues(rec *Record) []any {
	values := make([]any, len(d.ScopeColumns))
	for i, col := range d.ScopeColumns {
		if rec.Keys != nil {
			values[i] = rec.Keys[col]
		}
	}
	return values
}

// Validate checks the descriptor is usable before it is registered.
func (d Dimension) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("dimension name is required")
	}
	if strings.TrimSpace(d.Table) == "" {
		return fmt.Errorf("dimension %s: table is required", d.Name)
	}
	if strings.TrimSpace(d.PrimaryKey) == "" {
		return fmt.Errorf("dimension %s: primary key column is required", d.Name)
	}
	if strings.TrimSpace(d.CurrentColumn) == "" {
		return fmt.Errorf("dimension %s: current column is required", d.Name)
	}
	for _, col := range d.ScopeColumns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("dimension %s: empty scope column", d.Name)
		}
	}
	return nil
}
