package domain

import (
	"reflect"
	"testing"
)

func TestNewDimensionDefaults(t *testing.T) {
	dim := NewDimension("customer", "customers", "account_id")

	if dim.PrimaryKey != "id" || dim.CurrentColumn != "is_current" || dim.LockColumn != "lock_version" {
		t.Fatalf("unexpected defaults: %+v", dim)
	}
	if !dim.HasLock() {
		t.Fatalf("dimension with lock column and scope must report HasLock")
	}
}

func TestHasLockRequiresScope(t *testing.T) {
	dim := NewDimension("customer", "customers")
	if dim.HasLock() {
		t.Fatalf("empty scope must disable the lock predicate")
	}

	dim = NewDimension("customer", "customers", "account_id")
	dim.LockColumn = ""
	if dim.HasLock() {
		t.Fatalf("missing lock column must disable the lock predicate")
	}
}

func TestScopeValuesOrderAndMissingKeys(t *testing.T) {
	dim := NewDimension("order_line", "order_lines", "order_id", "product_id")
	rec := NewRecord("order_line", map[string]any{"product_id": "p-1"}, nil)

	values := dim.ScopeValues(rec)

	if !reflect.DeepEqual(values, []any{nil, "p-1"}) {
		t.Fatalf("unexpected scope values: %#v", values)
	}
}

func TestDimensionValidate(t *testing.T) {
	dim := NewDimension("customer", "customers", "account_id")
	if err := dim.Validate(); err != nil {
		t.Fatalf("valid dimension rejected: %v", err)
	}

	bad := dim
	bad.Table = " "
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for missing table")
	}

	bad = dim
	bad.ScopeColumns = []string{"account_id", ""}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for empty scope column")
	}
}
