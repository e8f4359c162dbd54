package repository

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/dimstore/internal/domain"
)

func TestBaseSelectIncludesLockColumn(t *testing.T) {
	repo := &recordRepository{dim: domain.NewDimension("customer", "customers", "account_id")}

	sql := repo.baseSelect()
	want := "SELECT id, account_id, properties, is_current, lock_version, created_at, updated_at FROM customers"
	if sql != want {
		t.Fatalf("unexpected select:\n got %q\nwant %q", sql, want)
	}
}

func TestBaseSelectOmitsMissingLockColumn(t *testing.T) {
	dim := domain.NewDimension("customer", "customers", "account_id")
	dim.LockColumn = ""
	repo := &recordRepository{dim: dim}

	sql := repo.baseSelect()
	want := "SELECT id, account_id, properties, is_current, created_at, updated_at FROM customers"
	if sql != want {
		t.Fatalf("unexpected select:\n got %q\nwant %q", sql, want)
	}
}

func TestScopePredicateOrdersColumns(t *testing.T) {
	dim := domain.NewDimension("price", "product_prices", "product_id", "region")
	repo := &recordRepository{dim: dim}

	sql, args := repo.scopePredicate("SELECT 1 FROM product_prices", map[string]any{
		"region":     "emea",
		"product_id": "p-1",
	})

	want := "SELECT 1 FROM product_prices WHERE product_id IS NOT DISTINCT FROM $1 AND region IS NOT DISTINCT FROM $2"
	if sql != want {
		t.Fatalf("unexpected predicate:\n got %q\nwant %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"p-1", "emea"}) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "customers_one_current"}
	if !IsUniqueViolation(pgErr) {
		t.Fatalf("expected 23505 to classify as unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation must not classify as unique violation")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Fatalf("plain error must not classify as unique violation")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(pgx.ErrNoRows) {
		t.Fatalf("pgx.ErrNoRows must classify as not found")
	}
	if IsNotFound(errors.New("plain")) {
		t.Fatalf("plain error must not classify as not found")
	}
}
