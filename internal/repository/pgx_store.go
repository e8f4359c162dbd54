package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/dimstore/internal/domain"
	"github.com/rpattn/dimstore/internal/versioning"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// store code runs standalone or inside an ambient transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxStore implements versioning.Store over a pgx querier.
type pgxStore struct {
	q querier
}

func newPgxStore(q querier) *pgxStore {
	return &pgxStore{q: q}
}

func (s *pgxStore) CountScope(ctx context.Context, dim domain.Dimension, scopeValues []any) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT COUNT(*) FROM %s", dim.Table)
	for i, col := range dim.ScopeColumns {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		// IS NOT DISTINCT FROM so NULL scope keys still group together.
		fmt.Fprintf(&sb, "%s IS NOT DISTINCT FROM $%d", col, i+1)
	}

	var count int64
	if err := s.q.QueryRow(ctx, sb.String(), scopeValues...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s scope rows: %w", dim.Name, err)
	}
	return count, nil
}

func (s *pgxStore) ExecConditionalUpdate(ctx context.Context, stmt *versioning.ConditionalUpdate) (int64, error) {
	sql, args := stmt.Build()
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute conditional update on %s: %w", stmt.Table(), err)
	}
	return tag.RowsAffected(), nil
}

func (s *pgxStore) Insert(ctx context.Context, dim domain.Dimension, rec *domain.Record) (uuid.UUID, error) {
	propertiesJSON, err := rec.GetPropertiesAsJSONB()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal properties: %w", err)
	}

	columns := make([]string, 0, len(dim.ScopeColumns)+3)
	args := make([]any, 0, cap(columns))
	for _, col := range dim.ScopeColumns {
		columns = append(columns, col)
		args = append(args, rec.Keys[col])
	}
	columns = append(columns, "properties", dim.CurrentColumn)
	args = append(args, propertiesJSON, rec.IsCurrent)
	if dim.LockColumn != "" {
		columns = append(columns, dim.LockColumn)
		args = append(args, rec.LockVersion)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		dim.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		dim.PrimaryKey,
	)

	var id uuid.UUID
	if err := s.q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert %s row: %w", dim.Name, err)
	}
	return id, nil
}

func (s *pgxStore) Update(ctx context.Context, dim domain.Dimension, rec *domain.Record) error {
	propertiesJSON, err := rec.GetPropertiesAsJSONB()
	if err != nil {
		return fmt.Errorf("failed to marshal properties: %w", err)
	}

	sql := fmt.Sprintf(
		"UPDATE %s SET properties = $1, %s = $2, updated_at = now() WHERE %s = $3",
		dim.Table, dim.CurrentColumn, dim.PrimaryKey,
	)
	if _, err := s.q.Exec(ctx, sql, propertiesJSON, rec.IsCurrent, rec.ID); err != nil {
		return fmt.Errorf("failed to update %s row %s: %w", dim.Name, rec.ID, err)
	}
	return nil
}
