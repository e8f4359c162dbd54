package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rpattn/dimstore/internal/db"
	"github.com/rpattn/dimstore/internal/domain"
	"github.com/rpattn/dimstore/internal/pipeline"
	"github.com/rpattn/dimstore/internal/versioning"
)

// recordRepository implements RecordRepository for one dimension.
type recordRepository struct {
	conn   *db.Connection
	dim    domain.Dimension
	stages *pipeline.Pipeline
}

// NewRecordRepository creates a repository bound to the given dimension.
// The pipeline may be nil when no extra stages are registered.
func NewRecordRepository(conn *db.Connection, dim domain.Dimension, stages *pipeline.Pipeline) RecordRepository {
	return &recordRepository{
		conn:   conn,
		dim:    dim,
		stages: stages,
	}
}

func (r *recordRepository) Dimension() domain.Dimension {
	return r.dim
}

// Save runs the registered pipeline stages around the versioned save.
// The demote and insert of a version chain execute on the same
// transaction, so a failure anywhere rolls both back.
func (r *recordRepository) Save(ctx context.Context, rec *domain.Record) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		orchestrator := versioning.NewOrchestrator(newPgxStore(tx))
		return r.stages.Run(ctx, r.dim, rec, func(ctx context.Context) error {
			return orchestrator.Save(ctx, r.dim, rec)
		})
	})
}

func (r *recordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	sql := r.baseSelect() + fmt.Sprintf(" WHERE %s = $1", r.dim.PrimaryKey)
	rec, err := r.scanRecord(r.conn.Pool.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s row %s: %w", r.dim.Name, id, err)
	}
	return rec, nil
}

func (r *recordRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Record, error) {
	if len(ids) == 0 {
		return []*domain.Record{}, nil
	}

	sql := r.baseSelect() + fmt.Sprintf(" WHERE %s = ANY($1)", r.dim.PrimaryKey)
	rows, err := r.conn.Pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s rows by ids: %w", r.dim.Name, err)
	}
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *recordRepository) GetCurrentByKey(ctx context.Context, keys map[string]any) (*domain.Record, error) {
	sql, args := r.scopePredicate(r.baseSelect(), keys)
	if len(r.dim.ScopeColumns) == 0 {
		sql += fmt.Sprintf(" WHERE %s = true", r.dim.CurrentColumn)
	} else {
		sql += fmt.Sprintf(" AND %s = true", r.dim.CurrentColumn)
	}

	rec, err := r.scanRecord(r.conn.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to get current %s row: %w", r.dim.Name, err)
	}
	return rec, nil
}

func (r *recordRepository) ListHistory(ctx context.Context, keys map[string]any) ([]domain.RecordVersion, error) {
	sql, args := r.scopePredicate(r.baseSelect(), keys)
	sql += " ORDER BY created_at, " + r.dim.PrimaryKey

	rows, err := r.conn.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s history: %w", r.dim.Name, err)
	}
	defer rows.Close()

	var versions []domain.RecordVersion
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, domain.RecordVersion{
			ID:          rec.ID,
			Dimension:   rec.Dimension,
			Keys:        rec.Keys,
			Properties:  rec.Properties,
			IsCurrent:   rec.IsCurrent,
			LockVersion: rec.LockVersion,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return versions, rows.Err()
}

func (r *recordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.dim.Table)
	if err := r.conn.Pool.QueryRow(ctx, sql).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", r.dim.Name, err)
	}
	return count, nil
}

func (r *recordRepository) baseSelect() string {
	columns := []string{r.dim.PrimaryKey}
	columns = append(columns, r.dim.ScopeColumns...)
	columns = append(columns, "properties", r.dim.CurrentColumn)
	if r.dim.LockColumn != "" {
		columns = append(columns, r.dim.LockColumn)
	}
	columns = append(columns, "created_at", "updated_at")
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), r.dim.Table)
}

func (r *recordRepository) scopePredicate(sql string, keys map[string]any) (string, []any) {
	var sb strings.Builder
	sb.WriteString(sql)
	args := make([]any, 0, len(r.dim.ScopeColumns))
	for i, col := range r.dim.ScopeColumns {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, keys[col])
		fmt.Fprintf(&sb, "%s IS NOT DISTINCT FROM $%d", col, len(args))
	}
	return sb.String(), args
}

func (r *recordRepository) scanRecord(row pgx.Row) (*domain.Record, error) {
	rec := &domain.Record{
		Dimension: r.dim.Name,
		Keys:      make(map[string]any, len(r.dim.ScopeColumns)),
	}

	scopeValues := make([]any, len(r.dim.ScopeColumns))
	var propertiesJSON []byte

	dest := []any{&rec.ID}
	for i := range scopeValues {
		dest = append(dest, &scopeValues[i])
	}
	dest = append(dest, &propertiesJSON, &rec.IsCurrent)
	if r.dim.LockColumn != "" {
		dest = append(dest, &rec.LockVersion)
	}
	dest = append(dest, &rec.CreatedAt, &rec.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	for i, col := range r.dim.ScopeColumns {
		rec.Keys[col] = scopeValues[i]
	}

	properties, err := domain.FromJSONBProperties(propertiesJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode properties for %s row %s: %w", r.dim.Name, rec.ID, err)
	}
	rec.Properties = properties

	rec.MarkLoaded()
	return rec, nil
}
