package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepo backs the database inspection endpoints. Table names are always
// validated against information_schema before being interpolated into SQL.
type AdminRepo struct {
	pool *pgxpool.Pool
}

type TableSummary struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

func (r *AdminRepo) ListTables(ctx context.Context) ([]TableSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if scanErr := rows.Scan(&name); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]TableSummary, 0, len(names))
	for _, name := range names {
		var count int64
		if err := r.pool.QueryRow(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %q", name),
		).Scan(&count); err != nil {
			return nil, err
		}
		summaries = append(summaries, TableSummary{Name: name, RowCount: count})
	}
	return summaries, nil
}

func (r *AdminRepo) tableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_type = 'BASE TABLE' AND table_name = $1
		)`, table).Scan(&exists)
	return exists, err
}

// SampleRows returns up to limit rows of a table as generic maps, for the
// admin data browser.
func (r *AdminRepo) SampleRows(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	exists, err := r.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf("SELECT * FROM %q LIMIT %d", table, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]map[string]interface{}, 0)
	for rows.Next() {
		values, scanErr := rows.Values()
		if scanErr != nil {
			return nil, scanErr
		}
		row := make(map[string]interface{}, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
