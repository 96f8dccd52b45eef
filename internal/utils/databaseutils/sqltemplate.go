package databaseutils

import (
	"context"
	"database/sql"
	"time"
)

type SQLTemplate struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewSQLTemplate(db *sql.DB, timeout time.Duration) *SQLTemplate {
	return &SQLTemplate{
		DB:      db,
		Timeout: timeout,
	}
}

// ExecuteQuery runs query and maps every row through extractor. If ctx
// carries a transaction opened by a Session, the query runs inside it.
func ExecuteQuery[T any](sqlTemplate *SQLTemplate, ctx context.Context, query string, extractor func(rows *sql.Rows) (T, error), args ...any) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, sqlTemplate.Timeout)
	defer cancel()

	executor := GetSQLExecutor(ctx, sqlTemplate.DB)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		t, err := extractor(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// ExecuteSingleQuery is ExecuteQuery for queries expected to yield exactly
// one row. No row at all surfaces as sql.ErrNoRows.
func ExecuteSingleQuery[T any](sqlTemplate *SQLTemplate, ctx context.Context, query string, extractor func(rows *sql.Rows) (T, error), args ...any) (T, error) {
	var zero T

	results, err := ExecuteQuery(sqlTemplate, ctx, query, extractor, args...)
	if err != nil {
		return zero, err
	}
	if len(results) == 0 {
		return zero, sql.ErrNoRows
	}

	return results[0], nil
}

// ExecuteUpdate runs a statement that returns no rows and reports how many
// rows it affected.
func ExecuteUpdate(sqlTemplate *SQLTemplate, ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, sqlTemplate.Timeout)
	defer cancel()

	executor := GetSQLExecutor(ctx, sqlTemplate.DB)
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
