package main

import (
	"context"
	"errors"

	storage_go "github.com/supabase-community/storage-go"
)

// ErrSQLFunctionMissing reports that the execute_sql stored procedure is not
// provisioned on the backend. Metadata tools treat this as a soft condition
// and return provisioning instructions instead of failing.
var ErrSQLFunctionMissing = errors.New("execute_sql function is not provisioned")

// TableQuery describes one structured table read: which columns to select,
// AND-combined equality filters, optional single-column ordering, and a
// half-open row window [Offset, Offset+Limit).
type TableQuery struct {
	Table     string
	Columns   string
	Filters   map[string]any
	OrderBy   string
	Ascending bool
	Limit     int
	Offset    int
}

// Backend defines the contract for the remote database-and-storage service.
// The production implementation talks to Supabase; tests substitute a fake.
type Backend interface {
	// QueryTable runs a structured select and returns the matching rows.
	QueryTable(ctx context.Context, q TableQuery) ([]map[string]any, error)

	// InsertRow inserts a single row and returns the inserted row(s).
	InsertRow(ctx context.Context, table string, data map[string]any) ([]map[string]any, error)

	// UpdateRows applies column updates to all rows matching the equality
	// filters and returns the updated rows.
	UpdateRows(ctx context.Context, table string, data, filters map[string]any) ([]map[string]any, error)

	// DeleteRows deletes all rows matching the equality filters and returns
	// the deleted rows.
	DeleteRows(ctx context.Context, table string, filters map[string]any) ([]map[string]any, error)

	// ExecuteSQL runs arbitrary SQL through the execute_sql stored procedure
	// and returns its decoded JSON result. Returns an error wrapping
	// ErrSQLFunctionMissing when the procedure is not provisioned.
	ExecuteSQL(ctx context.Context, query string) (any, error)

	// ListBuckets lists all storage buckets.
	ListBuckets(ctx context.Context) ([]storage_go.Bucket, error)

	// ListFiles lists objects under a path prefix within one bucket.
	ListFiles(ctx context.Context, bucket, path string, limit int) ([]storage_go.FileObject, error)
}
