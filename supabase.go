package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
)

// Environment variables holding the backend connection settings.
const (
	EnvSupabaseURL = "SUPABASE_URL"
	EnvServiceKey  = "SUPABASE_SERVICE_ROLE_KEY"
)

// SupabaseBackend implements Backend against the Supabase REST and Storage
// APIs. It is constructed once at startup and injected into the server; when
// connection settings are missing the backend still constructs, but every
// operation returns the configuration error naming the missing variables.
type SupabaseBackend struct {
	rest      *postgrest.Client
	storage   *storage_go.Client
	configErr error
}

// NewSupabaseBackendFromEnv builds a backend from SUPABASE_URL and
// SUPABASE_SERVICE_ROLE_KEY. Missing settings do not fail construction.
func NewSupabaseBackendFromEnv() *SupabaseBackend {
	baseURL := os.Getenv(EnvSupabaseURL)
	serviceKey := os.Getenv(EnvServiceKey)

	var missing []string
	if baseURL == "" {
		missing = append(missing, EnvSupabaseURL)
	}
	if serviceKey == "" {
		missing = append(missing, EnvServiceKey)
	}
	if len(missing) > 0 {
		return &SupabaseBackend{
			configErr: fmt.Errorf("missing required environment variables: %v", missing),
		}
	}

	return NewSupabaseBackend(baseURL, serviceKey)
}

// NewSupabaseBackend builds a backend for the given project URL and service
// role key.
func NewSupabaseBackend(baseURL, serviceKey string) *SupabaseBackend {
	base := strings.TrimRight(baseURL, "/")
	headers := map[string]string{
		"apikey":        serviceKey,
		"Authorization": "Bearer " + serviceKey,
	}

	return &SupabaseBackend{
		rest:    postgrest.NewClient(base+"/rest/v1", "public", headers),
		storage: storage_go.NewClient(base+"/storage/v1", serviceKey, map[string]string{"apikey": serviceKey}),
	}
}

func (b *SupabaseBackend) QueryTable(ctx context.Context, q TableQuery) ([]map[string]any, error) {
	if b.configErr != nil {
		return nil, b.configErr
	}

	// A non-positive limit makes the row window [offset, offset+limit) empty.
	if q.Limit <= 0 {
		return []map[string]any{}, nil
	}

	columns := q.Columns
	if columns == "" {
		columns = "*"
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	fb := b.rest.From(q.Table).Select(columns, "", false)
	for column, value := range q.Filters {
		fb = fb.Eq(column, filterLiteral(value))
	}
	if q.OrderBy != "" {
		fb = fb.Order(q.OrderBy, &postgrest.OrderOpts{Ascending: q.Ascending})
	}
	fb = fb.Range(offset, offset+q.Limit-1, "")

	data, _, err := fb.ExecuteWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return decodeRows(data)
}

func (b *SupabaseBackend) InsertRow(ctx context.Context, table string, data map[string]any) ([]map[string]any, error) {
	if b.configErr != nil {
		return nil, b.configErr
	}

	raw, _, err := b.rest.From(table).Insert(data, false, "", "representation", "").ExecuteWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return decodeRows(raw)
}

func (b *SupabaseBackend) UpdateRows(ctx context.Context, table string, data, filters map[string]any) ([]map[string]any, error) {
	if b.configErr != nil {
		return nil, b.configErr
	}

	fb := b.rest.From(table).Update(data, "representation", "")
	for column, value := range filters {
		fb = fb.Eq(column, filterLiteral(value))
	}

	raw, _, err := fb.ExecuteWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return decodeRows(raw)
}

func (b *SupabaseBackend) DeleteRows(ctx context.Context, table string, filters map[string]any) ([]map[string]any, error) {
	if b.configErr != nil {
		return nil, b.configErr
	}

	fb := b.rest.From(table).Delete("representation", "")
	for column, value := range filters {
		fb = fb.Eq(column, filterLiteral(value))
	}

	raw, _, err := fb.ExecuteWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return decodeRows(raw)
}

// ExecuteSQL calls the execute_sql stored procedure through PostgREST's rpc
// endpoint. PostgREST reports a missing function as error code PGRST202;
// that case is mapped to ErrSQLFunctionMissing so callers can degrade
// gracefully instead of failing.
func (b *SupabaseBackend) ExecuteSQL(_ context.Context, query string) (any, error) {
	if b.configErr != nil {
		return nil, b.configErr
	}

	raw := b.rest.Rpc("execute_sql", "", map[string]string{"query": query})
	if err := b.rest.ClientError; err != nil {
		b.rest.ClientError = nil
		if isFunctionMissing(err.Error()) {
			return nil, ErrSQLFunctionMissing
		}
		return nil, err
	}

	// PostgREST errors arrive as a JSON object carrying message and code,
	// while execute_sql itself yields a JSON array (or null for no rows).
	var probe struct {
		Message *string `json:"message"`
		Code    string  `json:"code"`
	}
	if json.Unmarshal([]byte(raw), &probe) == nil && probe.Message != nil {
		if probe.Code == "PGRST202" || isFunctionMissing(*probe.Message) {
			return nil, ErrSQLFunctionMissing
		}
		return nil, fmt.Errorf("%s", *probe.Message)
	}

	if raw == "" || raw == "null" {
		return []any{}, nil
	}

	var result any
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("unexpected execute_sql response: %w", err)
	}
	return result, nil
}

func (b *SupabaseBackend) ListBuckets(_ context.Context) ([]storage_go.Bucket, error) {
	if b.configErr != nil {
		return nil, b.configErr
	}
	return b.storage.ListBuckets()
}

func (b *SupabaseBackend) ListFiles(_ context.Context, bucket, path string, limit int) ([]storage_go.FileObject, error) {
	if b.configErr != nil {
		return nil, b.configErr
	}
	return b.storage.ListFiles(bucket, path, storage_go.FileSearchOptions{Limit: limit})
}

// filterLiteral renders a filter value the way PostgREST expects it in a
// query parameter. Strings pass through unchanged; everything else uses its
// default formatting (numbers without a decimal point where possible).
func filterLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "null"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func decodeRows(data []byte) ([]map[string]any, error) {
	if len(data) == 0 {
		return []map[string]any{}, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

func isFunctionMissing(message string) bool {
	return strings.Contains(message, "PGRST202") ||
		strings.Contains(message, "Could not find the function")
}
