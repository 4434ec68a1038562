package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// executeSQLSetup is the SQL an operator must run once per project to
// provision the stored procedure behind execute_sql, list_tables, and
// describe_table. It accepts one text parameter and returns a JSON array.
const executeSQLSetup = `CREATE OR REPLACE FUNCTION execute_sql(query text)
RETURNS json
LANGUAGE plpgsql
SECURITY DEFINER
AS $$
DECLARE
  result json;
BEGIN
  EXECUTE 'SELECT json_agg(t) FROM (' || query || ') t' INTO result;
  RETURN COALESCE(result, '[]'::json);
END;
$$;`

const listTablesSQL = `SELECT table_name FROM information_schema.tables WHERE table_schema = '%s' ORDER BY table_name`

const describeTableSQL = `SELECT column_name, data_type, is_nullable, column_default, character_maximum_length
FROM information_schema.columns
WHERE table_schema = '%s' AND table_name = '%s'
ORDER BY ordinal_position`

func (s *MCPServer) handleInitialize(params json.RawMessage) (*InitializeResult, *Error) {
	var initParams InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &Error{
				Code:    InvalidParams,
				Message: "Invalid initialize parameters",
				Data:    err.Error(),
			}
		}
	}

	s.initialized = true

	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
	}, nil
}

func (s *MCPServer) handleListTools() (*ListToolsResult, *Error) {
	return &ListToolsResult{Tools: s.tools}, nil
}

func (s *MCPServer) handleCallTool(params json.RawMessage) (*CallToolResult, *Error) {
	var callParams CallToolParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &Error{
			Code:    InvalidParams,
			Message: "Invalid parameters",
			Data:    err.Error(),
		}
	}

	return s.dispatch(callParams.Name, callParams.Arguments), nil
}

// dispatch resolves a tool by name, validates the argument bag against its
// schema, and runs the matching handler. Every failure past this point comes
// back as an error-flagged result; a bad call never takes the process down.
func (s *MCPServer) dispatch(name string, args map[string]any) *CallToolResult {
	tool, ok := s.toolIndex[name]
	if !ok {
		return errorResult("Unknown tool: %s", name)
	}

	if args == nil {
		args = map[string]any{}
	}
	validated, err := validateArguments(tool, args)
	if err != nil {
		return errorResult("Invalid arguments for %s: %v", name, err)
	}

	switch name {
	case "list_tables":
		return s.listTables(validated)
	case "describe_table":
		return s.describeTable(validated)
	case "query_table":
		return s.queryTable(validated)
	case "insert_row":
		return s.insertRow(validated)
	case "update_rows":
		return s.updateRows(validated)
	case "delete_rows":
		return s.deleteRows(validated)
	case "execute_sql":
		return s.executeSQL(validated)
	case "list_buckets":
		return s.listBuckets(validated)
	case "list_files":
		return s.listFiles(validated)
	default:
		// Catalog entry without a handler; registry and switch are out of sync.
		return errorResult("Unknown tool: %s", name)
	}
}

func (s *MCPServer) listTables(args map[string]any) *CallToolResult {
	schema := stringArg(args, "schema")

	result, err := s.backend.ExecuteSQL(s.ctx, fmt.Sprintf(listTablesSQL, schema))
	if errors.Is(err, ErrSQLFunctionMissing) {
		return jsonResult(setupRequiredPayload())
	}
	if err != nil {
		return errorResult("Failed to list tables: %v", err)
	}
	return jsonResult(result)
}

func (s *MCPServer) describeTable(args map[string]any) *CallToolResult {
	table := stringArg(args, "table")
	schema := stringArg(args, "schema")

	result, err := s.backend.ExecuteSQL(s.ctx, fmt.Sprintf(describeTableSQL, schema, table))
	if errors.Is(err, ErrSQLFunctionMissing) {
		return jsonResult(setupRequiredPayload())
	}
	if err != nil {
		return errorResult("Failed to describe table: %v", err)
	}
	return jsonResult(result)
}

func (s *MCPServer) queryTable(args map[string]any) *CallToolResult {
	limit := intArg(args, "limit")
	if limit <= 0 {
		// The row window [offset, offset+limit) is empty.
		return jsonResult(map[string]any{
			"count": 0,
			"rows":  []map[string]any{},
		})
	}

	rows, err := s.backend.QueryTable(s.ctx, TableQuery{
		Table:     stringArg(args, "table"),
		Columns:   stringArg(args, "columns"),
		Filters:   mapArg(args, "filters"),
		OrderBy:   stringArg(args, "order_by"),
		Ascending: boolArg(args, "ascending"),
		Limit:     limit,
		Offset:    intArg(args, "offset"),
	})
	if err != nil {
		return errorResult("Query failed: %v", err)
	}

	return jsonResult(map[string]any{
		"count": len(rows),
		"rows":  rows,
	})
}

func (s *MCPServer) insertRow(args map[string]any) *CallToolResult {
	rows, err := s.backend.InsertRow(s.ctx, stringArg(args, "table"), mapArg(args, "data"))
	if err != nil {
		return errorResult("Insert failed: %v", err)
	}
	return jsonResult(map[string]any{"inserted": rows})
}

func (s *MCPServer) updateRows(args map[string]any) *CallToolResult {
	filters := mapArg(args, "filters")
	if len(filters) == 0 {
		return errorResult("Update failed: filters must not be empty (refusing full-table update)")
	}

	rows, err := s.backend.UpdateRows(s.ctx, stringArg(args, "table"), mapArg(args, "data"), filters)
	if err != nil {
		return errorResult("Update failed: %v", err)
	}
	return jsonResult(map[string]any{
		"count":   len(rows),
		"updated": rows,
	})
}

func (s *MCPServer) deleteRows(args map[string]any) *CallToolResult {
	filters := mapArg(args, "filters")
	if len(filters) == 0 {
		return errorResult("Delete failed: filters must not be empty (refusing full-table delete)")
	}

	rows, err := s.backend.DeleteRows(s.ctx, stringArg(args, "table"), filters)
	if err != nil {
		return errorResult("Delete failed: %v", err)
	}
	return jsonResult(map[string]any{
		"count":   len(rows),
		"deleted": rows,
	})
}

func (s *MCPServer) executeSQL(args map[string]any) *CallToolResult {
	query := stringArg(args, "query")
	if strings.TrimSpace(query) == "" {
		// Bad input is reported as data, not as a failed call.
		return jsonResult(map[string]any{"error": "Empty query"})
	}

	result, err := s.backend.ExecuteSQL(s.ctx, query)
	if errors.Is(err, ErrSQLFunctionMissing) {
		return jsonResult(setupRequiredPayload())
	}
	if err != nil {
		// Backend-side failures come back as a structured error object too,
		// so callers can distinguish them from transport-level tool errors.
		return jsonResult(map[string]any{"error": err.Error()})
	}
	return jsonResult(result)
}

func (s *MCPServer) listBuckets(_ map[string]any) *CallToolResult {
	buckets, err := s.backend.ListBuckets(s.ctx)
	if err != nil {
		return errorResult("Failed to list buckets: %v", err)
	}
	return jsonResult(buckets)
}

func (s *MCPServer) listFiles(args map[string]any) *CallToolResult {
	limit := intArg(args, "limit")
	if limit <= 0 {
		return jsonResult([]any{})
	}

	files, err := s.backend.ListFiles(s.ctx, stringArg(args, "bucket"), stringArg(args, "path"), limit)
	if err != nil {
		return errorResult("Failed to list files: %v", err)
	}
	if len(files) > limit {
		files = files[:limit]
	}
	return jsonResult(files)
}

// setupRequiredPayload is returned when the execute_sql stored procedure is
// absent. The condition is reported as data with remedial SQL rather than as
// a failed call.
func setupRequiredPayload() map[string]any {
	return map[string]any{
		"error":     "The execute_sql function is not provisioned on this project",
		"hint":      "Run the following SQL in the SQL editor, then retry",
		"setup_sql": executeSQLSetup,
	}
}

func jsonResult(v any) *CallToolResult {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Failed to marshal result: %v", err)
	}
	return &CallToolResult{
		Content: []Content{{Type: "text", Text: string(text)}},
	}
}

func errorResult(format string, args ...any) *CallToolResult {
	return &CallToolResult{
		Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
