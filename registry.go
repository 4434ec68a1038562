package main

import "fmt"

// toolCatalog returns the static tool descriptors advertised by tools/list.
// The catalog is fixed at startup; dispatch matches on Name exactly.
func toolCatalog() []Tool {
	return []Tool{
		{
			Name:        "list_tables",
			Description: "List all tables in a database schema",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"schema": {
						Type:        "string",
						Description: "Database schema to list tables from",
						Default:     "public",
					},
				},
				Required: []string{},
			},
		},
		{
			Name:        "describe_table",
			Description: "Show column definitions for a table (name, type, nullability, default, max length)",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"table": {
						Type:        "string",
						Description: "Name of the table to describe",
					},
					"schema": {
						Type:        "string",
						Description: "Schema the table belongs to",
						Default:     "public",
					},
				},
				Required: []string{"table"},
			},
		},
		{
			Name:        "query_table",
			Description: "Query rows from a table with equality filters, ordering, and pagination",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"table": {
						Type:        "string",
						Description: "Name of the table to query",
					},
					"columns": {
						Type:        "string",
						Description: "Comma-separated columns to select",
						Default:     "*",
					},
					"filters": {
						Type:        "object",
						Description: "Column/value pairs combined with AND (equality only)",
						Default:     map[string]any{},
					},
					"order_by": {
						Type:        "string",
						Description: "Column to order results by",
					},
					"ascending": {
						Type:        "boolean",
						Description: "Sort direction when order_by is set",
						Default:     true,
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum number of rows to return",
						Default:     100,
					},
					"offset": {
						Type:        "integer",
						Description: "Number of rows to skip",
						Default:     0,
					},
				},
				Required: []string{"table"},
			},
		},
		{
			Name:        "insert_row",
			Description: "Insert a single row into a table",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"table": {
						Type:        "string",
						Description: "Name of the table to insert into",
					},
					"data": {
						Type:        "object",
						Description: "Column/value pairs for the new row",
					},
				},
				Required: []string{"table", "data"},
			},
		},
		{
			Name:        "update_rows",
			Description: "Update rows matching equality filters. Filters are required to prevent accidental full-table updates",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"table": {
						Type:        "string",
						Description: "Name of the table to update",
					},
					"data": {
						Type:        "object",
						Description: "Column/value pairs to set",
					},
					"filters": {
						Type:        "object",
						Description: "Column/value pairs selecting the rows to update",
					},
				},
				Required: []string{"table", "data", "filters"},
			},
		},
		{
			Name:        "delete_rows",
			Description: "Delete rows matching equality filters. Filters are required to prevent accidental full-table deletes",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"table": {
						Type:        "string",
						Description: "Name of the table to delete from",
					},
					"filters": {
						Type:        "object",
						Description: "Column/value pairs selecting the rows to delete",
					},
				},
				Required: []string{"table", "filters"},
			},
		},
		{
			Name:        "execute_sql",
			Description: "Execute a raw SQL query via the execute_sql stored procedure",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "SQL statement to execute",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "list_buckets",
			Description: "List all storage buckets",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{},
				Required:   []string{},
			},
		},
		{
			Name:        "list_files",
			Description: "List files in a storage bucket under a path prefix",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"bucket": {
						Type:        "string",
						Description: "Name of the bucket to list",
					},
					"path": {
						Type:        "string",
						Description: "Path prefix to list under",
						Default:     "",
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum number of entries to return",
						Default:     100,
					},
				},
				Required: []string{"bucket"},
			},
		},
	}
}

// validateArguments checks an argument bag against a tool's input schema:
// required fields must be present, every field must be declared and match its
// declared type, and defaults are filled in for absent optional fields. The
// returned bag is a normalized copy; the input is not modified.
func validateArguments(tool Tool, args map[string]any) (map[string]any, error) {
	var missing []string
	for _, name := range tool.InputSchema.Required {
		if _, ok := args[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %v", missing)
	}

	normalized := make(map[string]any, len(tool.InputSchema.Properties))
	for name, value := range args {
		prop, ok := tool.InputSchema.Properties[name]
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", name)
		}
		if !matchesType(value, prop.Type) {
			return nil, fmt.Errorf("invalid type for field %q: expected %s", name, prop.Type)
		}
		normalized[name] = value
	}

	for name, prop := range tool.InputSchema.Properties {
		if _, ok := normalized[name]; !ok && prop.Default != nil {
			normalized[name] = prop.Default
		}
	}

	return normalized, nil
}

// matchesType checks a decoded JSON value against a schema type. Integers
// accept both Go ints (from in-process callers) and whole float64s (the type
// encoding/json produces for all numbers).
func matchesType(value any, schemaType string) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "object":
		_, ok := value.(map[string]any)
		return ok
	}
	return false
}

// Typed accessors for validated argument bags. Validation guarantees the
// declared type, so a failed assertion just yields the zero value.

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func mapArg(args map[string]any, key string) map[string]any {
	v, _ := args[key].(map[string]any)
	return v
}
