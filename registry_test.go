package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToolCatalog_Names(t *testing.T) {
	want := []string{
		"list_tables",
		"describe_table",
		"query_table",
		"insert_row",
		"update_rows",
		"delete_rows",
		"execute_sql",
		"list_buckets",
		"list_files",
	}

	var got []string
	for _, tool := range toolCatalog() {
		got = append(got, tool.Name)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Catalog names mismatch (-want +got):\n%s", diff)
	}
}

func TestToolCatalog_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, tool := range toolCatalog() {
		if seen[tool.Name] {
			t.Errorf("Duplicate tool name: %s", tool.Name)
		}
		seen[tool.Name] = true
	}
}

func TestToolCatalog_RequiredFields(t *testing.T) {
	want := map[string][]string{
		"list_tables":    {},
		"describe_table": {"table"},
		"query_table":    {"table"},
		"insert_row":     {"table", "data"},
		"update_rows":    {"table", "data", "filters"},
		"delete_rows":    {"table", "filters"},
		"execute_sql":    {"query"},
		"list_buckets":   {},
		"list_files":     {"bucket"},
	}

	for _, tool := range toolCatalog() {
		t.Run(tool.Name, func(t *testing.T) {
			if diff := cmp.Diff(want[tool.Name], tool.InputSchema.Required); diff != "" {
				t.Errorf("Required fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToolCatalog_SchemaFieldsDeclared(t *testing.T) {
	// Every required field must also be declared as a property.
	for _, tool := range toolCatalog() {
		t.Run(tool.Name, func(t *testing.T) {
			for _, name := range tool.InputSchema.Required {
				if _, ok := tool.InputSchema.Properties[name]; !ok {
					t.Errorf("Required field %q is not declared in properties", name)
				}
			}
		})
	}
}

func findTool(t *testing.T, name string) Tool {
	t.Helper()
	for _, tool := range toolCatalog() {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("Tool not found in catalog: %s", name)
	return Tool{}
}

func TestValidateArguments_MissingRequired(t *testing.T) {
	tool := findTool(t, "update_rows")

	_, err := validateArguments(tool, map[string]any{"table": "users"})
	if err == nil {
		t.Fatal("Expected error for missing required fields")
	}
	for _, field := range []string{"data", "filters"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Expected error to name missing field %q, got: %v", field, err)
		}
	}
}

func TestValidateArguments_UnknownField(t *testing.T) {
	tool := findTool(t, "execute_sql")

	_, err := validateArguments(tool, map[string]any{
		"query": "SELECT 1",
		"bogus": true,
	})
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Errorf("Expected unknown field error, got: %v", err)
	}
}

func TestValidateArguments_TypeChecks(t *testing.T) {
	tool := findTool(t, "query_table")

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{
			name:    "valid full set",
			args:    map[string]any{"table": "users", "columns": "id,name", "filters": map[string]any{"id": float64(1)}, "ascending": false, "limit": float64(10), "offset": float64(0)},
			wantErr: false,
		},
		{
			name:    "table wrong type",
			args:    map[string]any{"table": 42},
			wantErr: true,
		},
		{
			name:    "filters wrong type",
			args:    map[string]any{"table": "users", "filters": "id=1"},
			wantErr: true,
		},
		{
			name:    "limit fractional",
			args:    map[string]any{"table": "users", "limit": 1.5},
			wantErr: true,
		},
		{
			name:    "limit whole float accepted",
			args:    map[string]any{"table": "users", "limit": float64(5)},
			wantErr: false,
		},
		{
			name:    "limit int accepted",
			args:    map[string]any{"table": "users", "limit": 5},
			wantErr: false,
		},
		{
			name:    "ascending wrong type",
			args:    map[string]any{"table": "users", "ascending": "yes"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validateArguments(tool, tc.args)
			if tc.wantErr && err == nil {
				t.Error("Expected validation error, got none")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected arguments to validate, got: %v", err)
			}
		})
	}
}

func TestValidateArguments_DefaultsApplied(t *testing.T) {
	tool := findTool(t, "query_table")

	got, err := validateArguments(tool, map[string]any{"table": "users"})
	if err != nil {
		t.Fatalf("Unexpected validation error: %v", err)
	}

	if got["columns"] != "*" {
		t.Errorf("Expected columns default %q, got %v", "*", got["columns"])
	}
	if got["ascending"] != true {
		t.Errorf("Expected ascending default true, got %v", got["ascending"])
	}
	if intArg(got, "limit") != 100 {
		t.Errorf("Expected limit default 100, got %v", got["limit"])
	}
	if intArg(got, "offset") != 0 {
		t.Errorf("Expected offset default 0, got %v", got["offset"])
	}
	if _, ok := got["order_by"]; ok {
		t.Error("order_by has no default and should stay absent")
	}
}

func TestValidateArguments_DoesNotMutateInput(t *testing.T) {
	tool := findTool(t, "list_files")
	args := map[string]any{"bucket": "avatars"}

	if _, err := validateArguments(tool, args); err != nil {
		t.Fatalf("Unexpected validation error: %v", err)
	}
	if len(args) != 1 {
		t.Errorf("Input bag was mutated: %v", args)
	}
}
