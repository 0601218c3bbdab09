package pgxlate

import (
	"fmt"
	"sort"
)

// ColumnInfo describes a column that expressions may reference.
type ColumnInfo struct {
	Name     string `json:"name" yaml:"name"`                   // Column name
	DataType string `json:"dataType" yaml:"dataType"`           // Store type (e.g. "text[]", "timestamptz")
	HostType string `json:"hostType,omitempty" yaml:"hostType"` // Host type override (e.g. "list<int>" for a jsonb column)
	Nullable bool   `json:"nullable" yaml:"nullable"`           // Is nullable
	Comment  string `json:"comment,omitempty" yaml:"comment"`   // Comment (optional)
}

// TableInfo is a unified table definition
type TableInfo struct {
	Name    string                 `json:"name" yaml:"name"`       // Table name
	Schema  string                 `json:"schema" yaml:"schema"`   // Schema name (optional)
	Alias   string                 `json:"alias" yaml:"alias"`     // Alias used to qualify columns (optional)
	Columns map[string]*ColumnInfo `json:"columns" yaml:"columns"` // Columns by name
	Comment string                 `json:"comment" yaml:"comment"` // Table comment (optional)
}

// Column returns the column definition with the given name.
func (t *TableInfo) Column(name string) (*ColumnInfo, error) {
	col, ok := t.Columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, name)
	}

	return col, nil
}

// ColumnNames returns the column names in sorted order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// QualifiedName returns schema.name, or just name when no schema is set.
func (t *TableInfo) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}

	return t.Schema + "." + t.Name
}
