package schema

import (
	"fmt"
	"strings"
	"time"
)

type FieldType string

const (
	FieldTypeString    FieldType = "TEXT"
	FieldTypeNumber    FieldType = "NUMERIC"
	FieldTypeInteger   FieldType = "INTEGER"
	FieldTypeBoolean   FieldType = "BOOLEAN"
	FieldTypeTimestamp FieldType = "TIMESTAMP"
	FieldTypeJSON      FieldType = "JSON"
)

// ColumnDef describes one column of a dynamic table. Name is the SQL
// column name; Field is the external mapped name resources are keyed by.
type ColumnDef struct {
	Name       string    `json:"name"`
	Field      string    `json:"field"`
	Type       FieldType `json:"type"`
	Nullable   bool      `json:"nullable"`
	PrimaryKey bool      `json:"primaryKey"`
}

// ForeignKey describes a relationship from a column of this table to the
// primary key of a parent table.
type ForeignKey struct {
	Column       string `json:"column"`
	ParentTable  string `json:"parentTable"`
	ParentColumn string `json:"parentColumn"`
}

type IndexDef struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// TableDescriptor is the resolved schema of one table. Descriptors are
// immutable once registered; the DAO holds a read-only reference.
type TableDescriptor struct {
	Name        string       `json:"name"`
	Alias       string       `json:"alias"`
	Columns     []ColumnDef  `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
	Indexes     []IndexDef   `json:"indexes,omitempty"`
}

// PrimaryKey returns the designated primary-key column. When the
// primary-key set is composite, the first declared key column is used.
func (t *TableDescriptor) PrimaryKey() (*ColumnDef, error) {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return &t.Columns[i], nil
		}
	}
	return nil, fmt.Errorf("table %s has no primary key column", t.Name)
}

// ColumnByField looks a column up by its external mapped name.
func (t *TableDescriptor) ColumnByField(field string) (*ColumnDef, bool) {
	for i := range t.Columns {
		if t.Columns[i].Field == field {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnByName looks a column up by its SQL column name.
func (t *TableDescriptor) ColumnByName(name string) (*ColumnDef, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ForeignKeysTo returns the foreign keys of this table that reference
// the named parent table.
func (t *TableDescriptor) ForeignKeysTo(parent string) []ForeignKey {
	var fks []ForeignKey
	for _, fk := range t.ForeignKeys {
		if fk.ParentTable == parent {
			fks = append(fks, fk)
		}
	}
	return fks
}

// Validate checks that the descriptor is well formed enough to back a
// DAO: non-empty name and alias, at least one column, a primary key, and
// no duplicate column or field names.
func (t *TableDescriptor) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if t.Alias == "" {
		return fmt.Errorf("table %s: alias cannot be empty", t.Name)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns defined", t.Name)
	}
	names := map[string]bool{}
	fields := map[string]bool{}
	for _, col := range t.Columns {
		if names[col.Name] {
			return fmt.Errorf("table %s: duplicate column %s", t.Name, col.Name)
		}
		if fields[col.Field] {
			return fmt.Errorf("table %s: duplicate field %s", t.Name, col.Field)
		}
		names[col.Name] = true
		fields[col.Field] = true
	}
	if _, err := t.PrimaryKey(); err != nil {
		return err
	}
	for _, fk := range t.ForeignKeys {
		if _, ok := t.ColumnByName(fk.Column); !ok {
			return fmt.Errorf("table %s: foreign key on unknown column %s", t.Name, fk.Column)
		}
	}
	return nil
}

// GenerateColumnDef renders the column's DDL fragment.
func (c ColumnDef) GenerateColumnDef() string {
	if c.PrimaryKey {
		if c.Type == FieldTypeInteger {
			return c.Name + " INTEGER PRIMARY KEY AUTOINCREMENT"
		}
		return fmt.Sprintf("%s %s PRIMARY KEY", c.Name, c.Type)
	}
	def := fmt.Sprintf("%s %s", c.Name, c.Type)
	if !c.Nullable {
		def += " NOT NULL"
	}
	return def
}

// ValidateValue checks a bound value against the column's declared type
// and nullability. A nil value is accepted only for nullable columns.
func (c ColumnDef) ValidateValue(value interface{}) error {
	if value == nil {
		if c.Nullable {
			return nil
		}
		return fmt.Errorf("cannot be null")
	}
	switch c.Type {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("must be a string")
		}
	case FieldTypeInteger:
		switch value.(type) {
		case int, int32, int64:
		default:
			return fmt.Errorf("must be an integer")
		}
	case FieldTypeNumber:
		switch value.(type) {
		case int, int32, int64, float32, float64:
		default:
			return fmt.Errorf("must be numeric")
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("must be a boolean")
		}
	case FieldTypeTimestamp:
		switch v := value.(type) {
		case time.Time:
		case string:
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return fmt.Errorf("must be an RFC3339 timestamp")
			}
		default:
			return fmt.Errorf("must be a timestamp")
		}
	case FieldTypeJSON:
		switch value.(type) {
		case string, map[string]interface{}, []interface{}:
		default:
			return fmt.Errorf("must be a JSON value")
		}
	default:
		return fmt.Errorf("unknown field type %q", c.Type)
	}
	return nil
}

// FieldNames returns the external field names in column order.
func (t *TableDescriptor) FieldNames() []string {
	fields := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		fields[i] = col.Field
	}
	return fields
}

func (t *TableDescriptor) String() string {
	return fmt.Sprintf("%s (%s)", t.Name, strings.Join(t.FieldNames(), ", "))
}
