package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// TableManager creates the physical tables and indexes a descriptor
// describes.
type TableManager struct {
	db *sql.DB
}

func NewTableManager(db *sql.DB) *TableManager {
	return &TableManager{db: db}
}

// CreateTable issues CREATE TABLE IF NOT EXISTS for the descriptor,
// including foreign-key clauses, then creates its declared indexes.
func (tm *TableManager) CreateTable(ctx context.Context, desc *TableDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	defs := make([]string, 0, len(desc.Columns)+len(desc.ForeignKeys))
	for _, col := range desc.Columns {
		defs = append(defs, col.GenerateColumnDef())
	}
	for _, fk := range desc.ForeignKeys {
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			fk.Column, fk.ParentTable, fk.ParentColumn))
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		desc.Name, strings.Join(defs, ", "))
	if _, err := tm.db.ExecContext(ctx, query); err != nil {
		return err
	}

	for _, idx := range desc.Indexes {
		if err := tm.createIndex(ctx, desc.Name, idx); err != nil {
			return err
		}
	}
	return nil
}

func (tm *TableManager) createIndex(ctx context.Context, tableName string, idx IndexDef) error {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	query := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, idx.Name, tableName, strings.Join(idx.Columns, ", "))
	_, err := tm.db.ExecContext(ctx, query)
	return err
}

// DropTable removes the physical table.
func (tm *TableManager) DropTable(ctx context.Context, tableName string) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	_, err := tm.db.ExecContext(ctx, query)
	return err
}

// TableExists reports whether the physical table is present.
func (tm *TableManager) TableExists(ctx context.Context, tableName string) (bool, error) {
	query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
	row := tm.db.QueryRowContext(ctx, query, tableName)

	var name string
	err := row.Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
