package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sukryu/pStore/internal/store/entity"
	"github.com/sukryu/pStore/internal/store/schema"
)

// ResultSet maps a table alias to the ordered resources a select
// returned.
type ResultSet map[string][]entity.Resource

// Engine executes schema-driven queries against a database/sql
// connection.
type Engine struct {
	db *sql.DB
}

func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// Select runs a filtered select and returns the matching rows keyed by
// the table's alias, with columns re-keyed to external field names. A
// nil condition selects all rows.
func (e *Engine) Select(ctx context.Context, table *schema.TableDescriptor, where *Condition, params Params) (ResultSet, error) {
	cols := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = col.Name
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table.Name)
	var args []interface{}
	if where != nil {
		clause, err := where.Render(table, params, &args)
		if err != nil {
			return nil, err
		}
		query += " WHERE " + clause
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources, err := scanRows(rows, table)
	if err != nil {
		return nil, err
	}
	return ResultSet{table.Alias: resources}, nil
}

// Insert inserts a single resource and returns the row's identifier.
// TEXT primary keys missing from the resource are assigned a UUID before
// the insert; INTEGER primary keys use the store-assigned rowid.
func (e *Engine) Insert(ctx context.Context, table *schema.TableDescriptor, res entity.Resource) (interface{}, error) {
	pk, err := table.PrimaryKey()
	if err != nil {
		return nil, err
	}

	generated := false
	if pk.Type == schema.FieldTypeString && !res.Has(pk.Field) {
		res[pk.Field] = uuid.NewString()
		generated = true
	}

	cols, vals, err := insertColumns(table, res)
	if err != nil {
		return nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(cols, ", "), placeholders)

	result, err := e.db.ExecContext(ctx, query, vals...)
	if err != nil {
		return nil, err
	}

	if generated || res.Has(pk.Field) {
		return res[pk.Field], nil
	}
	return result.LastInsertId()
}

// InsertBulk inserts all items in one statement and returns them with
// their assigned identifiers attached.
func (e *Engine) InsertBulk(ctx context.Context, table *schema.TableDescriptor, items []entity.Resource) ([]entity.Resource, error) {
	if len(items) == 0 {
		return items, nil
	}

	pk, err := table.PrimaryKey()
	if err != nil {
		return nil, err
	}
	if pk.Type == schema.FieldTypeString {
		for _, item := range items {
			if !item.Has(pk.Field) {
				item[pk.Field] = uuid.NewString()
			}
		}
	}

	// Integer keys are backfilled from the statement's rowids, which only
	// works when every row's key is store-assigned. A batch mixing
	// explicit and generated keys would attribute wrong identifiers, so
	// it is rejected before anything is inserted.
	backfill := false
	if pk.Type == schema.FieldTypeInteger {
		withKey := 0
		for _, item := range items {
			if item.Has(pk.Field) {
				withKey++
			}
		}
		switch withKey {
		case len(items):
		case 0:
			backfill = true
		default:
			return nil, fmt.Errorf("bulk insert into %s mixes explicit and generated %s values",
				table.Name, pk.Field)
		}
	}

	// Insert the union of the fields the items carry, in column order.
	present := map[string]bool{}
	for _, item := range items {
		for field := range item {
			present[field] = true
		}
	}
	var cols []string
	var fields []string
	for _, col := range table.Columns {
		if present[col.Field] {
			cols = append(cols, col.Name)
			fields = append(fields, col.Field)
		}
	}
	for field := range present {
		if _, ok := table.ColumnByField(field); !ok {
			return nil, fmt.Errorf("unknown field %s on table %s", field, table.Name)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no insertable fields for table %s", table.Name)
	}

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	rowClauses := make([]string, len(items))
	args := make([]interface{}, 0, len(items)*len(cols))
	for i, item := range items {
		rowClauses[i] = row
		for _, field := range fields {
			args = append(args, item[field])
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table.Name, strings.Join(cols, ", "), strings.Join(rowClauses, ", "))

	result, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if backfill {
		// SQLite assigns contiguous rowids for a single multi-row insert.
		last, err := result.LastInsertId()
		if err != nil {
			return nil, err
		}
		first := last - int64(len(items)) + 1
		for i, item := range items {
			item[pk.Field] = first + int64(i)
		}
	}
	return items, nil
}

// Update applies the given values to rows matching the condition and
// returns the affected-row count.
func (e *Engine) Update(ctx context.Context, table *schema.TableDescriptor, values entity.Resource, where *Condition, params Params) (int64, error) {
	var setParts []string
	var args []interface{}
	for _, col := range table.Columns {
		if _, ok := values[col.Field]; ok {
			setParts = append(setParts, col.Name+" = ?")
			args = append(args, values[col.Field])
		}
	}
	for field := range values {
		if _, ok := table.ColumnByField(field); !ok {
			return 0, fmt.Errorf("unknown field %s on table %s", field, table.Name)
		}
	}
	if len(setParts) == 0 {
		return 0, fmt.Errorf("no updatable fields for table %s", table.Name)
	}

	query := fmt.Sprintf("UPDATE %s SET %s", table.Name, strings.Join(setParts, ", "))
	if where != nil {
		clause, err := where.Render(table, params, &args)
		if err != nil {
			return 0, err
		}
		query += " WHERE " + clause
	}

	result, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes rows matching the condition and returns the
// affected-row count.
func (e *Engine) Delete(ctx context.Context, table *schema.TableDescriptor, where *Condition, params Params) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s", table.Name)
	var args []interface{}
	if where != nil {
		clause, err := where.Render(table, params, &args)
		if err != nil {
			return 0, err
		}
		query += " WHERE " + clause
	}

	result, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Exists reports whether the table holds a row whose primary key equals
// id. Used for referential-existence checks.
func (e *Engine) Exists(ctx context.Context, table *schema.TableDescriptor, id interface{}) (bool, error) {
	pk, err := table.PrimaryKey()
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? LIMIT 1", table.Name, pk.Name)
	row := e.db.QueryRowContext(ctx, query, id)

	var one int
	err = row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func insertColumns(table *schema.TableDescriptor, res entity.Resource) ([]string, []interface{}, error) {
	var cols []string
	var vals []interface{}
	for _, col := range table.Columns {
		if _, ok := res[col.Field]; ok {
			cols = append(cols, col.Name)
			vals = append(vals, res[col.Field])
		}
	}
	for field := range res {
		if _, ok := table.ColumnByField(field); !ok {
			return nil, nil, fmt.Errorf("unknown field %s on table %s", field, table.Name)
		}
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("no insertable fields for table %s", table.Name)
	}
	return cols, vals, nil
}

// scanRows converts sql.Rows to resources keyed by external field names.
func scanRows(rows *sql.Rows, table *schema.TableDescriptor) ([]entity.Resource, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	resources := make([]entity.Resource, 0)
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		res := make(entity.Resource, len(columns))
		for i, name := range columns {
			field := name
			if col, ok := table.ColumnByName(name); ok {
				field = col.Field
			}
			val := values[i]
			if b, ok := val.([]byte); ok {
				res[field] = string(b)
			} else {
				res[field] = val
			}
		}
		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}
