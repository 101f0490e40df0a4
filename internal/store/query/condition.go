package query

import (
	"fmt"
	"strings"

	"github.com/sukryu/pStore/internal/store/schema"
)

// Op is the operator variant of a condition node.
type Op string

const (
	OpEq      Op = "eq"
	OpNotEq   Op = "ne"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpLike    Op = "like"
	OpIsNull  Op = "isnull"
	OpNotNull Op = "notnull"
	OpAnd     Op = "and"
	OpOr      Op = "or"
)

var sqlOps = map[Op]string{
	OpEq:    "=",
	OpNotEq: "!=",
	OpGt:    ">",
	OpGte:   ">=",
	OpLt:    "<",
	OpLte:   "<=",
	OpLike:  "LIKE",
}

// Condition is a declarative predicate tree over a table's external
// field names. Leaf nodes bind one column to a named placeholder (or
// test it for null); and/or nodes combine children.
type Condition struct {
	Op       Op
	Field    string
	Param    string
	Children []*Condition
}

// Params maps placeholder names to bound values.
type Params map[string]interface{}

func Eq(field, param string) *Condition {
	return &Condition{Op: OpEq, Field: field, Param: param}
}

func NotEq(field, param string) *Condition {
	return &Condition{Op: OpNotEq, Field: field, Param: param}
}

func Gt(field, param string) *Condition {
	return &Condition{Op: OpGt, Field: field, Param: param}
}

func Gte(field, param string) *Condition {
	return &Condition{Op: OpGte, Field: field, Param: param}
}

func Lt(field, param string) *Condition {
	return &Condition{Op: OpLt, Field: field, Param: param}
}

func Lte(field, param string) *Condition {
	return &Condition{Op: OpLte, Field: field, Param: param}
}

func Like(field, param string) *Condition {
	return &Condition{Op: OpLike, Field: field, Param: param}
}

func IsNull(field string) *Condition {
	return &Condition{Op: OpIsNull, Field: field}
}

func NotNull(field string) *Condition {
	return &Condition{Op: OpNotNull, Field: field}
}

func And(children ...*Condition) *Condition {
	return &Condition{Op: OpAnd, Children: children}
}

func Or(children ...*Condition) *Condition {
	return &Condition{Op: OpOr, Children: children}
}

// Binding is one (field, placeholder) pair referenced by a condition.
type Binding struct {
	Field string
	Param string
}

// Bindings walks the tree and returns every placeholder-carrying leaf in
// declaration order.
func (c *Condition) Bindings() []Binding {
	if c == nil {
		return nil
	}
	switch c.Op {
	case OpAnd, OpOr:
		var out []Binding
		for _, child := range c.Children {
			out = append(out, child.Bindings()...)
		}
		return out
	case OpIsNull, OpNotNull:
		return nil
	default:
		return []Binding{{Field: c.Field, Param: c.Param}}
	}
}

// Render produces the SQL clause for the condition against the given
// table, appending bound values to args in placeholder order. Unknown
// fields and unbound placeholders are rejected.
func (c *Condition) Render(table *schema.TableDescriptor, params Params, args *[]interface{}) (string, error) {
	if c == nil {
		return "", nil
	}
	switch c.Op {
	case OpAnd, OpOr:
		if len(c.Children) == 0 {
			return "", fmt.Errorf("%s condition has no children", c.Op)
		}
		parts := make([]string, len(c.Children))
		for i, child := range c.Children {
			part, err := child.Render(table, params, args)
			if err != nil {
				return "", err
			}
			parts[i] = part
		}
		joiner := " AND "
		if c.Op == OpOr {
			joiner = " OR "
		}
		return "(" + strings.Join(parts, joiner) + ")", nil
	case OpIsNull, OpNotNull:
		col, ok := table.ColumnByField(c.Field)
		if !ok {
			return "", fmt.Errorf("unknown field %s on table %s", c.Field, table.Name)
		}
		if c.Op == OpIsNull {
			return col.Name + " IS NULL", nil
		}
		return col.Name + " IS NOT NULL", nil
	default:
		op, ok := sqlOps[c.Op]
		if !ok {
			return "", fmt.Errorf("unknown operator %q", c.Op)
		}
		col, found := table.ColumnByField(c.Field)
		if !found {
			return "", fmt.Errorf("unknown field %s on table %s", c.Field, table.Name)
		}
		value, bound := params[c.Param]
		if !bound {
			return "", fmt.Errorf("placeholder %s has no bound parameter", c.Param)
		}
		*args = append(*args, value)
		return fmt.Sprintf("%s %s ?", col.Name, op), nil
	}
}
