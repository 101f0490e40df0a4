package controllers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sukryu/pStore/internal/store/dao"
	"github.com/sukryu/pStore/internal/store/entity"
	"github.com/sukryu/pStore/internal/store/query"
	"github.com/sukryu/pStore/internal/store/schema"
	"github.com/sukryu/pStore/pkg/errors"
)

// ResourceController translates the REST surface onto the generic DAO.
type ResourceController interface {
	List(ctx context.Context, table string, filters map[string]string) ([]entity.Resource, error)
	Get(ctx context.Context, table, id string) (entity.Resource, error)
	Create(ctx context.Context, table string, res entity.Resource) (entity.Resource, error)
	Update(ctx context.Context, table, id string, res entity.Resource) (entity.Resource, error)
	Delete(ctx context.Context, table, id string) error
	Replace(ctx context.Context, childTable, parentTable, parentID string, items []entity.Resource) ([]entity.Resource, error)
}

type resourceController struct {
	exec    dao.Executor
	catalog schema.Catalog
}

func NewResourceController(exec dao.Executor, catalog schema.Catalog) ResourceController {
	return &resourceController{exec: exec, catalog: catalog}
}

func (c *resourceController) daoFor(table string) (*dao.GenericDAO, error) {
	d, err := dao.New(c.exec, c.catalog, table)
	if err != nil {
		return nil, errors.ErrTableNotFound.WithReason(table)
	}
	return d, nil
}

func (c *resourceController) List(ctx context.Context, table string, filters map[string]string) ([]entity.Resource, error) {
	d, err := c.daoFor(table)
	if err != nil {
		return nil, err
	}

	var where *query.Condition
	params := query.Params{}
	if len(filters) > 0 {
		var conds []*query.Condition
		for _, col := range d.Table().Columns {
			raw, ok := filters[col.Field]
			if !ok {
				continue
			}
			value, err := coerceValue(col, raw)
			if err != nil {
				verr := errors.NewValidationError()
				verr.Add(col.Field, err.Error())
				return nil, verr
			}
			conds = append(conds, query.Eq(col.Field, col.Field))
			params[col.Field] = value
		}
		if len(conds) == 1 {
			where = conds[0]
		} else if len(conds) > 1 {
			where = query.And(conds...)
		}
	}

	return d.Retrieve(ctx, where, params)
}

func (c *resourceController) Get(ctx context.Context, table, id string) (entity.Resource, error) {
	d, err := c.daoFor(table)
	if err != nil {
		return nil, err
	}
	coerced, err := c.coerceID(d, id)
	if err != nil {
		return nil, err
	}
	return d.RetrieveByID(ctx, coerced)
}

func (c *resourceController) Create(ctx context.Context, table string, res entity.Resource) (entity.Resource, error) {
	d, err := c.daoFor(table)
	if err != nil {
		return nil, err
	}
	return d.Create(ctx, res)
}

func (c *resourceController) Update(ctx context.Context, table, id string, res entity.Resource) (entity.Resource, error) {
	d, err := c.daoFor(table)
	if err != nil {
		return nil, err
	}
	coerced, err := c.coerceID(d, id)
	if err != nil {
		return nil, err
	}
	pk, err := d.Table().PrimaryKey()
	if err != nil {
		return nil, err
	}
	res[pk.Field] = coerced
	return d.Update(ctx, res)
}

func (c *resourceController) Delete(ctx context.Context, table, id string) error {
	d, err := c.daoFor(table)
	if err != nil {
		return err
	}
	coerced, err := c.coerceID(d, id)
	if err != nil {
		return err
	}
	pk, err := d.Table().PrimaryKey()
	if err != nil {
		return err
	}
	_, err = d.Delete(ctx, entity.Resource{pk.Field: coerced})
	return err
}

func (c *resourceController) Replace(ctx context.Context, childTable, parentTable, parentID string, items []entity.Resource) ([]entity.Resource, error) {
	d, err := c.daoFor(childTable)
	if err != nil {
		return nil, err
	}

	parent, err := c.catalog.Table(parentTable)
	if err != nil {
		return nil, errors.ErrTableNotFound.WithReason(parentTable)
	}
	pk, err := parent.PrimaryKey()
	if err != nil {
		return nil, err
	}
	coerced, err := coerceValue(*pk, parentID)
	if err != nil {
		// Replace validates the raw value itself so malformed identifiers
		// surface as a validation error on the parent key.
		return d.Replace(ctx, parentTable, parentID, items)
	}
	return d.Replace(ctx, parentTable, coerced, items)
}

// coerceID converts a path identifier to the primary key's declared
// type.
func (c *resourceController) coerceID(d *dao.GenericDAO, id string) (interface{}, error) {
	pk, err := d.Table().PrimaryKey()
	if err != nil {
		return nil, err
	}
	value, err := coerceValue(*pk, id)
	if err != nil {
		verr := errors.NewValidationError()
		verr.Add(pk.Field, err.Error())
		return nil, verr
	}
	return value, nil
}

func coerceValue(col schema.ColumnDef, raw string) (interface{}, error) {
	switch col.Type {
	case schema.FieldTypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("must be an integer")
		}
		return n, nil
	case schema.FieldTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("must be numeric")
		}
		return f, nil
	case schema.FieldTypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("must be a boolean")
		}
		return b, nil
	default:
		return raw, nil
	}
}
