package controllers

import (
	"context"

	"github.com/sukryu/pStore/internal/store/schema"
	"github.com/sukryu/pStore/pkg/apis/store/v1alpha1"
	"github.com/sukryu/pStore/pkg/errors"
)

// SchemaController manages dynamic table schemas: registration creates
// the physical table, persists the descriptor, and publishes it to the
// catalog.
type SchemaController interface {
	CreateSchema(ctx context.Context, ts *v1alpha1.TableSchema) (*v1alpha1.TableSchema, error)
	GetSchema(ctx context.Context, name string) (*v1alpha1.TableSchema, error)
	ListSchemas(ctx context.Context) (*v1alpha1.TableSchemaList, error)
}

type schemaController struct {
	registry *schema.Registry
	store    *schema.Store
	tables   *schema.TableManager
}

func NewSchemaController(registry *schema.Registry, store *schema.Store, tables *schema.TableManager) SchemaController {
	return &schemaController{
		registry: registry,
		store:    store,
		tables:   tables,
	}
}

func (c *schemaController) CreateSchema(ctx context.Context, ts *v1alpha1.TableSchema) (*v1alpha1.TableSchema, error) {
	desc := ts.ToDescriptor()
	if err := desc.Validate(); err != nil {
		return nil, errors.ErrInvalidInput.WithReason(err.Error())
	}

	if _, err := c.registry.Table(desc.Name); err == nil {
		return nil, errors.ErrSchemaExists.WithReason(desc.Name)
	}

	if err := c.tables.CreateTable(ctx, desc); err != nil {
		return nil, errors.ErrStorageOperation.WithReason(err.Error())
	}
	if err := c.store.Save(ctx, desc); err != nil {
		return nil, errors.ErrStorageOperation.WithReason(err.Error())
	}
	if err := c.registry.Register(desc); err != nil {
		return nil, errors.ErrInternal.WithReason(err.Error())
	}

	return v1alpha1.FromDescriptor(desc), nil
}

func (c *schemaController) GetSchema(ctx context.Context, name string) (*v1alpha1.TableSchema, error) {
	desc, err := c.registry.Table(name)
	if err != nil {
		return nil, errors.ErrSchemaNotFound.WithReason(name)
	}
	return v1alpha1.FromDescriptor(desc), nil
}

func (c *schemaController) ListSchemas(ctx context.Context) (*v1alpha1.TableSchemaList, error) {
	list := &v1alpha1.TableSchemaList{}
	for _, desc := range c.registry.Tables() {
		list.Items = append(list.Items, *v1alpha1.FromDescriptor(desc))
	}
	return list, nil
}
