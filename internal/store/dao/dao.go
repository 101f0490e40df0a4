// Package dao implements a generic, schema-driven data access object.
// Given a table descriptor it maps retrieve, create, update, delete and
// replace operations onto the table without per-entity code. Every
// operation validates its input before any storage call, executes
// through the query engine, interprets the raw result, and surfaces a
// typed error on failure.
package dao

import (
	"context"
	"fmt"
	"sync"

	"github.com/sukryu/pStore/internal/store/entity"
	"github.com/sukryu/pStore/internal/store/query"
	"github.com/sukryu/pStore/internal/store/schema"
	"github.com/sukryu/pStore/internal/store/validation"
	"github.com/sukryu/pStore/pkg/errors"
)

// Executor is the query-execution collaborator. *query.Engine
// implements it; tests wrap it to observe or stub storage calls.
type Executor interface {
	Select(ctx context.Context, table *schema.TableDescriptor, where *query.Condition, params query.Params) (query.ResultSet, error)
	Insert(ctx context.Context, table *schema.TableDescriptor, res entity.Resource) (interface{}, error)
	InsertBulk(ctx context.Context, table *schema.TableDescriptor, items []entity.Resource) ([]entity.Resource, error)
	Update(ctx context.Context, table *schema.TableDescriptor, values entity.Resource, where *query.Condition, params query.Params) (int64, error)
	Delete(ctx context.Context, table *schema.TableDescriptor, where *query.Condition, params query.Params) (int64, error)
	Exists(ctx context.Context, table *schema.TableDescriptor, id interface{}) (bool, error)
}

// Precondition is a caller-supplied predicate run between validation and
// the mutation. Its failure propagates unchanged and blocks the
// mutation.
type Precondition func(ctx context.Context, res entity.Resource) error

// ErrorHook produces the error that actually propagates from a failure
// path, given the default error. It replaces, never suppresses.
type ErrorHook func(err error) error

// GenericDAO exposes the generic operation set for one table. It is
// stateless after construction and safe for concurrent use.
type GenericDAO struct {
	exec    Executor
	catalog schema.Catalog
	table   *schema.TableDescriptor
}

// New resolves the table's descriptor from the catalog and returns a DAO
// bound to it.
func New(exec Executor, catalog schema.Catalog, tableName string) (*GenericDAO, error) {
	table, err := catalog.Table(tableName)
	if err != nil {
		return nil, err
	}
	return &GenericDAO{exec: exec, catalog: catalog, table: table}, nil
}

// Table returns the descriptor the DAO is bound to.
func (d *GenericDAO) Table() *schema.TableDescriptor {
	return d.table
}

// Retrieve returns the ordered resources matching the condition, or all
// rows when where is nil. The parameter mapping is validated against the
// table's column types before any query executes.
func (d *GenericDAO) Retrieve(ctx context.Context, where *query.Condition, params query.Params) ([]entity.Resource, error) {
	if params == nil {
		params = query.Params{}
	}
	if where != nil {
		if err := validation.NewParamsValidator(where, params, d.table).Validate(ctx); err != nil {
			return nil, err
		}
	}

	rs, err := d.exec.Select(ctx, d.table, where, params)
	if err != nil {
		return nil, err
	}
	return rs[d.table.Alias], nil
}

// RetrieveSingle returns the first resource matching the condition. An
// empty result fails with a NotFoundError; onNotFound, when supplied,
// produces the error that propagates instead.
func (d *GenericDAO) RetrieveSingle(ctx context.Context, where *query.Condition, params query.Params, onNotFound ErrorHook) (entity.Resource, error) {
	resources, err := d.Retrieve(ctx, where, params)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		var notFound error = errors.NewNotFoundError("Resource not found.")
		if onNotFound != nil {
			// The hook replaces the error, never suppresses it.
			if replaced := onNotFound(notFound); replaced != nil {
				notFound = replaced
			}
		}
		return nil, notFound
	}
	return resources[0], nil
}

// RetrieveByID retrieves the resource whose primary key equals id. Its
// not-found error names the key: "Invalid {pk}.".
func (d *GenericDAO) RetrieveByID(ctx context.Context, id interface{}) (entity.Resource, error) {
	pk, err := d.table.PrimaryKey()
	if err != nil {
		return nil, err
	}

	where := query.Eq(pk.Field, pk.Field)
	params := query.Params{pk.Field: id}
	return d.RetrieveSingle(ctx, where, params, func(error) error {
		return errors.NewNotFoundError(fmt.Sprintf("Invalid %s.", pk.Field))
	})
}

// IsUnique resolves true when no row matches the condition. Otherwise it
// fails with a DuplicateError carrying the first match's primary-key
// value; onDupe, when supplied, produces the propagated error.
func (d *GenericDAO) IsUnique(ctx context.Context, where *query.Condition, params query.Params, onDupe ErrorHook) (bool, error) {
	resources, err := d.Retrieve(ctx, where, params)
	if err != nil {
		return false, err
	}
	if len(resources) == 0 {
		return true, nil
	}

	pk, err := d.table.PrimaryKey()
	if err != nil {
		return false, err
	}
	var dupe error = errors.NewDuplicateError(resources[0][pk.Field])
	if onDupe != nil {
		// The hook replaces the error, never suppresses it.
		if replaced := onDupe(dupe); replaced != nil {
			dupe = replaced
		}
	}
	return false, dupe
}

// CreateIf validates the resource for insertion, runs the precondition,
// and inserts. The resource is mutated in place to attach the generated
// identifier. Precondition failures propagate unchanged; on validation
// failure no storage call is made and the precondition never runs.
func (d *GenericDAO) CreateIf(ctx context.Context, res entity.Resource, cond Precondition) (entity.Resource, error) {
	if err := validation.NewInsertValidator(res, d.table, d.catalog, d.exec).Validate(ctx); err != nil {
		return nil, err
	}
	if err := cond(ctx, res); err != nil {
		return nil, err
	}

	id, err := d.exec.Insert(ctx, d.table, res)
	if err != nil {
		return nil, err
	}

	pk, err := d.table.PrimaryKey()
	if err != nil {
		return nil, err
	}
	res[pk.Field] = id
	return res, nil
}

// Create is CreateIf with an always-passing precondition.
func (d *GenericDAO) Create(ctx context.Context, res entity.Resource) (entity.Resource, error) {
	return d.CreateIf(ctx, res, alwaysPass)
}

// UpdateIf validates the resource for update (primary key required),
// runs the precondition, and updates the row by primary key. One
// affected row resolves with the resource; zero fails with a
// NotFoundError.
func (d *GenericDAO) UpdateIf(ctx context.Context, res entity.Resource, cond Precondition) (entity.Resource, error) {
	if err := validation.NewUpdateValidator(res, d.table, d.catalog, d.exec).Validate(ctx); err != nil {
		return nil, err
	}
	if err := cond(ctx, res); err != nil {
		return nil, err
	}

	pk, err := d.table.PrimaryKey()
	if err != nil {
		return nil, err
	}

	values := res.Clone()
	delete(values, pk.Field)

	where := query.Eq(pk.Field, pk.Field)
	params := query.Params{pk.Field: res[pk.Field]}
	affected, err := d.exec.Update(ctx, d.table, values, where, params)
	if err != nil {
		return nil, err
	}
	return res, d.interpretAffected(affected)
}

// Update is UpdateIf with an always-passing precondition.
func (d *GenericDAO) Update(ctx context.Context, res entity.Resource) (entity.Resource, error) {
	return d.UpdateIf(ctx, res, alwaysPass)
}

// Delete removes the row identified by the resource's primary key. One
// affected row resolves with the resource; zero fails with a
// NotFoundError.
func (d *GenericDAO) Delete(ctx context.Context, res entity.Resource) (entity.Resource, error) {
	if err := validation.NewDeleteValidator(res, d.table).Validate(ctx); err != nil {
		return nil, err
	}

	pk, err := d.table.PrimaryKey()
	if err != nil {
		return nil, err
	}

	where := query.Eq(pk.Field, pk.Field)
	params := query.Params{pk.Field: res[pk.Field]}
	affected, err := d.exec.Delete(ctx, d.table, where, params)
	if err != nil {
		return nil, err
	}
	return res, d.interpretAffected(affected)
}

// interpretAffected maps an affected-row count from a by-key mutation to
// the operation outcome. A count above one means the primary-key filter
// matched an unexpected row set and is treated as a fatal invariant
// violation.
func (d *GenericDAO) interpretAffected(affected int64) error {
	switch affected {
	case 1:
		return nil
	case 0:
		return errors.NewNotFoundError("Resource not found.")
	default:
		return errors.ErrStorageOperation.WithReason(
			fmt.Sprintf("primary key mutation on %s affected %d rows", d.table.Name, affected))
	}
}

// Replace discards every child row of the given parent and installs the
// new set in its place. No delete happens until every new item has
// passed validation; storage failures from the delete or insert steps
// propagate unchanged.
func (d *GenericDAO) Replace(ctx context.Context, parentTable string, parentID interface{}, resources []entity.Resource) ([]entity.Resource, error) {
	parent, err := d.catalog.Table(parentTable)
	if err != nil {
		return nil, err
	}
	parentPK, err := parent.PrimaryKey()
	if err != nil {
		return nil, err
	}

	key := entity.Resource{parentPK.Field: parentID}
	if err := validation.NewDeleteValidator(key, parent).Validate(ctx); err != nil {
		return nil, err
	}

	fks, err := d.catalog.RelationshipsBetween(d.table.Name, parentTable)
	if err != nil {
		return nil, err
	}
	if len(fks) != 1 {
		return nil, errors.NewConfigError(
			"expected exactly one relationship between %s and %s, found %d",
			d.table.Name, parentTable, len(fks))
	}
	fkCol, ok := d.table.ColumnByName(fks[0].Column)
	if !ok {
		return nil, errors.NewConfigError(
			"foreign key column %s is not declared on %s", fks[0].Column, d.table.Name)
	}
	ownPK, err := d.table.PrimaryKey()
	if err != nil {
		return nil, err
	}

	// The new rows belong to the parent and must not inherit identifiers.
	for _, res := range resources {
		res[fkCol.Field] = parentID
		delete(res, ownPK.Field)
	}

	if err := d.validateAll(ctx, resources); err != nil {
		return nil, err
	}

	where := query.Eq(fkCol.Field, fkCol.Field)
	params := query.Params{fkCol.Field: parentID}
	if _, err := d.exec.Delete(ctx, d.table, where, params); err != nil {
		return nil, err
	}

	return d.exec.InsertBulk(ctx, d.table, resources)
}

// validateAll runs insert-mode validation over all items as a concurrent
// batch. Every validation is allowed to finish so the aggregate error
// list covers all items, in item order.
func (d *GenericDAO) validateAll(ctx context.Context, resources []entity.Resource) error {
	results := make([]error, len(resources))
	var wg sync.WaitGroup
	for i, res := range resources {
		wg.Add(1)
		go func(i int, res entity.Resource) {
			defer wg.Done()
			results[i] = validation.NewInsertValidator(res, d.table, d.catalog, d.exec).Validate(ctx)
		}(i, res)
	}
	wg.Wait()

	agg := errors.NewValidationError()
	for i, err := range results {
		if err == nil {
			continue
		}
		verr, ok := err.(*errors.ValidationError)
		if !ok {
			// Storage failure from a referential probe; pass through.
			return err
		}
		agg.Merge(fmt.Sprintf("resources[%d]", i), verr)
	}
	if agg.HasErrors() {
		return agg
	}
	return nil
}

func alwaysPass(context.Context, entity.Resource) error {
	return nil
}
