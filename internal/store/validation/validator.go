// Package validation checks candidate payloads and query parameters
// against a table descriptor before the DAO touches storage.
package validation

import (
	"context"
	"fmt"

	"github.com/sukryu/pStore/internal/store/entity"
	"github.com/sukryu/pStore/internal/store/query"
	"github.com/sukryu/pStore/internal/store/schema"
	"github.com/sukryu/pStore/pkg/errors"
)

// ExistenceProber answers referential-existence questions for
// foreign-key checks. The query engine implements it.
type ExistenceProber interface {
	Exists(ctx context.Context, table *schema.TableDescriptor, id interface{}) (bool, error)
}

type Mode int

const (
	ModeInsert Mode = iota
	ModeUpdate
	ModeDelete
	ModeParams
)

// Validator validates one payload (or parameter mapping) against a
// table descriptor. Validate either succeeds or fails with an ordered
// *errors.ValidationError; storage errors from the existence prober are
// returned as-is.
type Validator struct {
	mode    Mode
	payload entity.Resource
	cond    *query.Condition
	params  query.Params
	table   *schema.TableDescriptor
	catalog schema.Catalog
	prober  ExistenceProber
}

func NewInsertValidator(payload entity.Resource, table *schema.TableDescriptor, catalog schema.Catalog, prober ExistenceProber) *Validator {
	return &Validator{mode: ModeInsert, payload: payload, table: table, catalog: catalog, prober: prober}
}

func NewUpdateValidator(payload entity.Resource, table *schema.TableDescriptor, catalog schema.Catalog, prober ExistenceProber) *Validator {
	return &Validator{mode: ModeUpdate, payload: payload, table: table, catalog: catalog, prober: prober}
}

func NewDeleteValidator(payload entity.Resource, table *schema.TableDescriptor) *Validator {
	return &Validator{mode: ModeDelete, payload: payload, table: table}
}

func NewParamsValidator(cond *query.Condition, params query.Params, table *schema.TableDescriptor) *Validator {
	return &Validator{mode: ModeParams, cond: cond, params: params, table: table}
}

func (v *Validator) Validate(ctx context.Context) error {
	switch v.mode {
	case ModeInsert:
		return v.validatePayload(ctx, false)
	case ModeUpdate:
		return v.validatePayload(ctx, true)
	case ModeDelete:
		return v.validateKey()
	case ModeParams:
		return v.validateParams()
	default:
		return fmt.Errorf("unknown validation mode %d", v.mode)
	}
}

// validatePayload applies the insert rules: required fields present,
// declared types satisfied, unknown fields rejected, foreign keys
// resolving to existing parent rows. Update mode additionally requires
// the primary-key field.
func (v *Validator) validatePayload(ctx context.Context, requireKey bool) error {
	verr := errors.NewValidationError()

	pk, err := v.table.PrimaryKey()
	if err != nil {
		return err
	}

	if requireKey && !v.payload.Has(pk.Field) {
		verr.Add(pk.Field, "is required")
	}

	for _, col := range v.table.Columns {
		value, present := v.payload[col.Field]
		if !present {
			if !col.Nullable && !col.PrimaryKey {
				verr.Add(col.Field, "is required")
			}
			continue
		}
		if err := col.ValidateValue(value); err != nil {
			verr.Add(col.Field, err.Error())
		}
	}

	for field := range v.payload {
		if _, ok := v.table.ColumnByField(field); !ok {
			verr.Add(field, "unknown field")
		}
	}

	if verr.HasErrors() {
		return verr
	}

	if err := v.validateReferences(ctx, verr); err != nil {
		return err
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// validateReferences probes each bound foreign-key value for an existing
// parent row.
func (v *Validator) validateReferences(ctx context.Context, verr *errors.ValidationError) error {
	if v.catalog == nil || v.prober == nil {
		return nil
	}
	for _, fk := range v.table.ForeignKeys {
		col, ok := v.table.ColumnByName(fk.Column)
		if !ok {
			continue
		}
		if !v.payload.Has(col.Field) {
			continue
		}
		parent, err := v.catalog.Table(fk.ParentTable)
		if err != nil {
			return err
		}
		exists, err := v.prober.Exists(ctx, parent, v.payload[col.Field])
		if err != nil {
			return err
		}
		if !exists {
			verr.Add(col.Field, fmt.Sprintf("references a missing %s row", fk.ParentTable))
		}
	}
	return nil
}

// validateKey applies the delete rules: the primary-key field present
// and type-valid. Other fields are ignored.
func (v *Validator) validateKey() error {
	verr := errors.NewValidationError()

	pk, err := v.table.PrimaryKey()
	if err != nil {
		return err
	}

	value, present := v.payload[pk.Field]
	if !present || value == nil {
		verr.Add(pk.Field, "is required")
		return verr
	}
	if err := pk.ValidateValue(value); err != nil {
		verr.Add(pk.Field, err.Error())
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// validateParams checks every placeholder the condition references
// against the column it binds: the placeholder must be bound, and the
// bound value must satisfy the column's declared type and nullability.
func (v *Validator) validateParams() error {
	verr := errors.NewValidationError()

	for _, b := range v.cond.Bindings() {
		col, ok := v.table.ColumnByField(b.Field)
		if !ok {
			verr.Add(b.Field, "unknown field")
			continue
		}
		value, bound := v.params[b.Param]
		if !bound {
			verr.Add(b.Field, fmt.Sprintf("missing parameter %q", b.Param))
			continue
		}
		if err := col.ValidateValue(value); err != nil {
			verr.Add(b.Field, err.Error())
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
