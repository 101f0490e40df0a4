package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/sukryu/pStore/internal/store/schema"
)

// TableSchema defines a dynamic table resource.
type TableSchema struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec TableSchemaSpec `json:"spec"`
}

type TableSchemaSpec struct {
	TableName   string           `json:"tableName"`
	Alias       string           `json:"alias"`
	Columns     []ColumnSpec     `json:"columns"`
	ForeignKeys []ForeignKeySpec `json:"foreignKeys,omitempty"`
	Indexes     []IndexSpec      `json:"indexes,omitempty"`
}

type ColumnSpec struct {
	Name       string `json:"name"`
	Field      string `json:"field,omitempty"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable,omitempty"`
	PrimaryKey bool   `json:"primaryKey,omitempty"`
}

type ForeignKeySpec struct {
	Column       string `json:"column"`
	ParentTable  string `json:"parentTable"`
	ParentColumn string `json:"parentColumn"`
}

type IndexSpec struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// TableSchemaList contains a list of TableSchema
type TableSchemaList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []TableSchema `json:"items"`
}

// ToDescriptor converts the API object to the catalog's descriptor
// form. Columns without an explicit field name map to their column name.
func (in *TableSchema) ToDescriptor() *schema.TableDescriptor {
	desc := &schema.TableDescriptor{
		Name:  in.Spec.TableName,
		Alias: in.Spec.Alias,
	}
	if desc.Alias == "" {
		desc.Alias = desc.Name
	}
	for _, col := range in.Spec.Columns {
		field := col.Field
		if field == "" {
			field = col.Name
		}
		desc.Columns = append(desc.Columns, schema.ColumnDef{
			Name:       col.Name,
			Field:      field,
			Type:       schema.FieldType(col.Type),
			Nullable:   col.Nullable,
			PrimaryKey: col.PrimaryKey,
		})
	}
	for _, fk := range in.Spec.ForeignKeys {
		desc.ForeignKeys = append(desc.ForeignKeys, schema.ForeignKey{
			Column:       fk.Column,
			ParentTable:  fk.ParentTable,
			ParentColumn: fk.ParentColumn,
		})
	}
	for _, idx := range in.Spec.Indexes {
		desc.Indexes = append(desc.Indexes, schema.IndexDef{
			Name:    idx.Name,
			Columns: idx.Columns,
			Unique:  idx.Unique,
		})
	}
	return desc
}

// FromDescriptor builds the API object for a registered descriptor.
func FromDescriptor(desc *schema.TableDescriptor) *TableSchema {
	ts := &TableSchema{
		TypeMeta: metav1.TypeMeta{
			Kind:       "TableSchema",
			APIVersion: "store.pstore.dev/v1alpha1",
		},
		ObjectMeta: metav1.ObjectMeta{Name: desc.Name},
		Spec: TableSchemaSpec{
			TableName: desc.Name,
			Alias:     desc.Alias,
		},
	}
	for _, col := range desc.Columns {
		ts.Spec.Columns = append(ts.Spec.Columns, ColumnSpec{
			Name:       col.Name,
			Field:      col.Field,
			Type:       string(col.Type),
			Nullable:   col.Nullable,
			PrimaryKey: col.PrimaryKey,
		})
	}
	for _, fk := range desc.ForeignKeys {
		ts.Spec.ForeignKeys = append(ts.Spec.ForeignKeys, ForeignKeySpec{
			Column:       fk.Column,
			ParentTable:  fk.ParentTable,
			ParentColumn: fk.ParentColumn,
		})
	}
	for _, idx := range desc.Indexes {
		ts.Spec.Indexes = append(ts.Spec.Indexes, IndexSpec{
			Name:    idx.Name,
			Columns: idx.Columns,
			Unique:  idx.Unique,
		})
	}
	return ts
}

// DeepCopy implements runtime.Object interface
func (in *TableSchema) DeepCopy() *TableSchema {
	if in == nil {
		return nil
	}
	out := new(TableSchema)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object interface
func (in *TableSchema) DeepCopyObject() runtime.Object {
	return in.DeepCopy()
}

// DeepCopyInto copies all properties into another TableSchema
func (in *TableSchema) DeepCopyInto(out *TableSchema) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	out.Spec = in.Spec
	if in.Spec.Columns != nil {
		out.Spec.Columns = make([]ColumnSpec, len(in.Spec.Columns))
		copy(out.Spec.Columns, in.Spec.Columns)
	}
	if in.Spec.ForeignKeys != nil {
		out.Spec.ForeignKeys = make([]ForeignKeySpec, len(in.Spec.ForeignKeys))
		copy(out.Spec.ForeignKeys, in.Spec.ForeignKeys)
	}
	if in.Spec.Indexes != nil {
		out.Spec.Indexes = make([]IndexSpec, len(in.Spec.Indexes))
		for i := range in.Spec.Indexes {
			out.Spec.Indexes[i] = in.Spec.Indexes[i]
			if in.Spec.Indexes[i].Columns != nil {
				out.Spec.Indexes[i].Columns = make([]string, len(in.Spec.Indexes[i].Columns))
				copy(out.Spec.Indexes[i].Columns, in.Spec.Indexes[i].Columns)
			}
		}
	}
}

// DeepCopy for TableSchemaList using DeepCopyInto
func (in *TableSchemaList) DeepCopy() *TableSchemaList {
	if in == nil {
		return nil
	}
	out := new(TableSchemaList)
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]TableSchema, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
	return out
}

// DeepCopyObject implements runtime.Object interface
func (in *TableSchemaList) DeepCopyObject() runtime.Object {
	return in.DeepCopy()
}
