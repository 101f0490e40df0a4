package entity

// Resource represents one row of a dynamic table, keyed by the table's
// external (mapped) field names.
type Resource map[string]interface{}

// Clone returns a shallow copy of the resource.
func (r Resource) Clone() Resource {
	out := make(Resource, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether the field is present with a non-nil value.
func (r Resource) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}
