package entity

import (
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// FieldRecord maps every declared field to its extracted value or constants.NotFound.
// The zero value is not usable; build one with NewFieldRecord.
type FieldRecord struct {
	values map[constants.Field]string
}

// NewFieldRecord returns a record with every field set to the sentinel.
func NewFieldRecord() FieldRecord {
	values := make(map[constants.Field]string, len(constants.Columns))
	for _, c := range constants.Columns {
		values[c.Field] = constants.NotFound
	}
	return FieldRecord{values: values}
}

// Set stores v for f. Unknown fields are rejected so the key set never grows.
func (r FieldRecord) Set(f constants.Field, v string) error {
	if !constants.IsField(f) {
		return fmt.Errorf("unknown field %q", f)
	}
	if v == "" {
		v = constants.NotFound
	}
	r.values[f] = v
	return nil
}

// Get returns the value for f, or the sentinel for an unknown field.
func (r FieldRecord) Get(f constants.Field) string {
	if v, ok := r.values[f]; ok {
		return v
	}
	return constants.NotFound
}

// Found reports whether f holds a matched value.
func (r FieldRecord) Found(f constants.Field) bool {
	v, ok := r.values[f]
	return ok && v != constants.NotFound
}

// Matched counts fields that hold a matched value.
func (r FieldRecord) Matched() int {
	n := 0
	for _, v := range r.values {
		if v != constants.NotFound {
			n++
		}
	}
	return n
}

// Keys returns the field keys in column order.
func (r FieldRecord) Keys() []constants.Field {
	keys := make([]constants.Field, 0, len(r.values))
	for _, c := range constants.Columns {
		if _, ok := r.values[c.Field]; ok {
			keys = append(keys, c.Field)
		}
	}
	return keys
}

// Row projects the record onto the template columns.
func (r FieldRecord) Row() []string {
	row := make([]string, len(constants.Columns))
	for i, c := range constants.Columns {
		row[i] = r.Get(c.Field)
	}
	return row
}

// Map returns a copy keyed by field name.
func (r FieldRecord) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[string(k)] = v
	}
	return out
}

func (r FieldRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
