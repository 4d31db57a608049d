package oid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is a composite value: one slot per declared field, in declaration
// order. A Record always holds every field name; absent fields are nil.
type Record struct {
	names  []string
	index  map[string]int
	values []any
}

// NewRecord returns a record with the given field names, all nil.
func NewRecord(names ...string) *Record {
	r := &Record{
		names:  slices.Clip(slices.Clone(names)),
		index:  make(map[string]int, len(names)),
		values: make([]any, len(names)),
	}
	for i, n := range r.names {
		r.index[n] = i
	}
	return r
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.names) }

// Names returns the field names in declaration order.
func (r *Record) Names() []string { return slices.Clone(r.names) }

// Values returns the field values in declaration order.
func (r *Record) Values() []any { return slices.Clone(r.values) }

// Has reports whether name is a declared field.
func (r *Record) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Get returns the value of field name and whether the field is declared.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Set stores v in field name. It reports false for undeclared fields.
func (r *Record) Set(name string, v any) bool {
	i, ok := r.index[name]
	if ok {
		r.values[i] = v
	}
	return ok
}

// Map returns the record as a map keyed by field name.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.names))
	for i, n := range r.names {
		m[n] = r.values[i]
	}
	return m
}

// Equal reports structural equality: same field names in the same order
// with deeply equal values.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return slices.Equal(r.names, o.names) && reflect.DeepEqual(r.values, o.values)
}

// String implements fmt.Stringer.
func (r *Record) String() string {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", n, r.values[i])
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the record as an object with keys in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("oid: marshal field %q: %w", n, err)
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

var (
	_ msgpack.CustomEncoder = (*Record)(nil)
	_ msgpack.CustomDecoder = (*Record)(nil)
)

// EncodeMsgpack encodes the record as a map with keys in field order.
func (r *Record) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(r.names)); err != nil {
		return err
	}
	for i, n := range r.names {
		if err := enc.EncodeString(n); err != nil {
			return err
		}
		if err := enc.Encode(r.values[i]); err != nil {
			return fmt.Errorf("oid: encode field %q: %w", n, err)
		}
	}
	return nil
}

// DecodeMsgpack decodes a map written by EncodeMsgpack. The field order of
// the stream becomes the record's field order.
func (r *Record) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n < 0 {
		*r = *NewRecord()
		return nil
	}
	names := make([]string, 0, n)
	values := make([]any, 0, n)
	for range n {
		k, err := dec.DecodeString()
		if err != nil {
			return err
		}
		v, err := dec.DecodeInterface()
		if err != nil {
			return fmt.Errorf("oid: decode field %q: %w", k, err)
		}
		names = append(names, k)
		values = append(values, v)
	}
	*r = *NewRecord(names...)
	copy(r.values, values)
	return nil
}
