package oid

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/syssam/pgcomposite"
)

// Field is a named, typed subfield of a composite type.
type Field struct {
	Name    string
	Handler Handler
}

// Composite is the codec of a composite (row) type. It is immutable after
// construction and safe for concurrent use.
type Composite struct {
	fields []Field
	names  []string
	delim  byte
}

// CompositeOption configures a Composite.
type CompositeOption func(*Composite)

// WithDelimiter sets the field delimiter. The default is ','.
func WithDelimiter(d byte) CompositeOption {
	return func(c *Composite) {
		c.delim = d
	}
}

// NewComposite returns a codec over fields in declaration order.
// Field names must be unique and every field needs a handler.
func NewComposite(fields []Field, opts ...CompositeOption) (*Composite, error) {
	c := &Composite{
		fields: slices.Clip(slices.Clone(fields)),
		names:  make([]string, len(fields)),
		delim:  ',',
	}
	for _, opt := range opts {
		opt(c)
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("oid: composite field %d has no name", i)
		}
		if f.Handler == nil {
			return nil, fmt.Errorf("oid: composite field %q has no handler", f.Name)
		}
		if _, ok := seen[f.Name]; ok {
			return nil, fmt.Errorf("oid: duplicate composite field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		c.names[i] = f.Name
	}
	return c, nil
}

// Fields returns the subfield descriptors.
func (c *Composite) Fields() []Field { return slices.Clone(c.fields) }

// Delimiter returns the field delimiter.
func (c *Composite) Delimiter() byte { return c.delim }

// Equal reports whether h is a composite with equal field descriptors.
// The delimiter is not compared.
func (c *Composite) Equal(h Handler) bool {
	o, ok := h.(*Composite)
	if !ok || o == nil {
		return false
	}
	if c == o {
		return true
	}
	return slices.EqualFunc(c.fields, o.fields, func(a, b Field) bool {
		return a.Name == b.Name && HandlerEqual(a.Handler, b.Handler)
	})
}

// Cast implements Handler. The result is always a *Record.
func (c *Composite) Cast(v any) (any, error) {
	r, err := c.CastRecord(v)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CastRecord casts composite text, a positional slice, or a mapping keyed
// by field name into a record. Blank input yields a record of nil fields.
func (c *Composite) CastRecord(v any) (*Record, error) {
	r := NewRecord(c.names...)
	if blank(v) {
		return r, nil
	}
	if err := c.fill(r, v); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Composite) fill(r *Record, v any) error {
	switch x := v.(type) {
	case string:
		return c.castSlice(r, c.split(x))
	case []byte:
		return c.castSlice(r, c.split(string(x)))
	case []any:
		return c.castSlice(r, x)
	case *Record:
		return c.castMap(r, x.Map())
	case map[string]any:
		return c.castMap(r, x)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
		elems := make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return c.castSlice(r, elems)
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		m := make(map[string]any, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			m[it.Key().String()] = it.Value().Interface()
		}
		return c.castMap(r, m)
	}
	return pgcomposite.NewInvalidValueError("composite", v)
}

// split strips the enclosing parentheses and decodes every field.
func (c *Composite) split(s string) []any {
	raw := Split(trimParens(s), c.delim)
	elems := make([]any, len(raw))
	for i, f := range raw {
		elems[i] = Unescape(f)
	}
	return elems
}

// castSlice assigns elems positionally. Missing elements cast as nil and
// extra elements are ignored.
func (c *Composite) castSlice(r *Record, elems []any) error {
	for i, f := range c.fields {
		var e any
		if i < len(elems) {
			e = elems[i]
		}
		v, err := f.Handler.Cast(e)
		if err != nil {
			return fmt.Errorf("oid: cast composite field %q: %w", f.Name, err)
		}
		r.values[i] = v
	}
	return nil
}

// castMap assigns declared keys; undeclared keys are ignored.
func (c *Composite) castMap(r *Record, m map[string]any) error {
	for i, f := range c.fields {
		e, ok := m[f.Name]
		if !ok {
			continue
		}
		v, err := f.Handler.Cast(e)
		if err != nil {
			return fmt.Errorf("oid: cast composite field %q: %w", f.Name, err)
		}
		r.values[i] = v
	}
	return nil
}

// Serialize implements Handler. It accepts a *Record or a map keyed by
// field name and returns composite text, or nil when every field
// serializes blank.
func (c *Composite) Serialize(v any) (any, error) {
	var get func(string) any
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Record:
		if x == nil {
			return nil, nil
		}
		get = func(n string) any { e, _ := x.Get(n); return e }
	case map[string]any:
		get = func(n string) any { return x[n] }
	default:
		return nil, pgcomposite.NewInvalidValueError("composite", v)
	}

	entries := make([]*string, len(c.fields))
	empty := true
	for i, f := range c.fields {
		out, err := f.Handler.Serialize(get(f.Name))
		if err != nil {
			return nil, fmt.Errorf("oid: serialize composite field %q: %w", f.Name, err)
		}
		if out == nil {
			continue
		}
		s, ok := text(out)
		if !ok {
			return nil, fmt.Errorf("oid: serialize composite field %q: unsupported %T", f.Name, out)
		}
		entries[i] = &s
		if s != "" {
			empty = false
		}
	}
	if empty {
		return nil, nil
	}
	return EncodeFields(entries, c.delim), nil
}

// blank reports nil, empty strings and empty collections.
func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	case *Record:
		return x == nil || x.Len() == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}
