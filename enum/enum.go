// Package enum implements ordered enumeration values backed by the label
// list a PostgreSQL enum type declares.
//
// A Type names a database enum and resolves its labels lazily through a
// Cache. Values of a Type compare by label position, not lexically:
//
//	status := enum.Define("content_status")
//	draft, _ := status.New("draft")
//	ok, _ := draft.Greater("created") // true
//
// Values are immutable; Replace returns a new Value of the same Type.
package enum

import (
	"context"
	"math"
	"reflect"
	"slices"
	"sync"

	"github.com/syssam/pgcomposite"
)

// Type is an enum type family identified by its database type name.
type Type struct {
	name   string
	cache  *Cache
	static []string

	checkOnce sync.Once
	staticErr error
}

// Option configures a Type.
type Option func(*Type)

// WithCache resolves labels through c instead of the Default cache.
func WithCache(c *Cache) Option {
	return func(t *Type) {
		t.cache = c
	}
}

// WithLabels binds a fixed label set to the type. No source is consulted.
func WithLabels(labels ...string) Option {
	return func(t *Type) {
		t.static = slices.Clip(slices.Clone(labels))
	}
}

// Define returns the enum type with the given database name.
func Define(name string, opts ...Option) *Type {
	t := &Type{name: name, cache: Default}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the database type name.
func (t *Type) Name() string { return t.name }

// String implements fmt.Stringer.
func (t *Type) String() string { return t.name }

// Labels returns the ordered label set, resolving it on first use.
func (t *Type) Labels(ctx context.Context) ([]string, error) {
	if t.static != nil {
		t.checkOnce.Do(func() {
			t.staticErr = checkLabels(t.name, t.static)
		})
		if t.staticErr != nil {
			return nil, t.staticErr
		}
		return t.static, nil
	}
	return t.cache.Labels(ctx, t.name)
}

func (t *Type) labels() ([]string, error) {
	return t.Labels(context.Background())
}

// Len returns the number of labels.
func (t *Type) Len() (int, error) {
	labels, err := t.labels()
	if err != nil {
		return 0, err
	}
	return len(labels), nil
}

// New builds a value from v. Blank input (nil, "", an empty slice or map)
// yields a nil Value and no error. Integers select a label by position,
// strings by name, and values of the same type are copied.
func (t *Type) New(v any) (*Value, error) {
	if isBlank(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case *Value:
		return t.fromValue(*x)
	case Value:
		return t.fromValue(x)
	case string:
		return t.Of(x)
	case []byte:
		return t.Of(string(x))
	}
	if n, ok := number(v); ok {
		return t.fromNumber(v, n)
	}
	return nil, pgcomposite.NewInvalidValueError(t.name, v)
}

// MustNew is like New but panics on error.
func (t *Type) MustNew(v any) *Value {
	val, err := t.New(v)
	if err != nil {
		panic(err)
	}
	return val
}

// At returns the value at position i.
func (t *Type) At(i int) (*Value, error) {
	labels, err := t.labels()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(labels) {
		return nil, pgcomposite.NewOutOfBoundsError(t.name, i, len(labels))
	}
	return &Value{typ: t, labels: labels, index: i}, nil
}

// Of returns the value for label. The index is the label's position in the
// set, never a number embedded in the label text.
func (t *Type) Of(label string) (*Value, error) {
	labels, err := t.labels()
	if err != nil {
		return nil, err
	}
	i := slices.Index(labels, label)
	if i < 0 {
		return nil, pgcomposite.NewUnknownLabelError(t.name, label)
	}
	return &Value{typ: t, labels: labels, index: i}, nil
}

// Values returns every value of the type in label order.
func (t *Type) Values() ([]*Value, error) {
	labels, err := t.labels()
	if err != nil {
		return nil, err
	}
	vs := make([]*Value, len(labels))
	for i := range labels {
		vs[i] = &Value{typ: t, labels: labels, index: i}
	}
	return vs, nil
}

// Same reports whether t and o belong to the same enum type family.
func (t *Type) Same(o *Type) bool {
	return t == o || (t != nil && o != nil && t.name == o.name)
}

func (t *Type) fromValue(x Value) (*Value, error) {
	if x.typ == nil {
		return nil, nil
	}
	if t.Same(x.typ) {
		cp := x
		cp.typ = t
		return &cp, nil
	}
	return t.Of(x.Label())
}

func (t *Type) fromNumber(raw any, n float64) (*Value, error) {
	labels, err := t.labels()
	if err != nil {
		return nil, err
	}
	if n != math.Trunc(n) || n < 0 || n >= float64(len(labels)) {
		return nil, pgcomposite.NewOutOfBoundsError(t.name, raw, len(labels))
	}
	return &Value{typ: t, labels: labels, index: int(n)}, nil
}

// isBlank reports nil, empty strings and empty collections.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	case *Value:
		return x == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// number converts Go numeric kinds to float64.
func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
