package oid

import (
	"github.com/syssam/pgcomposite"
	"github.com/syssam/pgcomposite/enum"
)

// Enum adapts an enum.Type to the Handler interface. Driver output of an
// unexpected shape casts to nil instead of failing.
type Enum struct {
	typ *enum.Type
}

// NewEnum returns the adapter for t.
func NewEnum(t *enum.Type) *Enum {
	return &Enum{typ: t}
}

// Type returns the adapted enum type.
func (e *Enum) Type() *enum.Type { return e.typ }

// Equal reports whether h adapts the same enum type.
func (e *Enum) Equal(h Handler) bool {
	o, ok := h.(*Enum)
	return ok && o != nil && e.typ.Same(o.typ)
}

// Cast implements Handler. Strings and numbers follow the construction
// rules of enum.Type.New; nil, booleans and slices yield nil.
func (e *Enum) Cast(v any) (any, error) {
	var (
		val *enum.Value
		err error
	)
	switch x := v.(type) {
	case nil, bool, []any, []string:
		return nil, nil
	case string, []byte, *enum.Value, enum.Value:
		val, err = e.typ.New(x)
	default:
		if _, ok := number(v); !ok {
			return nil, nil
		}
		val, err = e.typ.New(v)
	}
	if err != nil || val == nil {
		return nil, err
	}
	return val, nil
}

// CastValue is Cast with a typed result.
func (e *Enum) CastValue(v any) (*enum.Value, error) {
	out, err := e.Cast(v)
	if out == nil || err != nil {
		return nil, err
	}
	return out.(*enum.Value), nil
}

// Serialize implements Handler. Values serialize to their label and
// numbers to the label at that index; anything else, including an index
// out of range, serializes to nil.
func (e *Enum) Serialize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *enum.Value:
		if x == nil {
			return nil, nil
		}
		return x.Label(), nil
	case enum.Value:
		if x.Index() < 0 {
			return nil, nil
		}
		return x.Label(), nil
	}
	if _, ok := number(v); !ok {
		return nil, nil
	}
	val, err := e.typ.New(v)
	if pgcomposite.IsOutOfBounds(err) {
		return nil, nil
	}
	if err != nil || val == nil {
		return nil, err
	}
	return val.Label(), nil
}
