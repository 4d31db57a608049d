package enum

import (
	"cmp"
	"database/sql/driver"
	"encoding/json"
	"slices"

	"github.com/syssam/pgcomposite"
)

// Value is a single label of an enum Type. The zero Value is not valid;
// obtain values from Type.New, Type.At or Type.Of. Methods accept a nil or
// zero Value: it holds no label and does not compare.
type Value struct {
	typ    *Type
	labels []string // label set snapshot used at construction
	index  int
}

// Type returns the enum type of v, or nil for a nil Value.
func (v *Value) Type() *Type {
	if v == nil {
		return nil
	}
	return v.typ
}

// Index returns the position of the label in the label set, or -1 when v
// holds no label.
func (v *Value) Index() int {
	if !v.valid() {
		return -1
	}
	return v.index
}

func (v *Value) valid() bool {
	return v != nil && v.typ != nil && v.labels != nil
}

// Label returns the label text.
func (v *Value) Label() string {
	if v == nil || v.labels == nil {
		return ""
	}
	return v.labels[v.index]
}

// String implements fmt.Stringer.
func (v *Value) String() string { return v.Label() }

// Is reports whether v holds label. Labels outside the set are never held.
func (v *Value) Is(label string) bool {
	return v.valid() && v.labels[v.index] == label
}

// Replace returns a new value of the same type built from x. The receiver
// is left unchanged.
func (v *Value) Replace(x any) (*Value, error) {
	if v == nil || v.typ == nil {
		return nil, pgcomposite.NewInvalidValueError("", x)
	}
	return v.typ.New(x)
}

// Compare compares v with other and returns -1, 0 or +1. Other may be a
// Value of the same type, a label string, or a number compared against the
// index without bounds checking.
func (v *Value) Compare(other any) (int, error) {
	if !v.valid() {
		return 0, pgcomposite.NewInvalidComparisonError("", other)
	}
	switch o := other.(type) {
	case *Value:
		if o == nil || o.typ == nil {
			return 0, pgcomposite.NewInvalidComparisonError(v.typ.name, other)
		}
		return v.compareValue(o)
	case Value:
		if o.typ == nil {
			return 0, pgcomposite.NewInvalidComparisonError(v.typ.name, other)
		}
		return v.compareValue(&o)
	case string:
		i := slices.Index(v.labels, o)
		if i < 0 {
			return 0, pgcomposite.NewUnknownLabelError(v.typ.name, o)
		}
		return cmp.Compare(v.index, i), nil
	}
	if n, ok := number(other); ok {
		return cmp.Compare(float64(v.index), n), nil
	}
	return 0, pgcomposite.NewInvalidComparisonError(v.typ.name, other)
}

func (v *Value) compareValue(o *Value) (int, error) {
	if !v.typ.Same(o.typ) {
		return 0, pgcomposite.NewCrossTypeComparisonError(v.typ.name, o.typ.name)
	}
	return cmp.Compare(v.index, o.index), nil
}

// Equal reports whether v and other hold the same position.
func (v *Value) Equal(other any) (bool, error) {
	c, err := v.Compare(other)
	return err == nil && c == 0, err
}

// Less reports whether v sorts before other.
func (v *Value) Less(other any) (bool, error) {
	c, err := v.Compare(other)
	return err == nil && c < 0, err
}

// Greater reports whether v sorts after other.
func (v *Value) Greater(other any) (bool, error) {
	c, err := v.Compare(other)
	return err == nil && c > 0, err
}

// Value implements driver.Valuer.
func (v *Value) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return v.Label(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (v *Value) MarshalText() ([]byte, error) {
	return []byte(v.Label()), nil
}

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.Label())
}
