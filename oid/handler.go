// Package oid converts PostgreSQL wire text to typed Go values and back.
//
// Every column type is served by a Handler. Composite (row) types are
// handled by a Composite codec whose fields delegate to nested handlers,
// which may themselves be composites or Enum adapters, forming a tree:
//
//	address, _ := oid.NewComposite([]oid.Field{
//		{Name: "street", Handler: oid.Text{}},
//		{Name: "number", Handler: oid.Integer{}},
//	})
//	rec, _ := address.CastRecord("(\"Main St\",12)")
//	text, _ := address.Serialize(rec) // ("Main St",12)
//
// Handlers are registered in a TypeMap against type OIDs and names.
package oid

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syssam/pgcomposite"
)

// Handler casts raw column values into application values and serializes
// them back. Serialize returns nil for SQL NULL.
type Handler interface {
	Cast(v any) (any, error)
	Serialize(v any) (any, error)
}

// Equaler is implemented by handlers that are not comparable with ==.
type Equaler interface {
	Equal(h Handler) bool
}

// HandlerEqual reports whether two handlers describe the same type.
func HandlerEqual(a, b Handler) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if e, ok := a.(Equaler); ok {
		return e.Equal(b)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

// Text handles text, varchar and bpchar columns.
type Text struct{}

// Cast implements Handler.
func (Text) Cast(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	if s, ok := text(v); ok {
		return s, nil
	}
	return nil, pgcomposite.NewInvalidValueError("text", v)
}

// Serialize implements Handler.
func (t Text) Serialize(v any) (any, error) { return t.Cast(v) }

// Integer handles int2, int4 and int8 columns as int64.
type Integer struct{}

// Cast implements Handler.
func (Integer) Cast(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return parseInt(x, v)
	case []byte:
		return parseInt(string(x), v)
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float()), nil
	}
	return nil, pgcomposite.NewInvalidValueError("integer", v)
}

// Serialize implements Handler.
func (i Integer) Serialize(v any) (any, error) { return i.Cast(v) }

func parseInt(s string, raw any) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil, pgcomposite.NewInvalidValueError("integer", raw)
		}
		return int64(f), nil
	}
	return n, nil
}

// Float handles float4 and float8 columns as float64.
type Float struct{}

// Cast implements Handler.
func (Float) Cast(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return parseFloat(x, v)
	case []byte:
		return parseFloat(string(x), v)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return nil, pgcomposite.NewInvalidValueError("float", v)
}

// Serialize implements Handler.
func (f Float) Serialize(v any) (any, error) { return f.Cast(v) }

func parseFloat(s string, raw any) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, pgcomposite.NewInvalidValueError("float", raw)
	}
	return f, nil
}

// Boolean handles bool columns. It accepts the database spellings
// t/f, true/false, yes/no, on/off and 1/0.
type Boolean struct{}

// Cast implements Handler.
func (Boolean) Cast(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case string:
		return parseBool(x, v)
	case []byte:
		return parseBool(string(x), v)
	}
	if n, err := (Integer{}).Cast(v); err == nil {
		return n.(int64) != 0, nil
	}
	return nil, pgcomposite.NewInvalidValueError("boolean", v)
}

// Serialize implements Handler.
func (b Boolean) Serialize(v any) (any, error) { return b.Cast(v) }

func parseBool(s string, raw any) (any, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "t", "true", "y", "yes", "on", "1":
		return true, nil
	case "f", "false", "n", "no", "off", "0":
		return false, nil
	}
	return nil, pgcomposite.NewInvalidValueError("boolean", raw)
}

// Numeric handles numeric columns as decimal.Decimal.
type Numeric struct{}

// Cast implements Handler.
func (Numeric) Cast(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		return x, nil
	case string:
		return parseDecimal(x, v)
	case []byte:
		return parseDecimal(string(x), v)
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	}
	if n, err := (Integer{}).Cast(v); err == nil && n != nil {
		return decimal.NewFromInt(n.(int64)), nil
	}
	return nil, pgcomposite.NewInvalidValueError("numeric", v)
}

// Serialize implements Handler.
func (n Numeric) Serialize(v any) (any, error) {
	d, err := n.Cast(v)
	if d == nil || err != nil {
		return nil, err
	}
	return d.(decimal.Decimal).String(), nil
}

func parseDecimal(s string, raw any) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, pgcomposite.NewInvalidValueError("numeric", raw)
	}
	return d, nil
}

// UUID handles uuid columns as uuid.UUID.
type UUID struct{}

// Cast implements Handler.
func (UUID) Cast(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return x, nil
	case string:
		return parseUUID(x, v)
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}
		return parseUUID(string(x), v)
	}
	return nil, pgcomposite.NewInvalidValueError("uuid", v)
}

// Serialize implements Handler.
func (u UUID) Serialize(v any) (any, error) {
	id, err := u.Cast(v)
	if id == nil || err != nil {
		return nil, err
	}
	return id.(uuid.UUID).String(), nil
}

func parseUUID(s string, raw any) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, pgcomposite.NewInvalidValueError("uuid", raw)
	}
	return id, nil
}

// Timestamp handles date, timestamp and timestamptz columns as time.Time.
type Timestamp struct{}

// timeLayouts are the textual forms the database emits, most specific first.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00:00",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// Cast implements Handler.
func (Timestamp) Cast(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return x, nil
	case string:
		return parseTime(x, v)
	case []byte:
		return parseTime(string(x), v)
	}
	return nil, pgcomposite.NewInvalidValueError("timestamp", v)
}

// Serialize implements Handler.
func (ts Timestamp) Serialize(v any) (any, error) {
	t, err := ts.Cast(v)
	if t == nil || err != nil {
		return nil, err
	}
	return t.(time.Time).Format("2006-01-02 15:04:05.999999999Z07:00"), nil
}

func parseTime(s string, raw any) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, pgcomposite.NewInvalidValueError("timestamp", raw)
}

// text renders a serialized scalar as composite field text.
func text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		if x {
			return "t", true
		}
		return "f", true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999999Z07:00"), true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

// number converts Go numeric kinds to float64.
func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
