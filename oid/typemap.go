package oid

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
)

// Builtin PostgreSQL type OIDs served by the primitive handlers.
const (
	BoolOID        uint32 = 16
	Int8OID        uint32 = 20
	Int2OID        uint32 = 21
	Int4OID        uint32 = 23
	TextOID        uint32 = 25
	Float4OID      uint32 = 700
	Float8OID      uint32 = 701
	BPCharOID      uint32 = 1042
	VarcharOID     uint32 = 1043
	DateOID        uint32 = 1082
	TimestampOID   uint32 = 1114
	TimestamptzOID uint32 = 1184
	NumericOID     uint32 = 1700
	UUIDOID        uint32 = 2950
)

var builtins = []struct {
	oid     uint32
	names   []string
	handler Handler
}{
	{BoolOID, []string{"bool", "boolean"}, Boolean{}},
	{Int8OID, []string{"int8", "bigint"}, Integer{}},
	{Int2OID, []string{"int2", "smallint"}, Integer{}},
	{Int4OID, []string{"int4", "integer", "int"}, Integer{}},
	{TextOID, []string{"text"}, Text{}},
	{Float4OID, []string{"float4", "real"}, Float{}},
	{Float8OID, []string{"float8", "double precision"}, Float{}},
	{BPCharOID, []string{"bpchar", "character"}, Text{}},
	{VarcharOID, []string{"varchar", "character varying"}, Text{}},
	{DateOID, []string{"date"}, Timestamp{}},
	{TimestampOID, []string{"timestamp", "timestamp without time zone"}, Timestamp{}},
	{TimestamptzOID, []string{"timestamptz", "timestamp with time zone"}, Timestamp{}},
	{NumericOID, []string{"numeric", "decimal"}, Numeric{}},
	{UUIDOID, []string{"uuid"}, UUID{}},
}

// TypeMap registers handlers against type OIDs and type names, for use by
// a row decoding layer. It is safe for concurrent use.
type TypeMap struct {
	mu     sync.RWMutex
	byOID  map[uint32]Handler
	byName map[string]Handler
}

// NewTypeMap returns a map preloaded with the builtin handlers.
func NewTypeMap() *TypeMap {
	m := &TypeMap{
		byOID:  make(map[uint32]Handler),
		byName: make(map[string]Handler),
	}
	for _, b := range builtins {
		m.byOID[b.oid] = b.handler
		for _, n := range b.names {
			m.byName[n] = b.handler
		}
	}
	return m
}

// RegisterType registers h under oid and, when name is not empty, under name.
func (m *TypeMap) RegisterType(oid uint32, name string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byOID[oid] = h
	if name != "" {
		m.byName[name] = h
	}
}

// RegisterName registers h under name only. Static definitions have no OIDs.
func (m *TypeMap) RegisterName(name string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byName[name] = h
}

// AliasType makes name resolve to the handler registered under oid.
func (m *TypeMap) AliasType(name string, oid uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.byOID[oid]
	if !ok {
		return fmt.Errorf("oid: alias %q: no handler for oid %d", name, oid)
	}
	m.byName[name] = h
	return nil
}

// Lookup returns the handler registered under oid.
func (m *TypeMap) Lookup(oid uint32) (Handler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byOID[oid]
	return h, ok
}

// LookupName returns the handler registered under name.
func (m *TypeMap) LookupName(name string) (Handler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byName[name]
	return h, ok
}

// Scanner returns a sql.Scanner that casts the scanned column through h
// and stores the result in dest.
func Scanner(h Handler, dest *any) sql.Scanner {
	return &scanner{h: h, dest: dest}
}

type scanner struct {
	h    Handler
	dest *any
}

// Scan implements sql.Scanner.
func (s *scanner) Scan(src any) error {
	v, err := s.h.Cast(src)
	if err != nil {
		return err
	}
	*s.dest = v
	return nil
}

// Valuer returns a driver.Valuer that serializes v through h.
func Valuer(h Handler, v any) driver.Valuer {
	return valuer{h: h, v: v}
}

type valuer struct {
	h Handler
	v any
}

// Value implements driver.Valuer.
func (v valuer) Value() (driver.Value, error) {
	out, err := v.h.Serialize(v.v)
	if out == nil || err != nil {
		return nil, err
	}
	if driver.IsValue(out) {
		return out, nil
	}
	if s, ok := text(out); ok {
		return s, nil
	}
	return nil, fmt.Errorf("oid: %T is not a driver value", out)
}
