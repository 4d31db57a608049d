// Package schema reads enum and composite type definitions from the
// PostgreSQL catalog and registers them with a type map.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/syssam/pgcomposite"
	"github.com/syssam/pgcomposite/dialect"
	"github.com/syssam/pgcomposite/dialect/sql"
	"github.com/syssam/pgcomposite/enum"
	"github.com/syssam/pgcomposite/oid"
)

// undefinedObject is the SQLSTATE raised by regtype casts of unknown names.
const undefinedObject = "42704"

const (
	enumTypesQuery = `SELECT t.oid, t.typname, array_agg(e.enumlabel ORDER BY e.enumsortorder)
FROM pg_type t
INNER JOIN pg_enum e ON e.enumtypid = t.oid
INNER JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
AND n.nspname = ANY(current_schemas(false))
GROUP BY t.oid, t.typname
ORDER BY t.typname`

	enumLabelsQuery = `SELECT array_agg(e.enumlabel ORDER BY e.enumsortorder)
FROM pg_enum e
WHERE e.enumtypid = $1::regtype`

	enumLabelsManyQuery = `SELECT t.typname, array_agg(e.enumlabel ORDER BY e.enumsortorder)
FROM pg_type t
INNER JOIN pg_enum e ON e.enumtypid = t.oid
WHERE t.typname = ANY($1)
AND pg_type_is_visible(t.oid)
GROUP BY t.typname`

	compositeTypesQuery = `SELECT t.oid, t.typname, t.typdelim
FROM pg_type t
LEFT JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
AND n.nspname = ANY(current_schemas(false))
AND t.typtype = 'c'
AND NOT EXISTS(
  SELECT 1 FROM pg_catalog.pg_type el
  WHERE el.oid = t.typelem AND el.typarray = t.oid
)
AND (t.typrelid = 0 OR (
  SELECT c.relkind = 'c' FROM pg_catalog.pg_class c
  WHERE c.oid = t.typrelid
))
ORDER BY t.typname`

	compositeFieldsQuery = `SELECT a.attname, a.atttypid, t.typname
FROM pg_attribute a
INNER JOIN pg_type t ON t.oid = a.atttypid
WHERE a.attrelid = (SELECT typrelid FROM pg_type WHERE oid = $1::regtype)
AND a.attnum > 0
AND NOT a.attisdropped
ORDER BY a.attnum`

	compositeFieldsByOIDQuery = `SELECT a.attname, a.atttypid, t.typname
FROM pg_attribute a
INNER JOIN pg_type t ON t.oid = a.atttypid
WHERE a.attrelid = (SELECT typrelid FROM pg_type WHERE oid = $1)
AND a.attnum > 0
AND NOT a.attisdropped
ORDER BY a.attnum`
)

type (
	// EnumType is an enum type declared in the database.
	EnumType struct {
		OID    uint32
		Name   string
		Labels []string
	}

	// CompositeType is a standalone composite type declared in the database.
	CompositeType struct {
		OID       uint32
		Name      string
		Delimiter byte
	}

	// CompositeField describes one attribute of a composite type.
	CompositeField struct {
		Name     string
		TypeOID  uint32
		TypeName string
	}
)

// Inspector queries the catalog through a dialect.Driver.
type Inspector struct {
	drv    dialect.Driver
	schema string
	logger *slog.Logger
}

// InspectOption configures an Inspector.
type InspectOption func(*Inspector)

// WithSchema restricts the inspection to the given schema by setting the
// search_path of every catalog query.
func WithSchema(name string) InspectOption {
	return func(i *Inspector) {
		i.schema = name
	}
}

// WithLogger sets the logger used to report registered types.
func WithLogger(l *slog.Logger) InspectOption {
	return func(i *Inspector) {
		i.logger = l
	}
}

// NewInspector returns an inspector for a PostgreSQL driver.
func NewInspector(drv dialect.Driver, opts ...InspectOption) (*Inspector, error) {
	if drv == nil {
		return nil, errors.New("schema: nil driver")
	}
	if d := drv.Dialect(); d != dialect.Postgres {
		return nil, fmt.Errorf("schema: unsupported dialect %q", d)
	}
	i := &Inspector{drv: drv, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

var _ enum.Source = (*Inspector)(nil)

// EnumTypes returns every enum type visible on the search path.
func (i *Inspector) EnumTypes(ctx context.Context) ([]EnumType, error) {
	var types []EnumType
	err := i.query(ctx, enumTypesQuery, nil, func(rows *sql.Rows) error {
		var (
			t      EnumType
			labels pq.StringArray
		)
		if err := rows.Scan(&t.OID, &t.Name, &labels); err != nil {
			return err
		}
		t.Labels = []string(labels)
		types = append(types, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schema: enum types: %w", err)
	}
	return types, nil
}

// EnumLabels returns the labels of the enum name in declaration order.
// It implements enum.Source.
func (i *Inspector) EnumLabels(ctx context.Context, name string) ([]string, error) {
	var (
		labels pq.StringArray
		found  bool
	)
	err := i.query(ctx, enumLabelsQuery, []any{name}, func(rows *sql.Rows) error {
		found = true
		return rows.Scan(&labels)
	})
	if err != nil {
		return nil, i.notFound(err, "enum", name)
	}
	if !found || labels == nil {
		return nil, pgcomposite.NewNotFoundError("enum", name)
	}
	return []string(labels), nil
}

// EnumLabelsMany returns the labels of several enums with a single query.
// The result is ordered like names; names that are not visible enums get a
// nil label set and a NotFoundError at the same position.
func (i *Inspector) EnumLabelsMany(ctx context.Context, names []string) ([][]string, []error) {
	byName := make(map[string][]string, len(names))
	err := i.query(ctx, enumLabelsManyQuery, []any{pq.Array(names)}, func(rows *sql.Rows) error {
		var (
			name   string
			labels pq.StringArray
		)
		if err := rows.Scan(&name, &labels); err != nil {
			return err
		}
		byName[name] = []string(labels)
		return nil
	})
	labels := make([][]string, len(names))
	errs := make([]error, len(names))
	for j, name := range names {
		switch l, ok := byName[name]; {
		case err != nil:
			errs[j] = fmt.Errorf("schema: enum %s: %w", name, err)
		case !ok:
			errs[j] = pgcomposite.NewNotFoundError("enum", name)
		default:
			labels[j] = l
		}
	}
	return labels, errs
}

// PrimeCache loads the labels of names into cache with one query. Names that
// cannot be resolved are left for the cache source.
func (i *Inspector) PrimeCache(ctx context.Context, cache *enum.Cache, names ...string) error {
	labels, errs := i.EnumLabelsMany(ctx, names)
	for j, name := range names {
		if errs[j] != nil {
			if pgcomposite.IsNotFound(errs[j]) {
				continue
			}
			return errs[j]
		}
		if _, err := cache.Prime(name, labels[j]); err != nil {
			return err
		}
	}
	return nil
}

// CompositeTypes returns the standalone composite types visible on the
// search path. Row types of tables are skipped.
func (i *Inspector) CompositeTypes(ctx context.Context) ([]CompositeType, error) {
	var types []CompositeType
	err := i.query(ctx, compositeTypesQuery, nil, func(rows *sql.Rows) error {
		var (
			t     CompositeType
			delim string
		)
		if err := rows.Scan(&t.OID, &t.Name, &delim); err != nil {
			return err
		}
		t.Delimiter = ','
		if delim != "" {
			t.Delimiter = delim[0]
		}
		types = append(types, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schema: composite types: %w", err)
	}
	return types, nil
}

// CompositeFields returns the attributes of the composite type name in
// declaration order. The name is parsed as a type name, so mixed-case names
// must be double-quoted.
func (i *Inspector) CompositeFields(ctx context.Context, name string) ([]CompositeField, error) {
	fields, err := i.compositeFields(ctx, compositeFieldsQuery, name)
	if err != nil {
		return nil, i.notFound(err, "composite", name)
	}
	if len(fields) == 0 {
		return nil, pgcomposite.NewNotFoundError("composite", name)
	}
	return fields, nil
}

// compositeFieldsByOID returns the attributes of the composite type t.
func (i *Inspector) compositeFieldsByOID(ctx context.Context, t CompositeType) ([]CompositeField, error) {
	fields, err := i.compositeFields(ctx, compositeFieldsByOIDQuery, t.OID)
	if err != nil {
		return nil, fmt.Errorf("schema: composite %s: %w", t.Name, err)
	}
	return fields, nil
}

func (i *Inspector) compositeFields(ctx context.Context, query string, arg any) ([]CompositeField, error) {
	var fields []CompositeField
	err := i.query(ctx, query, []any{arg}, func(rows *sql.Rows) error {
		var f CompositeField
		if err := rows.Scan(&f.Name, &f.TypeOID, &f.TypeName); err != nil {
			return err
		}
		fields = append(fields, f)
		return nil
	})
	return fields, err
}

// Load registers every enum and composite type with tm. Enum label sets are
// primed into cache, or enum.Default when cache is nil. Composites are
// registered after the composites their fields depend on, and fields of
// types unknown to tm decode as text.
func (i *Inspector) Load(ctx context.Context, tm *oid.TypeMap, cache *enum.Cache) error {
	if cache == nil {
		cache = enum.Default
	}
	enums, err := i.EnumTypes(ctx)
	if err != nil {
		return err
	}
	for _, e := range enums {
		if _, err := cache.Prime(e.Name, e.Labels); err != nil {
			return fmt.Errorf("schema: load enum %s: %w", e.Name, err)
		}
		tm.RegisterType(e.OID, e.Name, oid.NewEnum(enum.Define(e.Name, enum.WithCache(cache))))
		i.logger.DebugContext(ctx, "registered enum type", "name", e.Name, "oid", e.OID, "labels", len(e.Labels))
	}
	types, err := i.CompositeTypes(ctx)
	if err != nil {
		return err
	}
	pending := make(map[uint32]pendingComposite, len(types))
	for _, t := range types {
		fields, err := i.compositeFieldsByOID(ctx, t)
		if err != nil {
			return err
		}
		pending[t.OID] = pendingComposite{CompositeType: t, fields: fields}
	}
	for _, t := range types {
		if err := i.register(ctx, tm, pending, t.OID); err != nil {
			return err
		}
	}
	return nil
}

type pendingComposite struct {
	CompositeType
	fields  []CompositeField
	visited bool
}

// register builds the composite oid after its dependencies. Cycles cannot be
// declared in PostgreSQL; a revisited type falls back to text.
func (i *Inspector) register(ctx context.Context, tm *oid.TypeMap, pending map[uint32]pendingComposite, id uint32) error {
	p, ok := pending[id]
	if !ok || p.visited {
		return nil
	}
	p.visited = true
	pending[id] = p
	fields := make([]oid.Field, len(p.fields))
	for j, f := range p.fields {
		if err := i.register(ctx, tm, pending, f.TypeOID); err != nil {
			return err
		}
		h, ok := tm.Lookup(f.TypeOID)
		if !ok {
			i.logger.DebugContext(ctx, "unknown field type, decoding as text",
				"composite", p.Name, "field", f.Name, "type", f.TypeName)
			h = oid.Text{}
		}
		fields[j] = oid.Field{Name: f.Name, Handler: h}
	}
	c, err := oid.NewComposite(fields, oid.WithDelimiter(p.Delimiter))
	if err != nil {
		return fmt.Errorf("schema: load composite %s: %w", p.Name, err)
	}
	tm.RegisterType(p.OID, p.Name, c)
	delete(pending, id)
	i.logger.DebugContext(ctx, "registered composite type", "name", p.Name, "oid", p.OID, "fields", len(fields))
	return nil
}

func (i *Inspector) query(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	if i.schema != "" {
		ctx = sql.WithVar(ctx, "search_path", i.schema)
	}
	if args == nil {
		args = []any{}
	}
	rows := &sql.Rows{}
	if err := i.drv.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Inspector) notFound(err error, kind, name string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedObject {
		return pgcomposite.NewNotFoundError(kind, name)
	}
	return fmt.Errorf("schema: %s %s: %w", kind, name, err)
}
