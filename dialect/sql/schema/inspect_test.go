package schema

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/pgcomposite"
	"github.com/syssam/pgcomposite/dialect"
	"github.com/syssam/pgcomposite/dialect/sql"
	"github.com/syssam/pgcomposite/enum"
	"github.com/syssam/pgcomposite/oid"
)

func newInspector(t *testing.T, opts ...InspectOption) (*Inspector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	i, err := NewInspector(sql.OpenDB(dialect.Postgres, db), opts...)
	require.NoError(t, err)
	return i, mock
}

func TestNewInspector(t *testing.T) {
	_, err := NewInspector(nil)
	assert.Error(t, err)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, err = NewInspector(sql.OpenDB("mysql", db))
	assert.ErrorContains(t, err, "unsupported dialect")
}

func TestEnumTypes(t *testing.T) {
	i, mock := newInspector(t)
	mock.ExpectQuery(enumTypesQuery).WillReturnRows(
		sqlmock.NewRows([]string{"oid", "typname", "labels"}).
			AddRow(16384, "content_status", "{created,draft,published}").
			AddRow(16390, "mood", `{sad,"so so",happy}`),
	)
	types, err := i.EnumTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []EnumType{
		{OID: 16384, Name: "content_status", Labels: []string{"created", "draft", "published"}},
		{OID: 16390, Name: "mood", Labels: []string{"sad", "so so", "happy"}},
	}, types)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnumLabels(t *testing.T) {
	ctx := context.Background()
	i, mock := newInspector(t)

	mock.ExpectQuery(enumLabelsQuery).WithArgs("content_status").
		WillReturnRows(sqlmock.NewRows([]string{"labels"}).AddRow("{created,draft}"))
	labels, err := i.EnumLabels(ctx, "content_status")
	require.NoError(t, err)
	assert.Equal(t, []string{"created", "draft"}, labels)

	mock.ExpectQuery(enumLabelsQuery).WithArgs("missing").
		WillReturnError(&pq.Error{Code: undefinedObject, Message: `type "missing" does not exist`})
	_, err = i.EnumLabels(ctx, "missing")
	assert.True(t, pgcomposite.IsNotFound(err))

	mock.ExpectQuery(enumLabelsQuery).WithArgs("int4").
		WillReturnRows(sqlmock.NewRows([]string{"labels"}).AddRow(nil))
	_, err = i.EnumLabels(ctx, "int4")
	assert.True(t, pgcomposite.IsNotFound(err), "non-enum types are not found")

	mock.ExpectQuery(enumLabelsQuery).WithArgs("x").WillReturnError(errors.New("conn reset"))
	_, err = i.EnumLabels(ctx, "x")
	assert.ErrorContains(t, err, "conn reset")
	assert.False(t, pgcomposite.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnumLabelsSource(t *testing.T) {
	i, mock := newInspector(t)
	mock.ExpectQuery(enumLabelsQuery).WithArgs("content_status").
		WillReturnRows(sqlmock.NewRows([]string{"labels"}).AddRow("{created,draft}"))

	cache := enum.NewCache(i)
	status := enum.Define("content_status", enum.WithCache(cache))
	v, err := status.New("draft")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Index())
	// Served from the cache.
	_, err = status.New(0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSchema(t *testing.T) {
	i, mock := newInspector(t, WithSchema("app"))
	mock.ExpectExec("SET search_path = 'app'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(compositeTypesQuery).WillReturnRows(
		sqlmock.NewRows([]string{"oid", "typname", "typdelim"}).AddRow(16400, "address", ";"),
	)
	mock.ExpectExec("RESET search_path").WillReturnResult(sqlmock.NewResult(0, 0))
	types, err := i.CompositeTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []CompositeType{{OID: 16400, Name: "address", Delimiter: ';'}}, types)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompositeFields(t *testing.T) {
	i, mock := newInspector(t)
	mock.ExpectQuery(compositeFieldsQuery).WithArgs("address").WillReturnRows(
		sqlmock.NewRows([]string{"attname", "atttypid", "typname"}).
			AddRow("street", 25, "text").
			AddRow("number", 23, "int4"),
	)
	fields, err := i.CompositeFields(context.Background(), "address")
	require.NoError(t, err)
	assert.Equal(t, []CompositeField{
		{Name: "street", TypeOID: 25, TypeName: "text"},
		{Name: "number", TypeOID: 23, TypeName: "int4"},
	}, fields)

	mock.ExpectQuery(compositeFieldsQuery).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"attname", "atttypid", "typname"}))
	_, err = i.CompositeFields(context.Background(), "nope")
	assert.True(t, pgcomposite.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	i, mock := newInspector(t, WithLogger(logger))

	mock.ExpectQuery(enumTypesQuery).WillReturnRows(
		sqlmock.NewRows([]string{"oid", "typname", "labels"}).
			AddRow(16384, "content_status", "{created,draft,published}"),
	)
	// Dependents may come before their dependencies.
	mock.ExpectQuery(compositeTypesQuery).WillReturnRows(
		sqlmock.NewRows([]string{"oid", "typname", "typdelim"}).
			AddRow(16410, "shipment", ",").
			AddRow(16400, "address", ","),
	)
	mock.ExpectQuery(compositeFieldsByOIDQuery).WithArgs(uint32(16410)).WillReturnRows(
		sqlmock.NewRows([]string{"attname", "atttypid", "typname"}).
			AddRow("dest", 16400, "address").
			AddRow("geo", 99999, "point3d"),
	)
	mock.ExpectQuery(compositeFieldsByOIDQuery).WithArgs(uint32(16400)).WillReturnRows(
		sqlmock.NewRows([]string{"attname", "atttypid", "typname"}).
			AddRow("street", 25, "text").
			AddRow("status", 16384, "content_status"),
	)

	tm := oid.NewTypeMap()
	cache := enum.NewCache(nil)
	require.NoError(t, i.Load(context.Background(), tm, cache))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.True(t, cache.Cached("content_status"))

	h, ok := tm.LookupName("shipment")
	require.True(t, ok)
	shipment := h.(*oid.Composite)
	r, err := shipment.CastRecord(`("(""1 Main St"",draft)","(1,2,3)")`)
	require.NoError(t, err)

	dest, _ := r.Get("dest")
	require.IsType(t, &oid.Record{}, dest)
	status, _ := dest.(*oid.Record).Get("status")
	require.IsType(t, &enum.Value{}, status)
	assert.True(t, status.(*enum.Value).Is("draft"))
	geo, _ := r.Get("geo")
	assert.Equal(t, "(1,2,3)", geo, "unknown types decode as text")

	_, ok = tm.Lookup(16400)
	assert.True(t, ok)
	assert.Contains(t, buf.String(), "unknown field type")
}

func TestLoadMixedCase(t *testing.T) {
	i, mock := newInspector(t)
	mock.ExpectQuery(enumTypesQuery).WillReturnRows(
		sqlmock.NewRows([]string{"oid", "typname", "labels"}),
	)
	mock.ExpectQuery(compositeTypesQuery).WillReturnRows(
		sqlmock.NewRows([]string{"oid", "typname", "typdelim"}).
			AddRow(16500, "Address", ","),
	)
	// Fields are looked up by OID, never by casting the raw name to regtype.
	mock.ExpectQuery(compositeFieldsByOIDQuery).WithArgs(uint32(16500)).WillReturnRows(
		sqlmock.NewRows([]string{"attname", "atttypid", "typname"}).
			AddRow("Street", 25, "text").
			AddRow("zip", 23, "int4"),
	)

	tm := oid.NewTypeMap()
	require.NoError(t, i.Load(context.Background(), tm, enum.NewCache(nil)))
	require.NoError(t, mock.ExpectationsWereMet())

	h, ok := tm.LookupName("Address")
	require.True(t, ok)
	r, err := h.(*oid.Composite).CastRecord("(Main,12)")
	require.NoError(t, err)
	assert.Equal(t, []string{"Street", "zip"}, r.Names())
	assert.Equal(t, []any{"Main", int64(12)}, r.Values())
	_, ok = tm.Lookup(16500)
	assert.True(t, ok)
}

func TestLoadError(t *testing.T) {
	i, mock := newInspector(t)
	mock.ExpectQuery(enumTypesQuery).WillReturnError(errors.New("boom"))
	err := i.Load(context.Background(), oid.NewTypeMap(), nil)
	assert.ErrorContains(t, err, "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnumLabelsMany(t *testing.T) {
	i, mock := newInspector(t)
	names := []string{"mood", "missing", "content_status"}
	mock.ExpectQuery(enumLabelsManyQuery).WithArgs(pq.Array(names)).WillReturnRows(
		sqlmock.NewRows([]string{"typname", "labels"}).
			AddRow("content_status", "{created,draft}").
			AddRow("mood", "{sad,happy}"),
	)
	labels, errs := i.EnumLabelsMany(context.Background(), names)
	assert.Equal(t, [][]string{{"sad", "happy"}, nil, {"created", "draft"}}, labels)
	assert.NoError(t, errs[0])
	assert.True(t, pgcomposite.IsNotFound(errs[1]))
	assert.NoError(t, errs[2])
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(enumLabelsManyQuery).WithArgs(pq.Array(names)).WillReturnError(errors.New("down"))
	_, errs = i.EnumLabelsMany(context.Background(), names)
	for _, err := range errs {
		assert.ErrorContains(t, err, "down")
	}
}

func TestPrimeCache(t *testing.T) {
	i, mock := newInspector(t)
	mock.ExpectQuery(enumLabelsManyQuery).WithArgs(pq.Array([]string{"mood", "missing"})).WillReturnRows(
		sqlmock.NewRows([]string{"typname", "labels"}).AddRow("mood", "{sad,happy}"),
	)
	cache := enum.NewCache(nil)
	require.NoError(t, i.PrimeCache(context.Background(), cache, "mood", "missing"))
	assert.True(t, cache.Cached("mood"))
	assert.False(t, cache.Cached("missing"))
	require.NoError(t, mock.ExpectationsWereMet())
}
