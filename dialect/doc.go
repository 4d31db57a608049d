// Package dialect defines the database dialect names and the driver
// interfaces used by the introspection layer.
//
// The introspection queries only need the ExecQuerier subset:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// A concrete implementation backed by database/sql lives in dialect/sql:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect
