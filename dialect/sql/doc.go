// Package sql wraps database/sql connections with the small dialect.Driver
// surface used by the catalog inspector.
//
// Statements may carry session variables through the context. They are set
// on a pinned connection before the statement runs and reset once the
// statement, or its rows, are closed:
//
//	ctx = sql.WithVar(ctx, "search_path", "app")
//	rows := &sql.Rows{}
//	if err := drv.Query(ctx, "SELECT typname FROM pg_type", []any{}, rows); err != nil {
//		return err
//	}
//	defer rows.Close()
package sql
