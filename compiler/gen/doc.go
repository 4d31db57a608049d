// Package gen generates Go packages for PostgreSQL enum types.
//
// Every enum becomes a string type with one constant per label, declared in
// label order, together with ordering helpers, database/sql scanning and
// gqlgen marshaling. A package level enum.Type bound to the same labels lets
// generated values interoperate with the runtime codec:
//
//	g, err := gen.NewEnumGenerator("internal/pgtypes", gen.WithPackage("pgtypes"))
//	if err != nil {
//		return err
//	}
//	err = g.Generate(ctx, []gen.EnumSpec{
//		{Name: "content_status", Labels: []string{"created", "draft", "published"}},
//	})
package gen
