// Package graphql connects enum values and composite records to gqlgen.
//
// Enum labels are exposed in upper case, the GraphQL naming convention for
// enum values, and accepted back in any case. Composite records marshal as
// JSON objects with their fields in declaration order.
//
// BindEnums updates gqlgen.yml so that GraphQL enum types resolve to the
// types written by the enum generator:
//
//	cfg, err := graphql.LoadGQLGenConfig("gqlgen.yml")
//	if err != nil {
//		return err
//	}
//	cfg.BindEnums("example.com/app/pgtypes", "ContentStatus", "Mood")
//	return graphql.SaveGQLGenConfig("gqlgen.yml", cfg)
package graphql
