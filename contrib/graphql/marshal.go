package graphql

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/pgcomposite/enum"
	"github.com/syssam/pgcomposite/oid"
)

// MarshalEnum writes the label of v in upper case as a GraphQL enum value.
func MarshalEnum(v *enum.Value) graphql.Marshaler {
	if v == nil {
		return graphql.Null
	}
	label := cases.Upper(language.Und).String(v.Label())
	return graphql.WriterFunc(func(w io.Writer) {
		_, _ = io.WriteString(w, strconv.Quote(label))
	})
}

// UnmarshalEnum resolves a GraphQL enum value of t, ignoring case.
func UnmarshalEnum(t *enum.Type, v any) (*enum.Value, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("enum %s must be a string, got %T", t.Name(), v)
	}
	values, err := t.Values()
	if err != nil {
		return nil, err
	}
	// Casers keep state and are created per call.
	fold := cases.Fold()
	key := fold.String(s)
	for _, x := range values {
		if fold.String(x.Label()) == key {
			return x, nil
		}
	}
	// Report the unknown label the way the enum type does.
	return t.Of(s)
}

// MarshalRecord writes r as a JSON object with fields in declaration order.
func MarshalRecord(r *oid.Record) graphql.ContextMarshaler {
	return graphql.ContextWriterFunc(func(_ context.Context, w io.Writer) error {
		if r == nil {
			_, err := io.WriteString(w, "null")
			return err
		}
		data, err := r.MarshalJSON()
		if err != nil {
			return fmt.Errorf("graphql: marshal record: %w", err)
		}
		_, err = w.Write(data)
		return err
	})
}

// UnmarshalRecord builds a record of c from a GraphQL input object.
func UnmarshalRecord(c *oid.Composite, v any) (*oid.Record, error) {
	if v == nil {
		return nil, nil
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, fmt.Errorf("composite input must be an object, got %T", v)
	}
	return c.CastRecord(v)
}
