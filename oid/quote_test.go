package oid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/pgcomposite/oid"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, `plain`},
		{``, ``},
		{`""`, ``},
		{`"a,b"`, `a,b`},
		{`"say ""hi"""`, `say "hi"`},
		{`"back\\slash"`, `back\slash`},
		{`"only-leading`, `"only-leading`},
		{`not"quoted"`, `not"quoted"`},
		{`"`, `"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, oid.Unescape(tt.in))
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{``, []string{""}},
		{`a`, []string{"a"}},
		{`a,b`, []string{"a", "b"}},
		{`a,,`, []string{"a", "", ""}},
		{`,`, []string{"", ""}},
		{`"a,b",c`, []string{`"a,b"`, "c"}},
		{`"a "","" b",c`, []string{`"a "","" b"`, "c"}},
		{`"a\",b",c`, []string{`"a\",b"`, "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, oid.Split(tt.in, ','))
		})
	}
}

func TestEncodeFields(t *testing.T) {
	s := func(v string) *string { return &v }
	tests := []struct {
		name string
		in   []*string
		want string
	}{
		{"Plain", []*string{s("1"), s("foo")}, "(1,foo)"},
		{"Null", []*string{nil, s("x")}, "(,x)"},
		{"Empty", []*string{s(""), s("x")}, `("",x)`},
		{"Delimiter", []*string{s("a,b")}, `("a,b")`},
		{"Quote", []*string{s(`a"b`)}, `("a""b")`},
		{"Backslash", []*string{s(`a\b`)}, `("a\\b")`},
		{"Parens", []*string{s("(1,2)")}, `("(1,2)")`},
		{"Space", []*string{s("a b")}, `("a b")`},
		{"NullWord", []*string{s("NULL")}, `("NULL")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := oid.EncodeFields(tt.in, ',')
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("RoundTrip", func(t *testing.T) {
		for _, v := range []string{`he said "hi", ok`, `a\b`, "(x)", "", " lead", `"`} {
			enc := oid.EncodeFields([]*string{s(v)}, ',')
			parts := oid.Split(enc[1:len(enc)-1], ',')
			if assert.Len(t, parts, 1) {
				assert.Equal(t, v, oid.Unescape(parts[0]))
			}
		}
	})
}
