package oid

import (
	"strings"
)

// Unescape decodes a single composite field. A field wholly wrapped in
// double quotes loses the outer quotes, and every doubled quote ("") or
// backslash-escaped character inside collapses to the character itself.
// Unquoted fields are returned unchanged.
func Unescape(field string) string {
	if len(field) < 2 || field[0] != '"' || field[len(field)-1] != '"' {
		return field
	}
	inner := field[1 : len(field)-1]
	if !strings.ContainsAny(inner, `"\`) {
		return inner
	}
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		switch c := inner[i]; {
		case c == '"' && i+1 < len(inner) && inner[i+1] == '"':
			b.WriteByte('"')
			i++
		case c == '\\' && i+1 < len(inner):
			b.WriteByte(inner[i+1])
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Split splits composite text on delim. Delimiters inside double-quoted
// sections do not split, and empty fields, including trailing ones, are
// kept. Fields are returned raw; pass each through Unescape.
func Split(s string, delim byte) []string {
	fields := make([]string, 0, strings.Count(s, string(delim))+1)
	start, quoted := 0, false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quoted {
				i++
			}
		case '"':
			quoted = !quoted
		case delim:
			if !quoted {
				fields = append(fields, s[start:i])
				start = i + 1
			}
		}
	}
	return append(fields, s[start:])
}

// trimParens strips one pair of enclosing parentheses.
func trimParens(s string) string {
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		return s[1 : len(s)-1]
	}
	return s
}

// EncodeFields renders fields as composite text. Fields are quoted with the
// rules of an array literal ({...}) whose outer braces become parentheses.
// A nil field is written as an empty, unquoted slot, which the database
// reads as NULL; an empty string is written as "".
func EncodeFields(fields []*string, delim byte) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(delim)
		}
		if f == nil {
			continue
		}
		writeField(&b, *f, delim)
	}
	b.WriteByte('}')
	return remapBraces(b.String())
}

// remapBraces replaces the outer {...} of an array literal with (...).
func remapBraces(s string) string {
	if len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}' {
		return "(" + s[1:len(s)-1] + ")"
	}
	return s
}

func writeField(b *strings.Builder, f string, delim byte) {
	if !needsQuote(f, delim) {
		b.WriteString(f)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(f); i++ {
		switch c := f[i]; c {
		case '"':
			b.WriteString(`""`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}

func needsQuote(f string, delim byte) bool {
	if f == "" || strings.EqualFold(f, "NULL") {
		return true
	}
	for i := 0; i < len(f); i++ {
		switch f[i] {
		case delim, '"', '\\', '(', ')', '{', '}', ' ', '\t', '\n', '\r', '\v', '\f':
			return true
		}
	}
	return false
}
