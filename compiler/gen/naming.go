package gen

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// pascal converts a database identifier like "content_status" or a label
// like "so so" to an exported Go identifier fragment.
func pascal(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(inflect.Camelize(p))
	}
	return b.String()
}

// typeName returns the Go type name for the enum spec.
func typeName(s EnumSpec) (string, error) {
	name := s.GoName
	if name == "" {
		name = pascal(s.Name)
	}
	if !token.IsIdentifier(name) || !token.IsExported(name) {
		return "", NewSpecError(s.Name, fmt.Sprintf("cannot derive an exported Go name (got %q)", name))
	}
	return name, nil
}

// reservedSuffixes are appended to the type name by declarations other
// than the label constants.
var reservedSuffixes = []string{"Type", "Values"}

// reservedMethods are the generated methods a label predicate must not shadow.
var reservedMethods = []string{"String", "IsValid", "Index", "Compare", "Enum", "Scan", "Value", "MarshalGQL", "UnmarshalGQL"}

// labelNames returns one identifier fragment per label. Labels without any
// letters or digits are named after their position, and fragments that
// collide with another label or a reserved suffix get the position appended.
func labelNames(labels []string) []string {
	names := make([]string, len(labels))
	seen := make(map[string]struct{}, len(labels)+len(reservedSuffixes))
	for _, r := range reservedSuffixes {
		seen[r] = struct{}{}
	}
	for i, l := range labels {
		n := pascal(l)
		if n == "" {
			n = fmt.Sprintf("Label%d", i)
		}
		n = unique(seen, n, fmt.Sprint(i))
		seen[n] = struct{}{}
		names[i] = n
	}
	return names
}

// labelMethods returns the name of the Is<Label> predicate for each fragment.
func labelMethods(names []string) []string {
	methods := make([]string, len(names))
	seen := make(map[string]struct{}, len(names)+len(reservedMethods))
	for _, m := range reservedMethods {
		seen[m] = struct{}{}
	}
	for i, n := range names {
		m := unique(seen, "Is"+n, "Label")
		seen[m] = struct{}{}
		methods[i] = m
	}
	return methods
}

// unique appends suffix to name until it is not in seen.
func unique(seen map[string]struct{}, name, suffix string) string {
	for {
		if _, ok := seen[name]; !ok {
			return name
		}
		name += suffix
	}
}

// fileName returns the generated file name for the enum.
func fileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + ".go"
}

// TypeName returns the Go type name generated for the enum.
func (s EnumSpec) TypeName() (string, error) {
	return typeName(s)
}
