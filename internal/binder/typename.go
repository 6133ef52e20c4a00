package binder

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"
)

// TypeName identifies a type inside a serialized stream. Assembly is the
// import path of the declaring package (or the name a type was registered
// under) and Version is informational: matching ignores it.
type TypeName struct {
	FullName string
	Assembly string
	Version  string
}

// ErrInvalidTypeName is returned by ParseTypeName for malformed input.
var ErrInvalidTypeName = errors.New("invalid type name")

// String returns the assembly-qualified form "FullName, Assembly, Version=v".
func (n TypeName) String() string {
	var b strings.Builder
	b.WriteString(n.FullName)
	if n.Assembly != "" {
		b.WriteString(", ")
		b.WriteString(n.Assembly)
	}
	if n.Version != "" {
		b.WriteString(", Version=")
		b.WriteString(n.Version)
	}
	return b.String()
}

// Matches reports whether n and o name the same type, ignoring version.
func (n TypeName) Matches(o TypeName) bool {
	return n.FullName == o.FullName && n.Assembly == o.Assembly
}

// IsZero reports whether n is empty.
func (n TypeName) IsZero() bool { return n.FullName == "" }

// ParseTypeName parses the assembly-qualified form produced by String.
// Commas inside type argument brackets belong to the full name.
func ParseTypeName(s string) (TypeName, error) {
	parts := splitTopLevel(s)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" || len(parts) > 3 {
		return TypeName{}, fmt.Errorf("%w: %q", ErrInvalidTypeName, s)
	}
	n := TypeName{FullName: parts[0]}
	for _, p := range parts[1:] {
		switch {
		case strings.HasPrefix(p, "Version="):
			n.Version = strings.TrimPrefix(p, "Version=")
		case n.Assembly == "" && p != "":
			n.Assembly = p
		default:
			return TypeName{}, fmt.Errorf("%w: %q", ErrInvalidTypeName, s)
		}
	}
	return n, nil
}

// splitTopLevel splits s on commas that are not nested in [...].
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// derivedName computes the name of t from reflection alone. Pointers are
// unwrapped so *T and T share a name.
func derivedName(t reflect.Type) TypeName {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return TypeName{FullName: t.String()}
	}
	return TypeName{
		FullName: path.Base(t.PkgPath()) + "." + t.Name(),
		Assembly: t.PkgPath(),
	}
}
