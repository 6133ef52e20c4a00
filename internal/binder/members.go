package binder

import "reflect"

// Members returns the named, non-well-known types reachable from t through
// exported struct fields, slice and array elements, map keys and values, and
// pointers. t itself is not included. Interface-typed fields contribute
// nothing: their contents decode as generic values.
func Members(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	root := unwrap(t)
	seen := map[reflect.Type]bool{}

	var walk func(reflect.Type)
	walk = func(t reflect.Type) {
		t = unwrap(t)
		if seen[t] {
			return
		}
		seen[t] = true
		if t != root && t.Name() != "" && t.PkgPath() != "" && t.Kind() != reflect.Interface && !IsWellKnown(t) {
			out = append(out, t)
		}
		switch t.Kind() {
		case reflect.Struct:
			for i := range t.NumField() {
				f := t.Field(i)
				if f.IsExported() {
					walk(f.Type)
				}
			}
		case reflect.Slice, reflect.Array:
			walk(t.Elem())
		case reflect.Map:
			walk(t.Key())
			walk(t.Elem())
		}
	}
	walk(root)
	return out
}
