package binder

import (
	"reflect"
	"time"

	"go.klb.dev/dataxfer/internal/exchange"
)

// wellKnownTypes may always be bound, whatever the request says: primitives,
// the basic exchange types, and slices/maps of primitives.
var wellKnownTypes = []reflect.Type{
	reflect.TypeFor[bool](),
	reflect.TypeFor[int8](),
	reflect.TypeFor[int16](),
	reflect.TypeFor[int32](),
	reflect.TypeFor[int64](),
	reflect.TypeFor[int](),
	reflect.TypeFor[uint8](),
	reflect.TypeFor[uint16](),
	reflect.TypeFor[uint32](),
	reflect.TypeFor[uint64](),
	reflect.TypeFor[uint](),
	reflect.TypeFor[float32](),
	reflect.TypeFor[float64](),
	reflect.TypeFor[string](),
	reflect.TypeFor[time.Time](),
	reflect.TypeFor[time.Duration](),

	reflect.TypeFor[[]byte](),
	reflect.TypeFor[[]bool](),
	reflect.TypeFor[[]int16](),
	reflect.TypeFor[[]int32](),
	reflect.TypeFor[[]int64](),
	reflect.TypeFor[[]int](),
	reflect.TypeFor[[]uint16](),
	reflect.TypeFor[[]uint32](),
	reflect.TypeFor[[]uint64](),
	reflect.TypeFor[[]float32](),
	reflect.TypeFor[[]float64](),
	reflect.TypeFor[[]string](),
	reflect.TypeFor[[]time.Time](),
	reflect.TypeFor[map[string]string](),
	reflect.TypeFor[map[string]int64](),
	reflect.TypeFor[map[string]any](),

	reflect.TypeFor[exchange.Point](),
	reflect.TypeFor[exchange.PointF](),
	reflect.TypeFor[exchange.Size](),
	reflect.TypeFor[exchange.SizeF](),
	reflect.TypeFor[exchange.Rectangle](),
	reflect.TypeFor[exchange.RectangleF](),
	reflect.TypeFor[exchange.Color](),
	reflect.TypeFor[exchange.Bitmap](),
	reflect.TypeFor[exchange.JSON](),
}

var wellKnownByKey = func() map[string]reflect.Type {
	m := make(map[string]reflect.Type, len(wellKnownTypes))
	for _, t := range wellKnownTypes {
		m[key(derivedName(t))] = t
	}
	return m
}()

// WellKnown resolves n against the well-known table.
func WellKnown(n TypeName) (reflect.Type, bool) {
	t, ok := wellKnownByKey[key(n)]
	return t, ok
}

// IsWellKnown reports whether t (or the type t points to) is in the
// well-known table.
func IsWellKnown(t reflect.Type) bool {
	u := unwrap(t)
	k, ok := wellKnownByKey[key(derivedName(u))]
	return ok && k == u
}

// WellKnownName returns the stream name of a well-known type.
func WellKnownName(t reflect.Type) (TypeName, bool) {
	if !IsWellKnown(t) {
		return TypeName{}, false
	}
	return derivedName(t), true
}

func unwrap(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
