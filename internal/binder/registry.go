package binder

import (
	"reflect"
	"sync"
)

// Registry is the set of types that may ever be instantiated from a stream.
// Go cannot create a type from its name, so a type that is not registered
// here (or well known) can never be produced by the legacy codec.
type Registry struct {
	mu        sync.RWMutex
	byKey     map[string]reflect.Type
	names     map[reflect.Type]TypeName
	forwarded map[string]reflect.Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:     make(map[string]reflect.Type),
		names:     make(map[reflect.Type]TypeName),
		forwarded: make(map[string]reflect.Type),
	}
}

type registration struct {
	name      TypeName
	forwarded []string
}

// Option customizes a registration.
type Option func(*registration)

// WithName registers the type under an explicit name instead of the one
// derived from its package path.
func WithName(n TypeName) Option {
	return func(r *registration) { r.name = n }
}

// ForwardedFrom records that streams may name the type under an older
// assembly, e.g. after it moved packages.
func ForwardedFrom(assembly ...string) Option {
	return func(r *registration) { r.forwarded = append(r.forwarded, assembly...) }
}

func key(n TypeName) string { return n.FullName + ", " + n.Assembly }

// Register adds t and returns the name streams will carry for it.
func (r *Registry) Register(t reflect.Type, opts ...Option) TypeName {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	reg := registration{name: derivedName(t)}
	for _, o := range opts {
		o(&reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[key(reg.name)] = t
	r.names[t] = reg.name
	for _, asm := range reg.forwarded {
		r.forwarded[key(TypeName{FullName: reg.name.FullName, Assembly: asm})] = t
	}
	return reg.name
}

// Lookup resolves a stream name, following forwarding records.
func (r *Registry) Lookup(n TypeName) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.byKey[key(n)]; ok {
		return t, true
	}
	t, ok := r.forwarded[key(n)]
	return t, ok
}

// NameOf returns the stream name for t: its registered name if any,
// otherwise the derived one.
func (r *Registry) NameOf(t reflect.Type) TypeName {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	n, ok := r.names[t]
	r.mu.RUnlock()
	if ok {
		return n
	}
	return derivedName(t)
}

// Registered reports whether t was registered.
func (r *Registry) Registered(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[t]
	return ok
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds T to the process-wide registry.
func Register[T any](opts ...Option) TypeName {
	return defaultRegistry.Register(reflect.TypeFor[T](), opts...)
}

// NameOf returns the process-wide stream name of T.
func NameOf[T any]() TypeName {
	return defaultRegistry.NameOf(reflect.TypeFor[T]())
}
