// Package binder decides whether a type name found inside a serialized stream
// may be instantiated.
//
// Resolution order for typed requests:
//
//  1. the well-known table (primitives, exchange types), always allowed;
//  2. the caller's Resolver, if one was supplied;
//  3. default structural matching against the requested root type and the
//     named types reachable from it.
//
// Untyped requests bind any registered type; they exist for legacy callers
// and are only reachable when legacy serialization is enabled by policy.
// Anything else fails with ErrBindingFailed and the payload is treated as
// absent.
package binder

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
)

var (
	// ErrBindingFailed means no rule allowed the type. A resolver that
	// declines a type produces this error too.
	ErrBindingFailed = errors.New("type binding failed")

	// ErrRestricted means the type was requested under a restricted format.
	// Callers must not fall back to any other format or policy.
	ErrRestricted = errors.New("type is not allowed for a restricted format")

	// ErrResolverNotAllowed is returned when an untyped request is given a
	// resolver.
	ErrResolverNotAllowed = errors.New("untyped requests cannot use a resolver")
)

// Resolver maps a stream type name to a Go type. Returning (nil, nil)
// declines the type; returning an error refuses it explicitly. Both end the
// binding attempt.
type Resolver func(TypeName) (reflect.Type, error)

// Request describes one data read.
type Request struct {
	Format      string
	AutoConvert bool
	Resolver    Resolver
	Typed       bool
}

// NewRequest validates and returns a Request.
func NewRequest(format string, autoConvert bool, resolver Resolver, typed bool) (Request, error) {
	if !typed && resolver != nil {
		return Request{}, ErrResolverNotAllowed
	}
	return Request{Format: format, AutoConvert: autoConvert, Resolver: resolver, Typed: typed}, nil
}

// WithFormat returns a copy of r targeting another format. Used when
// walking synonyms.
func (r Request) WithFormat(format string) Request {
	r.Format = format
	return r
}

// Binder binds stream names for one read.
type Binder struct {
	root       reflect.Type
	members    []reflect.Type
	req        Request
	reg        *Registry
	restricted bool
}

// New returns a Binder for a read of root under req. A nil registry means
// the process-wide one.
func New(root reflect.Type, req Request, reg *Registry) *Binder {
	if reg == nil {
		reg = Default()
	}
	b := &Binder{req: req, reg: reg}
	if root != nil {
		b.root = unwrap(root)
		if b.root.Kind() != reflect.Interface {
			b.members = Members(b.root)
		}
	}
	return b
}

// Restrict limits the binder to well-known types; every other name fails
// with ErrRestricted.
func (b *Binder) Restrict() *Binder {
	b.restricted = true
	return b
}

// Bind resolves name to a type or fails.
func (b *Binder) Bind(name TypeName) (reflect.Type, error) {
	if t, ok := WellKnown(name); ok {
		return t, nil
	}
	if b.restricted {
		return nil, fmt.Errorf("%w: %s", ErrRestricted, name)
	}

	if !b.req.Typed {
		if t, ok := b.reg.Lookup(name); ok {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %s is not registered", ErrBindingFailed, name)
	}

	if b.req.Resolver != nil {
		t, err := b.req.Resolver(name)
		if err != nil {
			return nil, fmt.Errorf("%w: resolver refused %s: %w", ErrBindingFailed, name, err)
		}
		if t == nil {
			slog.Debug("resolver declined type", "type", name.String())
			return nil, fmt.Errorf("%w: resolver declined %s", ErrBindingFailed, name)
		}
		return t, nil
	}

	if b.MatchesRoot(name) {
		return b.root, nil
	}
	for _, m := range b.members {
		if b.matches(m, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s does not match requested type", ErrBindingFailed, name)
}

// MatchesRoot reports whether name denotes the requested root type, by its
// stream name (version ignored) or through a forwarding record.
func (b *Binder) MatchesRoot(name TypeName) bool {
	if b.root == nil || b.root.Kind() == reflect.Interface {
		return false
	}
	return b.matches(b.root, name)
}

func (b *Binder) matches(t reflect.Type, name TypeName) bool {
	if b.reg.NameOf(t).Matches(name) {
		return true
	}
	got, ok := b.reg.Lookup(name)
	return ok && got == t
}

// Root returns the requested root type, pointers unwrapped.
func (b *Binder) Root() reflect.Type { return b.root }

// Registry returns the registry the binder resolves against.
func (b *Binder) Registry() *Registry { return b.reg }
