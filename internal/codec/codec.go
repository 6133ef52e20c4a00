// Package codec serializes clipboard payload objects into marked byte
// streams and reads them back under a serialization policy.
//
// A stream is the 16-byte Marker followed by one CBOR record. Well-known
// values (see binder.WellKnown) are written as a safe record that readers
// decode without consulting the policy. Anything else needs the legacy
// object-graph record, which both legacy policy gates must allow and which is
// never written or read for a restricted format.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"go.klb.dev/dataxfer/internal/binder"
	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/policy"
)

var (
	// ErrNotSupported means the payload needs legacy serialization and the
	// policy, the format, or the requested type does not allow it.
	ErrNotSupported = errors.New("serialization not supported")

	// ErrRestricted is the stop signal for restricted formats: callers must
	// not retry with a synonym or a looser policy.
	ErrRestricted = binder.ErrRestricted

	// ErrBindingFailed is returned when a type in the stream does not bind.
	ErrBindingFailed = binder.ErrBindingFailed

	// ErrMalformed means the stream carried the marker but no valid record.
	ErrMalformed = errors.New("malformed serialized stream")

	// ErrNoMarker means the data is raw bytes, not a serialized object.
	ErrNoMarker = errors.New("stream has no serialized-object marker")
)

// Codec writes and reads serialized-object streams.
type Codec struct {
	policy   policy.Policy
	registry *binder.Registry
}

// New returns a Codec enforcing p. A nil registry means binder.Default().
func New(p policy.Policy, reg *binder.Registry) *Codec {
	if reg == nil {
		reg = binder.Default()
	}
	return &Codec{policy: p, registry: reg}
}

// Policy returns the policy the codec enforces.
func (c *Codec) Policy() policy.Policy { return c.policy }

// Registry returns the type registry used for binding.
func (c *Codec) Registry() *binder.Registry { return c.registry }

// CanWrite reports whether value can be written under the named format with
// policy p, without writing anything.
func CanWrite(name string, value any, p policy.Policy) error {
	if value == nil {
		return fmt.Errorf("%w: nil value", ErrNotSupported)
	}
	if binder.IsWellKnown(reflect.TypeOf(value)) {
		return nil
	}
	if format.IsRestrictedFormat(name) {
		return fmt.Errorf("%w: %w: %s", ErrNotSupported, ErrRestricted, name)
	}
	if !p.LegacyEnabled() {
		return fmt.Errorf("%w: legacy serialization is disabled for %T", ErrNotSupported, value)
	}
	return nil
}

// Write writes value as a marked stream for the named format.
func (c *Codec) Write(w io.Writer, value any, name string) error {
	if err := CanWrite(name, value, c.policy); err != nil {
		return err
	}
	raw, err := encMode.Marshal(value)
	if err != nil {
		return fmt.Errorf("codec: encode %T: %w", value, err)
	}

	t := reflect.TypeOf(value)
	var rec cbor.Tag
	if n, ok := binder.WellKnownName(t); ok {
		rec = cbor.Tag{Number: safeTag, Content: safeRecord{Type: n.String(), Value: raw}}
	} else {
		members := binder.Members(t)
		lr := legacyRecord{Root: c.registry.NameOf(t).String(), Value: raw}
		for _, m := range members {
			lr.Types = append(lr.Types, c.registry.NameOf(m).String())
		}
		rec = cbor.Tag{Number: legacyTag, Content: lr}
		slog.Debug("writing legacy object record", "format", name, "type", lr.Root, "members", len(members))
	}

	if _, err := w.Write(Marker[:]); err != nil {
		return fmt.Errorf("codec: write marker: %w", err)
	}
	if err := encMode.NewEncoder(w).Encode(rec); err != nil {
		return fmt.Errorf("codec: write record: %w", err)
	}
	return nil
}

// Encode returns value as a marked stream.
func (c *Codec) Encode(value any, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Write(&buf, value, name); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes a marked stream for req. root is the requested type; it may be
// nil for untyped requests. A stream whose value is not of the requested type
// is a miss: (nil, false, nil).
func (c *Codec) Read(data []byte, req binder.Request, root reflect.Type) (any, bool, error) {
	body, ok := StripMarker(data)
	if !ok {
		return nil, false, ErrNoMarker
	}
	var tag cbor.RawTag
	if err := decMode.Unmarshal(body, &tag); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	switch tag.Number {
	case safeTag:
		return c.readSafe(tag.Content, req, root)
	case legacyTag:
		return c.readLegacy(tag.Content, req, root)
	default:
		return nil, false, fmt.Errorf("%w: unknown record tag %d", ErrMalformed, tag.Number)
	}
}

// ReadFrom reads a whole stream from r and decodes it like Read.
func (c *Codec) ReadFrom(r io.Reader, req binder.Request, root reflect.Type) (any, bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("codec: read stream: %w", err)
	}
	return c.Read(data, req, root)
}

// TryRead decodes a marked stream into T.
func TryRead[T any](c *Codec, data []byte, req binder.Request) (T, bool, error) {
	var zero T
	req.Typed = true
	v, ok, err := c.Read(data, req, reflect.TypeFor[T]())
	if err != nil || !ok {
		return zero, false, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, false, nil
	}
	return t, true, nil
}

func (c *Codec) readSafe(content []byte, req binder.Request, root reflect.Type) (any, bool, error) {
	if !c.policy.SafeSerialization && !c.policy.LegacyEnabled() {
		return nil, false, fmt.Errorf("%w: safe and legacy serialization are both disabled", ErrNotSupported)
	}
	var rec safeRecord
	if err := decMode.Unmarshal(content, &rec); err != nil {
		return nil, false, fmt.Errorf("%w: safe record: %w", ErrMalformed, err)
	}
	name, err := binder.ParseTypeName(rec.Type)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	t, ok := binder.WellKnown(name)
	if !ok {
		return nil, false, fmt.Errorf("%w: safe record names %s", ErrMalformed, name)
	}
	if !accepts(root, t) {
		return nil, false, nil
	}
	ptr := reflect.New(t)
	if err := decMode.Unmarshal(rec.Value, ptr.Interface()); err != nil {
		return nil, false, fmt.Errorf("codec: decode %s: %w", name, err)
	}
	return materialize(ptr, root), true, nil
}

func (c *Codec) readLegacy(content []byte, req binder.Request, root reflect.Type) (any, bool, error) {
	var rec legacyRecord
	if err := decMode.Unmarshal(content, &rec); err != nil {
		return nil, false, fmt.Errorf("%w: legacy record: %w", ErrMalformed, err)
	}
	rootName, err := binder.ParseTypeName(rec.Root)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if format.IsRestrictedFormat(req.Format) {
		return nil, false, fmt.Errorf("%w: %s carries %s", ErrRestricted, req.Format, rootName)
	}

	b := binder.New(root, req, c.registry)

	// Typed reads check the root name before anything is decoded.
	if req.Typed {
		concrete := b.Root() != nil && b.Root().Kind() != reflect.Interface
		switch {
		case !concrete && req.Resolver == nil:
			return nil, false, fmt.Errorf("%w: cannot verify %s against %v", ErrNotSupported, rootName, root)
		case concrete && !b.MatchesRoot(rootName) && req.Resolver == nil:
			slog.Debug("serialized root does not match requested type", "stream", rootName.String(), "requested", root)
			return nil, false, nil
		}
	}

	if !c.policy.LegacyEnabled() {
		return nil, false, fmt.Errorf("%w: legacy serialization is disabled", ErrNotSupported)
	}

	rootType, err := b.Bind(rootName)
	if err != nil {
		return nil, false, err
	}
	if req.Typed && !accepts(root, rootType) {
		return nil, false, fmt.Errorf("%w: %s bound to %v, requested %v", ErrBindingFailed, rootName, rootType, root)
	}

	reachable := map[reflect.Type]bool{}
	for _, m := range binder.Members(rootType) {
		reachable[m] = true
	}
	for _, s := range rec.Types {
		n, err := binder.ParseTypeName(s)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		t, err := b.Bind(n)
		if err != nil {
			return nil, false, err
		}
		if !reachable[t] && !binder.IsWellKnown(t) {
			return nil, false, fmt.Errorf("%w: %s is not part of %s", ErrBindingFailed, n, rootName)
		}
	}

	ptr := reflect.New(rootType)
	if err := decMode.Unmarshal(rec.Value, ptr.Interface()); err != nil {
		return nil, false, fmt.Errorf("codec: decode %s: %w", rootName, err)
	}
	return materialize(ptr, root), true, nil
}

// accepts reports whether a decoded t satisfies a request for root.
func accepts(root, t reflect.Type) bool {
	if root == nil {
		return true
	}
	for root.Kind() == reflect.Pointer {
		root = root.Elem()
	}
	if root.Kind() == reflect.Interface {
		return t.Implements(root)
	}
	return root == t
}

// materialize returns the decoded value in the shape the caller asked for:
// a pointer when root is a pointer type, the value otherwise.
func materialize(ptr reflect.Value, root reflect.Type) any {
	if root != nil && root.Kind() == reflect.Pointer {
		return ptr.Interface()
	}
	return ptr.Elem().Interface()
}
