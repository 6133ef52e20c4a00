// Package store is the in-process payload map behind a locally created data
// object: format name to value, with synonym expansion on reads.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"

	"go.klb.dev/dataxfer/internal/binder"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
)

// ErrNilValue is returned when storing a nil payload.
var ErrNilValue = errors.New("store: value must not be nil")

// Entry is one stored payload. AutoConvert records how the value was set;
// reads with autoConvert reach every stored synonym regardless.
type Entry struct {
	Value       any
	AutoConvert bool
}

// Store maps format names to entries and remembers insertion order.
type Store struct {
	mu       sync.RWMutex
	order    []string
	entries  map[string]Entry
	registry *binder.Registry
}

// New returns an empty store. A nil registry means binder.Default().
func New(reg *binder.Registry) *Store {
	if reg == nil {
		reg = binder.Default()
	}
	return &Store{entries: make(map[string]Entry), registry: reg}
}

// Registry returns the type registry used for naming values.
func (s *Store) Registry() *binder.Registry { return s.registry }

// SetData stores value under name, replacing any previous entry.
func (s *Store) SetData(name string, autoConvert bool, value any) error {
	if strings.TrimSpace(name) == "" {
		return format.ErrInvalidName
	}
	if value == nil {
		return ErrNilValue
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(name, Entry{Value: value, AutoConvert: autoConvert})
	return nil
}

func (s *Store) put(name string, e Entry) {
	if _, ok := s.entries[name]; !ok {
		s.order = append(s.order, name)
	}
	s.entries[name] = e
}

// SetValue stores value under the format named after its type. Values of
// registered types are also stored under format.Serializable unless that
// slot is already taken.
func (s *Store) SetValue(value any) error {
	if value == nil {
		return ErrNilValue
	}
	name := s.FormatFor(reflect.TypeOf(value))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry.Registered(reflect.TypeOf(value)) {
		if _, taken := s.entries[format.Serializable]; !taken {
			s.put(format.Serializable, Entry{Value: value, AutoConvert: true})
		}
	}
	s.put(name, Entry{Value: value, AutoConvert: true})
	return nil
}

// FormatFor returns the format name a value of type t is stored under by
// SetValue.
func (s *Store) FormatFor(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case reflect.TypeFor[string]():
		return format.String
	case reflect.TypeFor[exchange.Bitmap]():
		return format.BinaryFormatBitmap
	}
	return s.registry.NameOf(t).FullName
}

// SetDataAsJSON stores value as a deferred JSON payload. Readers decode it
// on demand into a type whose name matches.
func (s *Store) SetDataAsJSON(name string, value any) error {
	if strings.TrimSpace(name) == "" {
		return format.ErrInvalidName
	}
	if value == nil {
		return ErrNilValue
	}
	if format.IsPredefinedFormat(name) {
		return fmt.Errorf("store: %s has a fixed representation and cannot hold JSON", name)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: json: %w", err)
	}
	payload := exchange.JSON{Type: s.registry.NameOf(reflect.TypeOf(value)).String(), Data: data}
	return s.SetData(name, true, payload)
}

// Entry returns the entry stored under exactly name.
func (s *Store) Entry(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	return e, ok
}

// GetData returns the value for name. When name is absent and autoConvert
// is set, stored synonyms are tried in lookup order. A file list satisfies a
// single file name request with its first path.
func (s *Store) GetData(name string, autoConvert bool) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[name]; ok {
		return e.Value, true
	}
	if !autoConvert {
		return nil, false
	}
	for _, syn := range format.AddMappedFormats(name, nil) {
		e, ok := s.entries[syn]
		if !ok {
			continue
		}
		slog.Debug("store: satisfied by synonym", "format", name, "synonym", syn)
		return convert(name, e.Value), true
	}
	return nil, false
}

// convert adapts a synonym's value to the requested format.
func convert(name string, v any) any {
	if name != format.FileNameAnsi && name != format.FileNameUnicode {
		return v
	}
	if files, ok := v.([]string); ok && len(files) > 0 {
		return files[0]
	}
	return v
}

// GetDataPresent reports whether GetData(name, autoConvert) would succeed.
func (s *Store) GetDataPresent(name string, autoConvert bool) bool {
	_, ok := s.GetData(name, autoConvert)
	return ok
}

// GetFormats lists the stored formats in insertion order. With autoConvert,
// the synonyms of every entry follow.
func (s *Store) GetFormats(autoConvert bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.order)
	if !autoConvert {
		return out
	}
	for _, name := range s.order {
		out = format.AddMappedFormats(name, out)
	}
	return out
}

// TryGetData returns the value for req if it is exactly of type t, or t is
// an interface the value implements. Deferred JSON payloads are decoded into
// t when their recorded type name matches t or req's resolver binds it to t.
// A type mismatch is a miss.
func (s *Store) TryGetData(req binder.Request, t reflect.Type) (any, bool, error) {
	v, ok := s.GetData(req.Format, req.AutoConvert)
	if !ok {
		return nil, false, nil
	}
	if j, isJSON := v.(exchange.JSON); isJSON && t.Kind() != reflect.Interface && t != reflect.TypeFor[exchange.JSON]() {
		return DecodeJSON(s.registry, j, req, t)
	}
	vt := reflect.TypeOf(v)
	if vt == t || (t.Kind() == reflect.Interface && vt.Implements(t)) {
		return v, true, nil
	}
	return nil, false, nil
}

// DecodeJSON decodes a deferred JSON payload into t. The recorded type name
// must match t under reg, or req's resolver must bind it to t; otherwise the
// payload is a miss.
func DecodeJSON(reg *binder.Registry, j exchange.JSON, req binder.Request, t reflect.Type) (any, bool, error) {
	name, err := binder.ParseTypeName(j.Type)
	if err != nil {
		return nil, false, fmt.Errorf("store: json payload: %w", err)
	}
	target := t
	for target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	if !reg.NameOf(target).Matches(name) {
		if req.Resolver == nil {
			return nil, false, nil
		}
		bound, err := req.Resolver(name)
		if err != nil {
			return nil, false, fmt.Errorf("%w: resolver refused %s: %w", binder.ErrBindingFailed, name, err)
		}
		if bound == nil || bound != target {
			return nil, false, nil
		}
	}
	ptr := reflect.New(target)
	if err := json.Unmarshal(j.Data, ptr.Interface()); err != nil {
		return nil, false, fmt.Errorf("store: decode json %s: %w", name, err)
	}
	if t.Kind() == reflect.Pointer {
		return ptr.Interface(), true, nil
	}
	return ptr.Elem().Interface(), true, nil
}

// TryGet is the generic form of TryGetData.
func TryGet[T any](s *Store, req binder.Request) (T, bool, error) {
	var zero T
	req.Typed = true
	v, ok, err := s.TryGetData(req, reflect.TypeFor[T]())
	if err != nil || !ok {
		return zero, false, err
	}
	return v.(T), true, nil
}

// Len returns the number of stored formats.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
