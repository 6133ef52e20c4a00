// Package dataobject bridges the three shapes a bag of named, typed payloads
// can take: the in-process Data contract, the native transfer contract
// (ole.DataObject) and its legacy interop shape (ole.RuntimeDataObject).
//
// A Composition binds one source to all three shapes. Built from a local
// store it renders payloads on demand for native callers. Built from a
// native or runtime object it decodes what the other side offers.
package dataobject

import (
	"reflect"

	"go.klb.dev/dataxfer/internal/binder"
	"go.klb.dev/dataxfer/internal/codec"
	"go.klb.dev/dataxfer/internal/ole"
	"go.klb.dev/dataxfer/internal/policy"
	"go.klb.dev/dataxfer/internal/store"
)

// Data is the in-process payload contract.
type Data interface {
	GetData(name string, autoConvert bool) (any, bool)
	TryGetData(req binder.Request, t reflect.Type) (any, bool, error)
	SetData(name string, autoConvert bool, value any) error
	GetDataPresent(name string, autoConvert bool) bool
	GetFormats(autoConvert bool) []string
}

var (
	_ Data           = (*store.Store)(nil)
	_ Data           = (*nativeReader)(nil)
	_ ole.DataObject = (*managedNative)(nil)
)

// Composition presents one payload source in all three shapes.
type Composition struct {
	managed Data
	native  ole.DataObject
	runtime ole.RuntimeDataObject

	store *store.Store
	local *managedNative
	codec *codec.Codec
}

// FromStore composes a locally owned store. Native callers get renderings
// produced by cd. A nil cd uses the default policy.
func FromStore(s *store.Store, cd *codec.Codec) *Composition {
	cd = orDefault(cd, s.Registry())
	c := &Composition{managed: s, store: s, codec: cd}
	c.local = newManagedNative(c, s, cd)
	c.native = c.local
	c.runtime = ole.RuntimeFrom(c.native)
	return c
}

// FromNative composes a data object that came from elsewhere. Reads decode
// with cd. A nil cd uses the default policy.
func FromNative(d ole.DataObject, cd *codec.Codec) *Composition {
	cd = orDefault(cd, nil)
	return &Composition{
		managed: &nativeReader{src: d, codec: cd},
		native:  d,
		runtime: ole.RuntimeFrom(d),
		codec:   cd,
	}
}

// FromRuntime composes a data object in the legacy interop shape.
func FromRuntime(rt ole.RuntimeDataObject, cd *codec.Codec) *Composition {
	c := FromNative(ole.NativeFrom(rt), cd)
	c.runtime = rt
	return c
}

func orDefault(cd *codec.Codec, reg *binder.Registry) *codec.Codec {
	if cd != nil {
		return cd
	}
	return codec.New(policy.Default(), reg)
}

// Managed returns the in-process shape.
func (c *Composition) Managed() Data { return c.managed }

// Native returns the native shape.
func (c *Composition) Native() ole.DataObject { return c.native }

// Runtime returns the legacy interop shape.
func (c *Composition) Runtime() ole.RuntimeDataObject { return c.runtime }

// Store returns the local store, or nil when the data came from elsewhere.
func (c *Composition) Store() *store.Store { return c.store }

// Codec returns the codec used for rendering and decoding.
func (c *Composition) Codec() *codec.Codec { return c.codec }

// IsLocal reports whether the composition owns its payloads.
func (c *Composition) IsLocal() bool { return c.store != nil }

// ReleaseDragFormats releases every drag-loop format cached by the native
// side. It is a no-op for data that came from elsewhere.
func (c *Composition) ReleaseDragFormats() error {
	if c.local == nil {
		return nil
	}
	return c.local.ReleaseDragFormats()
}

// LocalComposition recovers the in-process composition behind d, following
// proxies. It reports false when d is someone else's data.
func LocalComposition(d ole.DataObject) (*Composition, bool) {
	if d == nil {
		return nil, false
	}
	if m, ok := ole.Unwrap(d).(*managedNative); ok {
		return m.comp, true
	}
	return nil, false
}
