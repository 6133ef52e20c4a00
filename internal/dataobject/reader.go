package dataobject

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"go.klb.dev/dataxfer/internal/binder"
	"go.klb.dev/dataxfer/internal/codec"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/ole"
	"go.klb.dev/dataxfer/internal/store"
)

// ErrReadOnly is returned when writing to data that arrived from outside the
// process.
var ErrReadOnly = errors.New("data object is read-only")

// nativeReader exposes a foreign native data object through the Data
// contract.
type nativeReader struct {
	src   ole.DataObject
	codec *codec.Codec
}

func (r *nativeReader) GetData(name string, autoConvert bool) (any, bool) {
	req := binder.Request{Format: name, AutoConvert: autoConvert}
	v, ok, err := r.read(req, nil)
	if err != nil {
		slog.Debug("get data: read failed", "format", name, "err", err)
		return nil, false
	}
	return v, ok
}

func (r *nativeReader) TryGetData(req binder.Request, t reflect.Type) (any, bool, error) {
	return r.read(req, t)
}

func (r *nativeReader) SetData(string, bool, any) error { return ErrReadOnly }

func (r *nativeReader) GetDataPresent(name string, autoConvert bool) bool {
	names := []string{name}
	if autoConvert {
		names = format.AddMappedFormats(name, names)
	}
	for _, n := range names {
		if r.present(n) {
			return true
		}
	}
	return false
}

func (r *nativeReader) present(name string) bool {
	id, err := format.GetID(name)
	if err != nil {
		return false
	}
	for _, tymed := range []ole.Tymed{ole.TymedHGlobal, ole.TymedIStream, ole.TymedGDI} {
		if r.src.QueryGetData(ole.ContentEtc(id, tymed)) == ole.S_OK {
			return true
		}
	}
	return false
}

func (r *nativeReader) GetFormats(autoConvert bool) []string {
	list, err := r.src.EnumFormatEtc(ole.DirGet)
	if err != nil {
		slog.Debug("get formats: enumeration failed", "err", err)
		return nil
	}
	var out []string
	for _, fe := range list {
		name := format.GetName(fe.Format)
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	if autoConvert {
		for _, name := range slices.Clone(out) {
			out = format.AddMappedFormats(name, out)
		}
	}
	return out
}

// read runs the read chain for req.Format and, with AutoConvert, its
// synonyms. A restricted signal ends the chain and reports not found, except
// for typed requests carrying a resolver. Untyped reads move on to the next
// synonym when a payload is not supported; other errors end the chain.
func (r *nativeReader) read(req binder.Request, t reflect.Type) (any, bool, error) {
	names := []string{req.Format}
	if req.AutoConvert {
		names = format.AddMappedFormats(req.Format, names)
	}
	for _, name := range names {
		v, ok, err := r.readFormat(req.WithFormat(name), t)
		if errors.Is(err, codec.ErrRestricted) {
			slog.Debug("read stopped on restricted format", "format", name, "err", err)
			if req.Typed && req.Resolver != nil {
				return nil, false, fmt.Errorf("%w: %w", codec.ErrNotSupported, err)
			}
			return nil, false, nil
		}
		if err != nil && !req.Typed && errors.Is(err, codec.ErrNotSupported) {
			slog.Debug("read skipped unsupported payload", "format", name, "err", err)
			continue
		}
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		v = convertFor(req.Format, v)
		if !acceptsValue(t, v) {
			continue
		}
		return v, true, nil
	}
	return nil, false, nil
}

// readFormat tries, in order, the GDI fast path, a flat buffer, and a stream
// normalized into a flat buffer.
func (r *nativeReader) readFormat(req binder.Request, t reflect.Type) (any, bool, error) {
	id, err := format.GetID(req.Format)
	if err != nil {
		return nil, false, nil
	}

	if req.Format == format.Bitmap {
		if bm, ok := r.bitmapFastPath(id); ok {
			return bm, true, nil
		}
	}

	if m, err := r.src.GetData(ole.ContentEtc(id, ole.TymedHGlobal)); err == nil {
		v, ok, err := r.decodeMedium(m, req, t)
		if ok || err != nil {
			return v, ok, err
		}
	} else {
		slog.Debug("hglobal probe failed", "format", req.Format, "err", err)
	}

	m, err := r.src.GetData(ole.ContentEtc(id, ole.TymedIStream))
	if err != nil {
		return nil, false, nil
	}
	return r.decodeMedium(m, req, t)
}

// bitmapFastPath probes for a GDI rendering. Failures only mean "try the
// next strategy".
func (r *nativeReader) bitmapFastPath(id format.ID) (bm exchange.Bitmap, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("bitmap probe panicked", "panic", p)
			ok = false
		}
	}()
	m, err := r.src.GetData(ole.ContentEtc(id, ole.TymedGDI))
	if err != nil || m.Tymed != ole.TymedGDI || m.Bitmap.IsEmpty() {
		return exchange.Bitmap{}, false
	}
	return m.Bitmap, true
}

func (r *nativeReader) decodeMedium(m ole.Medium, req binder.Request, t reflect.Type) (any, bool, error) {
	defer func() { _ = m.Release() }()

	var g *ole.Global
	switch {
	case m.Tymed == ole.TymedHGlobal && m.Global != nil:
		g = m.Global
	case m.Tymed == ole.TymedIStream && m.Stream != nil:
		var err error
		if g, err = ole.ReadStream(m.Stream); err != nil {
			return nil, false, err
		}
		defer func() { _ = g.Free() }()
	default:
		return nil, false, nil
	}

	var (
		v   any
		ok  bool
		err error
	)
	werr := g.With(func(b []byte) error {
		v, ok, err = decodeBuffer(r.codec, b, req, t)
		return nil
	})
	if werr != nil {
		return nil, false, werr
	}
	return v, ok, err
}

// decodeBuffer applies the predefined-format decoders, then the
// serialized-object path, then falls back to raw bytes.
func decodeBuffer(cd *codec.Codec, b []byte, req binder.Request, t reflect.Type) (any, bool, error) {
	var (
		v   any
		err error
	)
	switch req.Format {
	case format.Text, format.Rtf, format.OemText, format.FileNameAnsi:
		v, err = DecodeANSI(b)
	case format.Html:
		v = DecodeUTF8(b)
	case format.UnicodeText, format.FileNameUnicode:
		v, err = DecodeUTF16(b)
	case format.FileDrop:
		v, err = DecodeFileDrop(b)
	default:
		if codec.HasMarker(b) {
			return readObject(cd, b, req, t)
		}
		// Raw bytes are handed out as a stream over a private copy.
		return bytes.NewReader(bytes.Clone(b)), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

var jsonType = reflect.TypeFor[exchange.JSON]()

// readObject decodes a serialized object. A typed request that misses may
// still be satisfied by a deferred JSON payload of the requested type.
func readObject(cd *codec.Codec, b []byte, req binder.Request, t reflect.Type) (any, bool, error) {
	v, ok, err := cd.Read(b, req, t)
	if ok || err != nil || t == nil || t == jsonType || t.Kind() == reflect.Interface {
		return v, ok, err
	}
	j, ok, err := codec.TryRead[exchange.JSON](cd, b, binder.Request{Format: req.Format})
	if err != nil || !ok {
		return nil, false, nil
	}
	return store.DecodeJSON(cd.Registry(), j, req, t)
}

// convertFor adapts a value read for a synonym to the requested format.
func convertFor(requested string, v any) any {
	if requested != format.FileNameAnsi && requested != format.FileNameUnicode {
		return v
	}
	if files, ok := v.([]string); ok && len(files) > 0 {
		return files[0]
	}
	return v
}

// acceptsValue reports whether v satisfies a request for t. A nil t accepts
// anything.
func acceptsValue(t reflect.Type, v any) bool {
	if t == nil {
		return true
	}
	vt := reflect.TypeOf(v)
	if t.Kind() == reflect.Interface {
		return vt.Implements(t)
	}
	return vt == t
}
