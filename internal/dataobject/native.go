package dataobject

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.klb.dev/dataxfer/internal/codec"
	"go.klb.dev/dataxfer/internal/dragdrop"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/ole"
	"go.klb.dev/dataxfer/internal/store"
)

// managedNative presents a local store through the native contract. It is
// read-only except for drag-loop-private formats, which live in their own
// cache for the duration of one drag operation.
type managedNative struct {
	comp  *Composition
	store *store.Store
	codec *codec.Codec

	mu   sync.Mutex
	drag map[format.ID]*dragdrop.Format
}

func newManagedNative(c *Composition, s *store.Store, cd *codec.Codec) *managedNative {
	return &managedNative{comp: c, store: s, codec: cd, drag: make(map[format.ID]*dragdrop.Format)}
}

func (m *managedNative) GetData(fe ole.FormatEtc) (ole.Medium, error) {
	if cached, ok := m.dragFormat(fe.Format); ok {
		slog.Debug("drag-loop private format retrieved", "format", format.GetName(fe.Format))
		return cached.GetData()
	}
	if fe.Tymed&ole.AllowedTymeds == 0 {
		return ole.Medium{}, ole.DV_E_TYMED
	}

	switch {
	case fe.Tymed&ole.TymedHGlobal != 0:
		g, err := m.render(fe)
		if err != nil {
			return ole.Medium{}, err
		}
		return ole.Medium{Tymed: ole.TymedHGlobal, Global: g}, nil
	case fe.Tymed&ole.TymedIStream != 0:
		g, err := m.render(fe)
		if err != nil {
			return ole.Medium{}, err
		}
		b, err := g.Bytes()
		_ = g.Free()
		if err != nil {
			return ole.Medium{}, err
		}
		return ole.Medium{Tymed: ole.TymedIStream, Stream: bytes.NewReader(b)}, nil
	default:
		return m.renderGDI(fe)
	}
}

func (m *managedNative) GetDataHere(fe ole.FormatEtc, dst *ole.Medium) error {
	if dst == nil {
		return ole.E_INVALIDARG
	}
	if fe.Tymed&ole.AllowedTymeds == 0 || dst.Tymed&ole.AllowedTymeds == 0 {
		return ole.DV_E_TYMED
	}
	g, err := m.render(fe)
	if err != nil {
		return err
	}
	defer func() { _ = g.Free() }()
	b, err := g.Bytes()
	if err != nil {
		return err
	}

	switch {
	case dst.Tymed == ole.TymedHGlobal && dst.Global != nil:
		if err := dst.Global.ReAlloc(len(b)); err != nil {
			return fmt.Errorf("get data here: %w", err)
		}
		return dst.Global.With(func(buf []byte) error {
			copy(buf, b)
			return nil
		})
	case dst.Tymed == ole.TymedIStream && dst.Stream != nil:
		w, ok := dst.Stream.(io.Writer)
		if !ok {
			return ole.E_INVALIDARG
		}
		_, err := w.Write(b)
		return err
	}
	return ole.DV_E_TYMED
}

func (m *managedNative) QueryGetData(fe ole.FormatEtc) ole.HRESULT {
	if fe.Aspect != ole.AspectContent {
		return ole.DV_E_DVASPECT
	}
	if fe.Tymed&ole.AllowedTymeds == 0 {
		return ole.DV_E_TYMED
	}
	if fe.Format == 0 {
		slog.Debug("query get data: S_FALSE for format 0")
		return ole.S_FALSE
	}
	if _, ok := m.dragFormat(fe.Format); ok {
		return ole.S_OK
	}
	if !m.store.GetDataPresent(format.GetName(fe.Format), true) {
		return ole.DV_E_FORMATETC
	}
	return ole.S_OK
}

func (m *managedNative) GetCanonicalFormatEtc(in ole.FormatEtc) (ole.FormatEtc, ole.HRESULT) {
	return ole.FormatEtc{}, ole.DATA_S_SAMEFORMATETC
}

// SetData accepts drag-loop-private formats only, or any format while a
// shell drag loop is running. With release the cache takes ownership of
// medium; otherwise it keeps a copy.
func (m *managedNative) SetData(fe ole.FormatEtc, medium ole.Medium, release bool) error {
	name := format.GetName(fe.Format)
	if !format.IsDragLoopFormat(name) && !m.inDragLoop() {
		return ole.E_NOTIMPL
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.drag[fe.Format]; ok {
		if err := f.RefreshData(fe.Format, medium, !release); err != nil {
			return err
		}
		slog.Debug("drag-loop private format refreshed", "format", name)
		return nil
	}
	f, err := dragdrop.NewFormat(fe.Format, medium, !release)
	if err != nil {
		return err
	}
	m.drag[fe.Format] = f
	slog.Debug("drag-loop private format loaded", "format", name)
	return nil
}

func (m *managedNative) EnumFormatEtc(dir ole.Direction) ([]ole.FormatEtc, error) {
	if dir != ole.DirGet {
		return nil, ole.E_NOTIMPL
	}
	names := m.store.GetFormats(true)
	out := make([]ole.FormatEtc, 0, len(names))
	for _, name := range names {
		id, err := format.GetID(name)
		if err != nil {
			continue
		}
		tymed := ole.TymedHGlobal
		if name == format.Bitmap {
			tymed = ole.TymedGDI
		} else if v, ok := m.store.GetData(name, true); ok {
			if _, isStream := v.(io.Reader); isStream {
				tymed = ole.TymedHGlobal | ole.TymedIStream
			}
		}
		out = append(out, ole.ContentEtc(id, tymed))
	}
	return out, nil
}

func (m *managedNative) DAdvise(ole.FormatEtc, uint32, ole.AdviseSink) (uint32, error) {
	return 0, ole.OLE_E_ADVISENOTSUPPORTED
}

func (m *managedNative) DUnadvise(uint32) error { return ole.OLE_E_ADVISENOTSUPPORTED }

func (m *managedNative) EnumDAdvise() ([]ole.StatData, error) {
	return nil, ole.OLE_E_ADVISENOTSUPPORTED
}

// ReleaseDragFormats drops every cached drag-loop format and releases its
// medium.
func (m *managedNative) ReleaseDragFormats() error {
	m.mu.Lock()
	cached := m.drag
	m.drag = make(map[format.ID]*dragdrop.Format)
	m.mu.Unlock()

	var errs []error
	for id, f := range cached {
		if err := f.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", format.GetName(id), err))
		}
	}
	return errors.Join(errs...)
}

func (m *managedNative) dragFormat(id format.ID) (*dragdrop.Format, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.drag[id]
	return f, ok
}

// inDragLoop reports whether the InShellDragLoop flag is set in the cache.
func (m *managedNative) inDragLoop() bool {
	id, err := format.GetID(format.InShellDragLoop)
	if err != nil {
		return false
	}
	f, ok := m.dragFormat(id)
	if !ok {
		return false
	}
	medium, err := f.GetData()
	if err != nil {
		return false
	}
	defer func() { _ = medium.Release() }()
	v, err := dragdrop.BoolFromMedium(medium)
	return err == nil && v
}

// render produces the HGLOBAL rendering of the payload for fe.
func (m *managedNative) render(fe ole.FormatEtc) (*ole.Global, error) {
	name := format.GetName(fe.Format)
	value, ok := m.store.GetData(name, true)
	if !ok {
		return nil, ole.DV_E_FORMATETC
	}
	b, err := renderValue(m.codec, name, value)
	if err != nil {
		return nil, err
	}
	return ole.GlobalFrom(b), nil
}

func (m *managedNative) renderGDI(fe ole.FormatEtc) (ole.Medium, error) {
	name := format.GetName(fe.Format)
	value, ok := m.store.GetData(name, true)
	if !ok {
		return ole.Medium{}, ole.DV_E_FORMATETC
	}
	if bm, isBitmap := value.(exchange.Bitmap); isBitmap && name == format.Bitmap && !bm.IsEmpty() {
		return ole.Medium{Tymed: ole.TymedGDI, Bitmap: bm}, nil
	}
	return ole.Medium{}, ole.DV_E_TYMED
}

// renderValue applies the flat-buffer rendering rules to one payload.
func renderValue(cd *codec.Codec, name string, value any) ([]byte, error) {
	if r, ok := value.(io.Reader); ok {
		return readAllFromStart(r)
	}
	switch name {
	case format.Text, format.Rtf, format.OemText:
		if s, ok := textOf(value); ok {
			return EncodeANSI(s)
		}
	case format.Html:
		if s, ok := textOf(value); ok {
			return EncodeUTF8(s), nil
		}
	case format.UnicodeText:
		if s, ok := textOf(value); ok {
			return EncodeUTF16(s)
		}
	case format.FileDrop:
		if files, ok := value.([]string); ok {
			return EncodeFileDrop(files)
		}
	case format.FileNameAnsi:
		if f, ok := firstFile(value); ok {
			return EncodeANSI(f)
		}
	case format.FileNameUnicode:
		if f, ok := firstFile(value); ok {
			return EncodeUTF16(f)
		}
	case format.Dib:
		if _, ok := value.(exchange.Bitmap); ok {
			return nil, ole.DV_E_TYMED
		}
	}
	return cd.Encode(value, name)
}

// canRender reports, without rendering, whether renderValue would succeed
// for a write of value under name.
func canRender(cd *codec.Codec, name string, value any) error {
	if _, ok := value.(io.Reader); ok {
		return nil
	}
	switch name {
	case format.Text, format.Rtf, format.OemText, format.Html, format.UnicodeText:
		if _, ok := textOf(value); ok {
			return nil
		}
	case format.FileDrop:
		if _, ok := value.([]string); ok {
			return nil
		}
	case format.FileNameAnsi, format.FileNameUnicode:
		if _, ok := firstFile(value); ok {
			return nil
		}
	}
	return codec.CanWrite(name, value, cd.Policy())
}

func textOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}

func firstFile(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []string:
		if len(t) > 0 {
			return t[0], true
		}
	}
	return "", false
}

func readAllFromStart(r io.Reader) ([]byte, error) {
	if s, ok := r.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind stream: %w", err)
		}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return b, nil
}
