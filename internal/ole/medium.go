package ole

import (
	"errors"
	"fmt"
	"io"

	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
)

// Tymed is the transfer medium kind.
type Tymed uint32

const (
	TymedNull     Tymed = 0
	TymedHGlobal  Tymed = 1
	TymedFile     Tymed = 2
	TymedIStream  Tymed = 4
	TymedIStorage Tymed = 8
	TymedGDI      Tymed = 16
	TymedMFPict   Tymed = 32
	TymedEnhMF    Tymed = 64

	// AllowedTymeds are the media a managed data object can produce.
	AllowedTymeds = TymedHGlobal | TymedIStream | TymedGDI
)

// Aspect is the requested detail level of a rendering.
type Aspect uint32

const (
	AspectContent   Aspect = 1
	AspectThumbnail Aspect = 2
	AspectIcon      Aspect = 4
	AspectDocPrint  Aspect = 8
)

// Direction selects which formats EnumFormatEtc lists.
type Direction uint32

const (
	DirGet Direction = 1
	DirSet Direction = 2
)

// FormatEtc describes one rendering: format, aspect, page index (-1 for
// all) and acceptable media.
type FormatEtc struct {
	Format format.ID
	Aspect Aspect
	Index  int32
	Tymed  Tymed
}

// ContentEtc returns the usual FormatEtc for id over the given media.
func ContentEtc(id format.ID, tymed Tymed) FormatEtc {
	return FormatEtc{Format: id, Aspect: AspectContent, Index: -1, Tymed: tymed}
}

// Medium is a rendering in transit. Exactly one of Global, Stream or Bitmap
// is meaningful, selected by Tymed. The receiver owns the medium and must
// Release it.
type Medium struct {
	Tymed  Tymed
	Global *Global
	Stream io.ReadSeeker
	Bitmap exchange.Bitmap
}

// Release frees the medium's resources. Calling it on a released or empty
// medium is a no-op.
func (m *Medium) Release() error {
	var errs []error
	if m.Global != nil {
		if err := m.Global.Free(); err != nil && !errors.Is(err, ErrFreed) {
			errs = append(errs, err)
		}
		m.Global = nil
	}
	if c, ok := m.Stream.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.Stream = nil
	m.Bitmap = exchange.Bitmap{}
	m.Tymed = TymedNull
	return errors.Join(errs...)
}

// Clone returns an independent copy of m, used when a receiver must keep
// data past the source's release.
func (m Medium) Clone() (Medium, error) {
	out := Medium{Tymed: m.Tymed, Bitmap: m.Bitmap}
	switch m.Tymed {
	case TymedHGlobal:
		if m.Global == nil {
			return Medium{}, fmt.Errorf("clone medium: %w", E_INVALIDARG)
		}
		b, err := m.Global.Bytes()
		if err != nil {
			return Medium{}, fmt.Errorf("clone medium: %w", err)
		}
		out.Global = GlobalFrom(b)
	case TymedIStream:
		if m.Stream == nil {
			return Medium{}, fmt.Errorf("clone medium: %w", E_INVALIDARG)
		}
		g, err := ReadStream(m.Stream)
		if err != nil {
			return Medium{}, err
		}
		out.Tymed, out.Global = TymedHGlobal, g
	}
	return out, nil
}

// ReadStream copies the whole of s, from its start, into a new Global.
func ReadStream(s io.ReadSeeker) (*Global, error) {
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	b, err := io.ReadAll(s)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return GlobalFrom(b), nil
}
