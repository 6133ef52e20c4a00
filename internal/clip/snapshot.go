package clip

import (
	"errors"
	"log/slog"
	"sync"

	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/ole"
)

// Snapshot is a data object holding fully rendered media. It is what the
// clipboard keeps after a flush, and what a foreign clipboard reads as.
type Snapshot struct {
	mu    sync.RWMutex
	order []format.ID
	media map[format.ID]ole.Medium
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{media: make(map[format.ID]ole.Medium)}
}

// Put stores m for id, taking ownership of it.
func (s *Snapshot) Put(id format.ID, m ole.Medium) {
	s.mu.Lock()
	prev, had := s.media[id]
	if !had {
		s.order = append(s.order, id)
	}
	s.media[id] = m
	s.mu.Unlock()
	if had {
		_ = prev.Release()
	}
}

// Capture renders every format d offers into a new snapshot. Formats that
// fail to render are left out.
func Capture(d ole.DataObject) (*Snapshot, error) {
	list, err := d.EnumFormatEtc(ole.DirGet)
	if err != nil {
		return nil, err
	}
	s := NewSnapshot()
	for _, fe := range list {
		m, err := render(d, fe)
		if err != nil {
			slog.Debug("flush: format not rendered", "format", format.GetName(fe.Format), "err", err)
			continue
		}
		s.Put(fe.Format, m)
	}
	return s, nil
}

// render asks d for fe in the preferred medium, normalizing streams into
// shared memory.
func render(d ole.DataObject, fe ole.FormatEtc) (ole.Medium, error) {
	for _, tymed := range []ole.Tymed{ole.TymedGDI, ole.TymedHGlobal, ole.TymedIStream} {
		if fe.Tymed&tymed == 0 {
			continue
		}
		m, err := d.GetData(ole.ContentEtc(fe.Format, tymed))
		if err != nil {
			return ole.Medium{}, err
		}
		if m.Tymed != ole.TymedIStream {
			return m, nil
		}
		c, err := m.Clone()
		_ = m.Release()
		return c, err
	}
	return ole.Medium{}, ole.DV_E_TYMED
}

func (s *Snapshot) lookup(fe ole.FormatEtc) (ole.Medium, ole.HRESULT) {
	if fe.Aspect != ole.AspectContent {
		return ole.Medium{}, ole.DV_E_DVASPECT
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.media[fe.Format]
	if !ok {
		return ole.Medium{}, ole.DV_E_FORMATETC
	}
	if m.Tymed&fe.Tymed == 0 {
		return ole.Medium{}, ole.DV_E_TYMED
	}
	return m, ole.S_OK
}

func (s *Snapshot) GetData(fe ole.FormatEtc) (ole.Medium, error) {
	m, hr := s.lookup(fe)
	if hr != ole.S_OK {
		return ole.Medium{}, hr
	}
	return m.Clone()
}

func (s *Snapshot) GetDataHere(ole.FormatEtc, *ole.Medium) error { return ole.E_NOTIMPL }

func (s *Snapshot) QueryGetData(fe ole.FormatEtc) ole.HRESULT {
	_, hr := s.lookup(fe)
	return hr
}

func (s *Snapshot) GetCanonicalFormatEtc(ole.FormatEtc) (ole.FormatEtc, ole.HRESULT) {
	return ole.FormatEtc{}, ole.DATA_S_SAMEFORMATETC
}

func (s *Snapshot) SetData(ole.FormatEtc, ole.Medium, bool) error { return ole.E_NOTIMPL }

func (s *Snapshot) EnumFormatEtc(dir ole.Direction) ([]ole.FormatEtc, error) {
	if dir != ole.DirGet {
		return nil, ole.E_NOTIMPL
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ole.FormatEtc, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, ole.ContentEtc(id, s.media[id].Tymed))
	}
	return out, nil
}

func (s *Snapshot) DAdvise(ole.FormatEtc, uint32, ole.AdviseSink) (uint32, error) {
	return 0, ole.OLE_E_ADVISENOTSUPPORTED
}

func (s *Snapshot) DUnadvise(uint32) error { return ole.OLE_E_ADVISENOTSUPPORTED }

func (s *Snapshot) EnumDAdvise() ([]ole.StatData, error) {
	return nil, ole.OLE_E_ADVISENOTSUPPORTED
}

// Len returns the number of formats held.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Release frees every held medium.
func (s *Snapshot) Release() error {
	s.mu.Lock()
	media := s.media
	s.media = make(map[format.ID]ole.Medium)
	s.order = nil
	s.mu.Unlock()

	var errs []error
	for _, m := range media {
		errs = append(errs, m.Release())
	}
	return errors.Join(errs...)
}
