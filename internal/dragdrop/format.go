package dragdrop

import (
	"errors"
	"sync"

	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/ole"
)

// ErrDisposed is returned by a Format that has been released.
var ErrDisposed = errors.New("drag-drop format disposed")

// Format holds the medium of one drag-loop-private format for the duration
// of a drag operation.
type Format struct {
	mu       sync.Mutex
	id       format.ID
	medium   ole.Medium
	disposed bool
}

// NewFormat takes m for the format id. With copyData the format keeps a
// private copy and the caller still owns m; otherwise the format takes
// ownership of m.
func NewFormat(id format.ID, m ole.Medium, copyData bool) (*Format, error) {
	f := &Format{}
	if err := f.RefreshData(id, m, copyData); err != nil {
		return nil, err
	}
	return f, nil
}

// ID returns the format id.
func (f *Format) ID() format.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

// GetData returns a copy of the held medium. The caller owns the copy.
func (f *Format) GetData() (ole.Medium, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return ole.Medium{}, ErrDisposed
	}
	return f.medium.Clone()
}

// RefreshData replaces the held medium, releasing the previous one.
func (f *Format) RefreshData(id format.ID, m ole.Medium, copyData bool) error {
	if copyData {
		c, err := m.Clone()
		if err != nil {
			return err
		}
		m = c
	}
	f.mu.Lock()
	prev := f.medium
	f.id, f.medium, f.disposed = id, m, false
	f.mu.Unlock()
	return prev.Release()
}

// Dispose releases the held medium. Later calls are no-ops.
func (f *Format) Dispose() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return nil
	}
	f.disposed = true
	return f.medium.Release()
}
