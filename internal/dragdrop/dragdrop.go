// Package dragdrop reads and writes the shell drag helper formats on a data
// object: boolean flags, the drop description shown under the cursor, and
// the drag image.
//
// These formats live only while a drag gesture is in progress. A Loop
// brackets one gesture and releases every private format when it ends.
package dragdrop

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/ole"
)

// boolSize is sizeof(BOOL).
const boolSize = 4

// SetBool stores v under the named flag format as a 4-byte BOOL.
func SetBool(d ole.DataObject, name string, v bool) error {
	b := make([]byte, boolSize)
	if v {
		binary.LittleEndian.PutUint32(b, 1)
	}
	return setBytes(d, name, b)
}

// GetBool reads the named flag format. An absent flag is false.
func GetBool(d ole.DataObject, name string) (bool, error) {
	b, err := getBytes(d, name)
	if errors.Is(err, errNoData) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return decodeBool(b)
}

// BoolFromMedium decodes a BOOL flag medium.
func BoolFromMedium(m ole.Medium) (bool, error) {
	if m.Tymed != ole.TymedHGlobal || m.Global == nil {
		return false, ole.DV_E_TYMED
	}
	b, err := m.Global.Bytes()
	if err != nil {
		return false, err
	}
	return decodeBool(b)
}

func decodeBool(b []byte) (bool, error) {
	if len(b) < boolSize {
		return false, fmt.Errorf("bool flag: %d bytes", len(b))
	}
	return binary.LittleEndian.Uint32(b) != 0, nil
}

// IsInDragLoop reports whether d is the subject of a shell drag loop.
func IsInDragLoop(d ole.DataObject) bool {
	v, err := GetBool(d, format.InShellDragLoop)
	if err != nil {
		slog.Debug("in-drag-loop probe failed", "err", err)
	}
	return v
}

// SetInDragLoop marks d as being in, or out of, a shell drag loop.
func SetInDragLoop(d ole.DataObject, v bool) error {
	return SetBool(d, format.InShellDragLoop, v)
}

// IsShowingText reports whether the drop description text is shown.
func IsShowingText(d ole.DataObject) bool {
	v, _ := GetBool(d, format.IsShowingText)
	return v
}

// SetIsShowingText sets the IsShowingText flag.
func SetIsShowingText(d ole.DataObject, v bool) error {
	return SetBool(d, format.IsShowingText, v)
}

// UsingDefaultDragImage reports whether the shell draws its default image.
func UsingDefaultDragImage(d ole.DataObject) bool {
	v, _ := GetBool(d, format.UsingDefaultDragImage)
	return v
}

// SetUsingDefaultDragImage sets the UsingDefaultDragImage flag.
func SetUsingDefaultDragImage(d ole.DataObject, v bool) error {
	return SetBool(d, format.UsingDefaultDragImage, v)
}

// Releaser is implemented by data objects that cache drag-loop formats.
type Releaser interface {
	ReleaseDragFormats() error
}

// ReleaseDragDropFormats releases every drag-loop format cached by d or by
// the object d stands in for. Objects without a cache are left alone.
func ReleaseDragDropFormats(d ole.DataObject) error {
	if r, ok := d.(Releaser); ok {
		return r.ReleaseDragFormats()
	}
	if r, ok := ole.Unwrap(d).(Releaser); ok {
		return r.ReleaseDragFormats()
	}
	return nil
}

// Loop brackets one drag gesture over a data object.
type Loop struct {
	ID   uuid.UUID
	data ole.DataObject
}

// BeginLoop marks d as being in a drag loop. End must be called when the
// gesture finishes, whatever its outcome.
func BeginLoop(d ole.DataObject) (*Loop, error) {
	l := &Loop{ID: uuid.New(), data: d}
	if err := SetInDragLoop(d, true); err != nil {
		return nil, err
	}
	slog.Debug("drag loop started", "loop", l.ID)
	return l, nil
}

// End releases every drag-loop format cached during the gesture.
func (l *Loop) End() error {
	err := ReleaseDragDropFormats(l.data)
	slog.Debug("drag loop ended", "loop", l.ID, "err", err)
	return err
}

var errNoData = errors.New("format not present")

// getBytes reads a whole HGLOBAL rendering of name.
func getBytes(d ole.DataObject, name string) ([]byte, error) {
	id, err := format.GetID(name)
	if err != nil {
		return nil, err
	}
	fe := ole.ContentEtc(id, ole.TymedHGlobal)
	if d.QueryGetData(fe) != ole.S_OK {
		return nil, fmt.Errorf("%s: %w", name, errNoData)
	}
	m, err := d.GetData(fe)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	defer func() { _ = m.Release() }()
	if m.Global == nil {
		return nil, fmt.Errorf("get %s: %w", name, ole.DV_E_TYMED)
	}
	return m.Global.Bytes()
}

// setBytes hands b to d as the HGLOBAL rendering of name.
func setBytes(d ole.DataObject, name string, b []byte) error {
	id, err := format.GetID(name)
	if err != nil {
		return err
	}
	m := ole.Medium{Tymed: ole.TymedHGlobal, Global: ole.GlobalFrom(b)}
	if err := d.SetData(ole.ContentEtc(id, ole.TymedHGlobal), m, true); err != nil {
		_ = m.Release()
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}
