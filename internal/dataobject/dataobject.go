package dataobject

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"go.klb.dev/dataxfer/internal/binder"
	"go.klb.dev/dataxfer/internal/codec"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/store"
)

var (
	ErrEmptyText     = errors.New("text must not be empty")
	ErrEmptyFileDrop = errors.New("file drop list must not be empty")
	ErrEmptyImage    = errors.New("image must not be empty")
)

// TextFormat selects the format a text payload is stored under.
type TextFormat int

const (
	TextUnicode TextFormat = iota
	TextANSI
	TextRtf
	TextHtml
	TextCsv
)

// Name returns the clipboard format name for f.
func (f TextFormat) Name() string {
	switch f {
	case TextANSI:
		return format.Text
	case TextRtf:
		return format.Rtf
	case TextHtml:
		return format.Html
	case TextCsv:
		return format.Csv
	default:
		return format.UnicodeText
	}
}

// Valid reports whether f is one of the defined text formats.
func (f TextFormat) Valid() bool { return f >= TextUnicode && f <= TextCsv }

// DataObject is the application-facing data object. Locally created objects
// are writable; objects wrapping foreign data are read-only.
type DataObject struct {
	comp *Composition
}

// New returns an empty, writable data object. Payloads that need the
// object codec are checked against cd's policy when they are set.
func New(cd *codec.Codec) *DataObject {
	var reg *binder.Registry
	if cd != nil {
		reg = cd.Registry()
	}
	return &DataObject{comp: FromStore(store.New(reg), cd)}
}

// NewWithValue returns a writable data object holding value under the
// format derived from its type.
func NewWithValue(value any, cd *codec.Codec) (*DataObject, error) {
	d := New(cd)
	if err := d.SetValue(value); err != nil {
		return nil, err
	}
	return d, nil
}

// Wrap returns a data object over an existing composition.
func Wrap(c *Composition) *DataObject { return &DataObject{comp: c} }

// Composition returns the composition behind d.
func (d *DataObject) Composition() *Composition { return d.comp }

// GetData returns the payload stored under name. With autoConvert a
// synonym may satisfy the request.
func (d *DataObject) GetData(name string, autoConvert bool) (any, bool) {
	return d.comp.managed.GetData(name, autoConvert)
}

// SetData stores value under name. Values that would need the object codec
// are checked against the codec's policy first; on failure nothing is
// stored.
func (d *DataObject) SetData(name string, autoConvert bool, value any) error {
	if strings.TrimSpace(name) == "" {
		return format.ErrInvalidName
	}
	if value == nil {
		return store.ErrNilValue
	}
	if !d.comp.IsLocal() {
		return ErrReadOnly
	}
	if err := canRender(d.comp.codec, name, value); err != nil {
		return fmt.Errorf("set data %q: %w", name, err)
	}
	return d.comp.managed.SetData(name, autoConvert, value)
}

// SetValue stores value under the format derived from its type.
func (d *DataObject) SetValue(value any) error {
	if value == nil {
		return store.ErrNilValue
	}
	if !d.comp.IsLocal() {
		return ErrReadOnly
	}
	name := d.comp.store.FormatFor(reflect.TypeOf(value))
	if err := canRender(d.comp.codec, name, value); err != nil {
		return fmt.Errorf("set value %T: %w", value, err)
	}
	return d.comp.store.SetValue(value)
}

// SetDataAsJSON stores value under name as JSON, decoded on demand by
// TryGetData.
func (d *DataObject) SetDataAsJSON(name string, value any) error {
	if !d.comp.IsLocal() {
		return ErrReadOnly
	}
	return d.comp.store.SetDataAsJSON(name, value)
}

// GetDataPresent reports whether name, or with autoConvert a synonym, is
// available.
func (d *DataObject) GetDataPresent(name string, autoConvert bool) bool {
	return d.comp.managed.GetDataPresent(name, autoConvert)
}

// GetFormats lists the available formats.
func (d *DataObject) GetFormats(autoConvert bool) []string {
	return d.comp.managed.GetFormats(autoConvert)
}

// TryGetData returns the payload under name as a T. A payload of another
// type is a miss. resolver, when set, decides which types a serialized
// payload may bind to.
func TryGetData[T any](d *DataObject, name string, autoConvert bool, resolver binder.Resolver) (T, bool, error) {
	var zero T
	if strings.TrimSpace(name) == "" {
		return zero, false, format.ErrInvalidName
	}
	req, err := binder.NewRequest(name, autoConvert, resolver, true)
	if err != nil {
		return zero, false, err
	}
	v, ok, err := d.comp.managed.TryGetData(req, reflect.TypeFor[T]())
	if err != nil || !ok {
		return zero, false, err
	}
	t, ok := v.(T)
	return t, ok, nil
}

// ContainsText reports whether text in format f is present.
func (d *DataObject) ContainsText(f TextFormat) bool {
	return f.Valid() && d.GetDataPresent(f.Name(), false)
}

// GetText returns the text stored in format f, or "" if there is none.
func (d *DataObject) GetText(f TextFormat) string {
	if !f.Valid() {
		return ""
	}
	v, ok := d.GetData(f.Name(), false)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// SetText stores text in format f.
func (d *DataObject) SetText(text string, f TextFormat) error {
	if text == "" {
		return ErrEmptyText
	}
	if !f.Valid() {
		return fmt.Errorf("set text: invalid text format %d", f)
	}
	return d.SetData(f.Name(), false, text)
}

// ContainsFileDropList reports whether a file list is present.
func (d *DataObject) ContainsFileDropList() bool {
	return d.GetDataPresent(format.FileDrop, true)
}

// GetFileDropList returns the stored file list, or nil.
func (d *DataObject) GetFileDropList() []string {
	v, ok := d.GetData(format.FileDrop, true)
	if !ok {
		return nil
	}
	files, _ := v.([]string)
	return slices.Clone(files)
}

// SetFileDropList stores a list of paths.
func (d *DataObject) SetFileDropList(files []string) error {
	if err := ValidateFileDrop(files); err != nil {
		return err
	}
	return d.SetData(format.FileDrop, true, slices.Clone(files))
}

// ValidateFileDrop checks that files is a non-empty list of non-empty paths
// without NUL characters.
func ValidateFileDrop(files []string) error {
	if len(files) == 0 {
		return ErrEmptyFileDrop
	}
	for _, f := range files {
		if f == "" || strings.IndexByte(f, 0) >= 0 {
			return fmt.Errorf("file drop: invalid path %q", f)
		}
	}
	return nil
}

// ContainsImage reports whether a bitmap is present.
func (d *DataObject) ContainsImage() bool {
	return d.GetDataPresent(format.Bitmap, true)
}

// GetImage returns the stored bitmap.
func (d *DataObject) GetImage() (exchange.Bitmap, bool) {
	v, ok := d.GetData(format.Bitmap, true)
	if !ok {
		return exchange.Bitmap{}, false
	}
	bm, ok := v.(exchange.Bitmap)
	return bm, ok
}

// SetImage stores a bitmap.
func (d *DataObject) SetImage(bm exchange.Bitmap) error {
	if bm.IsEmpty() {
		return ErrEmptyImage
	}
	return d.SetData(format.Bitmap, true, bm)
}

// ContainsAudio reports whether wave audio is present.
func (d *DataObject) ContainsAudio() bool {
	return d.GetDataPresent(format.WaveAudio, false)
}

// GetAudioStream returns the stored wave audio as a stream.
func (d *DataObject) GetAudioStream() (io.Reader, bool) {
	v, ok := d.GetData(format.WaveAudio, false)
	if !ok {
		return nil, false
	}
	switch a := v.(type) {
	case io.ReadSeeker:
		if _, err := a.Seek(0, io.SeekStart); err != nil {
			return nil, false
		}
		return a, true
	case io.Reader:
		return a, true
	case []byte:
		return bytes.NewReader(a), true
	}
	return nil, false
}

// SetAudio stores wave audio read from r.
func (d *DataObject) SetAudio(r io.Reader) error {
	if r == nil {
		return store.ErrNilValue
	}
	return d.SetData(format.WaveAudio, false, r)
}

// SetAudioBytes stores wave audio held in memory.
func (d *DataObject) SetAudioBytes(b []byte) error {
	if b == nil {
		return store.ErrNilValue
	}
	return d.SetAudio(bytes.NewReader(bytes.Clone(b)))
}
