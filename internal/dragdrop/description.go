package dragdrop

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/ole"
)

// DropImageType is the cursor image of a drop description.
type DropImageType int32

const (
	DropImageInvalid DropImageType = -1
	DropImageNone    DropImageType = 0
	DropImageCopy    DropImageType = 1
	DropImageMove    DropImageType = 2
	DropImageLink    DropImageType = 4
	DropImageLabel   DropImageType = 6
	DropImageWarning DropImageType = 7
	DropImageNoImage DropImageType = 8
)

// maxPath is the WCHAR capacity of each drop description string field,
// terminator included.
const maxPath = 260

const descriptionSize = 4 + 2*maxPath*2

var (
	// ErrTooLong is returned for a drop description string of maxPath or
	// more UTF-16 units.
	ErrTooLong = errors.New("drop description text too long")

	wide = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// DropDescription is the text and icon shown under the cursor during a
// drag. Message may contain %1, which the shell replaces with Insert.
type DropDescription struct {
	Type    DropImageType
	Message string
	Insert  string
}

// MarshalBinary lays d out as a DROPDESCRIPTION record.
func (d DropDescription) MarshalBinary() ([]byte, error) {
	b := make([]byte, descriptionSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(d.Type))
	for i, s := range []string{d.Message, d.Insert} {
		w, err := wide.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("drop description: %w", err)
		}
		if len(w)/2 >= maxPath {
			return nil, fmt.Errorf("%w: %d characters", ErrTooLong, len(w)/2)
		}
		off := 4 + i*maxPath*2
		copy(b[off:off+maxPath*2], w)
	}
	return b, nil
}

// UnmarshalBinary reads a DROPDESCRIPTION record.
func (d *DropDescription) UnmarshalBinary(b []byte) error {
	if len(b) < descriptionSize {
		return fmt.Errorf("drop description: %d bytes, want %d", len(b), descriptionSize)
	}
	d.Type = DropImageType(int32(binary.LittleEndian.Uint32(b[0:4])))
	fields := make([]string, 2)
	for i := range fields {
		off := 4 + i*maxPath*2
		s, err := decodeWide(b[off : off+maxPath*2])
		if err != nil {
			return fmt.Errorf("drop description: %w", err)
		}
		fields[i] = s
	}
	d.Message, d.Insert = fields[0], fields[1]
	return nil
}

func decodeWide(b []byte) (string, error) {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	out, err := wide.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// SetDropDescription stores desc on d and sets IsShowingText when desc
// carries a message.
func SetDropDescription(d ole.DataObject, desc DropDescription) error {
	b, err := desc.MarshalBinary()
	if err != nil {
		return err
	}
	if err := setBytes(d, format.DropDescription, b); err != nil {
		return err
	}
	return SetIsShowingText(d, desc.Type != DropImageInvalid && desc.Message != "")
}

// GetDropDescription reads the drop description from d. An absent record
// reads as DropImageInvalid with no text.
func GetDropDescription(d ole.DataObject) (DropDescription, error) {
	b, err := getBytes(d, format.DropDescription)
	if errors.Is(err, errNoData) {
		return DropDescription{Type: DropImageInvalid}, nil
	}
	if err != nil {
		return DropDescription{}, err
	}
	var desc DropDescription
	if err := desc.UnmarshalBinary(b); err != nil {
		return DropDescription{}, err
	}
	return desc, nil
}

// ClearDropDescription resets the drop description so the shell shows its
// default cursor.
func ClearDropDescription(d ole.DataObject) error {
	return SetDropDescription(d, DropDescription{Type: DropImageInvalid})
}

// DragImage is the image dragged under the cursor.
type DragImage struct {
	Bitmap exchange.Bitmap
	// Offset is the cursor position within the image.
	Offset   exchange.Point
	ColorKey exchange.Color
}

// dragImageHeader mirrors SHDRAGIMAGE with the bitmap handle replaced by
// the length of the PNG that follows.
type dragImageHeader struct {
	Width, Height int32
	X, Y          int32
	ColorKey      uint32
	Length        uint32
}

// MarshalBinary lays img out as a drag image record.
func (img DragImage) MarshalBinary() ([]byte, error) {
	if img.Bitmap.IsEmpty() {
		return nil, fmt.Errorf("drag image: %w", errNoData)
	}
	size, err := img.Bitmap.Bounds()
	if err != nil {
		return nil, err
	}
	c := img.ColorKey
	hdr := dragImageHeader{
		Width:    size.Width,
		Height:   size.Height,
		X:        img.Offset.X,
		Y:        img.Offset.Y,
		ColorKey: uint32(c.A)<<24 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R),
		Length:   uint32(len(img.Bitmap.PNG)),
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("drag image: %w", err)
	}
	buf.Write(img.Bitmap.PNG)
	return buf.Bytes(), nil
}

// UnmarshalBinary reads a drag image record.
func (img *DragImage) UnmarshalBinary(b []byte) error {
	var hdr dragImageHeader
	r := bytes.NewReader(b)
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("drag image header: %w", err)
	}
	if int(hdr.Length) != r.Len() {
		return fmt.Errorf("drag image: %d bytes of image, header says %d", r.Len(), hdr.Length)
	}
	img.Bitmap = exchange.Bitmap{PNG: bytes.Clone(b[len(b)-r.Len():])}
	img.Offset = exchange.Point{X: hdr.X, Y: hdr.Y}
	img.ColorKey = exchange.Color{
		A: uint8(hdr.ColorKey >> 24),
		B: uint8(hdr.ColorKey >> 16),
		G: uint8(hdr.ColorKey >> 8),
		R: uint8(hdr.ColorKey),
	}
	return nil
}

// SetDragImage stores img on d. With useDefault the shell draws its own
// image instead when it can.
func SetDragImage(d ole.DataObject, img DragImage, useDefault bool) error {
	b, err := img.MarshalBinary()
	if err != nil {
		return err
	}
	if err := setBytes(d, format.DragImageBits, b); err != nil {
		return err
	}
	return SetUsingDefaultDragImage(d, useDefault)
}

// GetDragImage reads the drag image from d.
func GetDragImage(d ole.DataObject) (DragImage, bool, error) {
	b, err := getBytes(d, format.DragImageBits)
	if errors.Is(err, errNoData) {
		return DragImage{}, false, nil
	}
	if err != nil {
		return DragImage{}, false, err
	}
	var img DragImage
	if err := img.UnmarshalBinary(b); err != nil {
		return DragImage{}, false, err
	}
	return img, true, nil
}
