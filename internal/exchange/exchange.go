// Package exchange defines the small value types that every clipboard
// consumer understands without a custom resolver: geometry, colors, and
// bitmaps. The object codec serializes them on its whitelist-only path.
package exchange

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Point is an integer coordinate pair.
type Point struct {
	X int32 `cbor:"x"`
	Y int32 `cbor:"y"`
}

// PointF is a floating point coordinate pair.
type PointF struct {
	X float32 `cbor:"x"`
	Y float32 `cbor:"y"`
}

// Size is an integer extent.
type Size struct {
	Width  int32 `cbor:"w"`
	Height int32 `cbor:"h"`
}

// SizeF is a floating point extent.
type SizeF struct {
	Width  float32 `cbor:"w"`
	Height float32 `cbor:"h"`
}

// Rectangle is an integer rectangle anchored at its top-left corner.
type Rectangle struct {
	X      int32 `cbor:"x"`
	Y      int32 `cbor:"y"`
	Width  int32 `cbor:"w"`
	Height int32 `cbor:"h"`
}

// RectangleF is a floating point rectangle.
type RectangleF struct {
	X      float32 `cbor:"x"`
	Y      float32 `cbor:"y"`
	Width  float32 `cbor:"w"`
	Height float32 `cbor:"h"`
}

// Color is an ARGB color.
type Color struct {
	A uint8 `cbor:"a"`
	R uint8 `cbor:"r"`
	G uint8 `cbor:"g"`
	B uint8 `cbor:"b"`
}

// JSON is a payload serialized as JSON, tagged with the assembly-qualified
// name of the type it was produced from. Readers decode it on demand into a
// type whose name matches.
type JSON struct {
	Type string `cbor:"type"`
	Data []byte `cbor:"data"`
}

// Bitmap is an image carried as PNG bytes, the representation the system
// clipboard uses for images.
type Bitmap struct {
	PNG []byte `cbor:"png"`
}

// NewBitmap encodes img as a PNG bitmap.
func NewBitmap(img image.Image) (Bitmap, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Bitmap{}, fmt.Errorf("bitmap encode: %w", err)
	}
	return Bitmap{PNG: buf.Bytes()}, nil
}

// Image decodes the bitmap.
func (b Bitmap) Image() (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(b.PNG))
	if err != nil {
		return nil, fmt.Errorf("bitmap decode: %w", err)
	}
	return img, nil
}

// Bounds returns the pixel size of the bitmap without decoding pixel data.
func (b Bitmap) Bounds() (Size, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(b.PNG))
	if err != nil {
		return Size{}, fmt.Errorf("bitmap header: %w", err)
	}
	return Size{Width: int32(cfg.Width), Height: int32(cfg.Height)}, nil
}

// IsEmpty reports whether the bitmap carries no image data.
func (b Bitmap) IsEmpty() bool { return len(b.PNG) == 0 }
