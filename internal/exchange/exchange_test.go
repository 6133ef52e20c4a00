package exchange

import (
	"image"
	"image/color"
	"testing"
)

func TestBitmapRoundtrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})

	bm, err := NewBitmap(src)
	if err != nil {
		t.Fatalf("NewBitmap: %v", err)
	}
	if bm.IsEmpty() {
		t.Fatal("bitmap is empty")
	}

	size, err := bm.Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if size != (Size{Width: 3, Height: 2}) {
		t.Errorf("Bounds = %+v", size)
	}

	img, err := bm.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	r, _, _, a := img.At(1, 1).RGBA()
	if r != 0xffff || a != 0xffff {
		t.Errorf("pixel (1,1) = r%d a%d, want opaque red", r, a)
	}
}

func TestBitmapDecodeGarbage(t *testing.T) {
	bm := Bitmap{PNG: []byte("not a png")}
	if _, err := bm.Image(); err == nil {
		t.Error("Image() on garbage succeeded")
	}
	if _, err := bm.Bounds(); err == nil {
		t.Error("Bounds() on garbage succeeded")
	}
}
