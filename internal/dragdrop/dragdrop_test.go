package dragdrop_test

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.klb.dev/dataxfer/internal/dataobject"
	"go.klb.dev/dataxfer/internal/dragdrop"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/ole"
)

func newData(t *testing.T) (*dataobject.DataObject, ole.DataObject) {
	t.Helper()
	d := dataobject.New(nil)
	if err := d.SetText("payload", dataobject.TextUnicode); err != nil {
		t.Fatal(err)
	}
	return d, d.Composition().Native()
}

func TestBoolFlags(t *testing.T) {
	_, native := newData(t)
	if dragdrop.IsInDragLoop(native) || dragdrop.IsShowingText(native) {
		t.Fatal("flags set on a fresh object")
	}
	if err := dragdrop.SetIsShowingText(native, true); err != nil {
		t.Fatal(err)
	}
	if err := dragdrop.SetUsingDefaultDragImage(native, true); err != nil {
		t.Fatal(err)
	}
	if !dragdrop.IsShowingText(native) || !dragdrop.UsingDefaultDragImage(native) {
		t.Error("flags not readable after set")
	}
	if err := dragdrop.SetIsShowingText(native, false); err != nil {
		t.Fatal(err)
	}
	if dragdrop.IsShowingText(native) {
		t.Error("IsShowingText still true after clearing")
	}
}

func TestBoolLayout(t *testing.T) {
	_, native := newData(t)
	if err := dragdrop.SetInDragLoop(native, true); err != nil {
		t.Fatal(err)
	}
	m, err := native.GetData(ole.ContentEtc(format.MustID(format.InShellDragLoop), ole.TymedHGlobal))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = m.Release() }()
	b, err := m.Global.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{1, 0, 0, 0}) {
		t.Errorf("InShellDragLoop = % x", b)
	}
	if v, err := dragdrop.BoolFromMedium(m); err != nil || !v {
		t.Errorf("BoolFromMedium = %v, %v", v, err)
	}
}

func TestLoopReleasesFormats(t *testing.T) {
	d, native := newData(t)
	loop, err := dragdrop.BeginLoop(native)
	if err != nil {
		t.Fatal(err)
	}
	if !dragdrop.IsInDragLoop(native) {
		t.Fatal("IsInDragLoop = false inside the loop")
	}
	// Inside a loop the shell may park arbitrary formats on the source.
	custom := ole.ContentEtc(format.MustID("dragdrop.test.shell"), ole.TymedHGlobal)
	if err := native.SetData(custom, ole.Medium{Tymed: ole.TymedHGlobal, Global: ole.GlobalFrom([]byte("s"))}, true); err != nil {
		t.Fatalf("SetData in loop = %v", err)
	}
	if err := loop.End(); err != nil {
		t.Fatal(err)
	}
	if dragdrop.IsInDragLoop(native) {
		t.Error("IsInDragLoop = true after End")
	}
	if hr := native.QueryGetData(custom); hr != ole.DV_E_FORMATETC {
		t.Errorf("parked format after End = %v", hr)
	}
	if got := d.GetText(dataobject.TextUnicode); got != "payload" {
		t.Errorf("payload after End = %q", got)
	}
	if err := native.SetData(custom, ole.Medium{Tymed: ole.TymedHGlobal, Global: ole.GlobalFrom(nil)}, true); !errors.Is(err, ole.E_NOTIMPL) {
		t.Errorf("SetData after End = %v, want E_NOTIMPL", err)
	}
}

type proxy struct{ ole.DataObject }

func (p proxy) Unwrap() ole.DataObject { return p.DataObject }

func TestReleaseThroughProxy(t *testing.T) {
	_, native := newData(t)
	p := proxy{native}
	if err := dragdrop.SetInDragLoop(p, true); err != nil {
		t.Fatal(err)
	}
	if err := dragdrop.ReleaseDragDropFormats(p); err != nil {
		t.Fatal(err)
	}
	if dragdrop.IsInDragLoop(native) {
		t.Error("formats survived release through a proxy")
	}
}

func TestDropDescription(t *testing.T) {
	_, native := newData(t)
	got, err := dragdrop.GetDropDescription(native)
	if err != nil || got.Type != dragdrop.DropImageInvalid {
		t.Fatalf("absent description = %+v, %v", got, err)
	}

	want := dragdrop.DropDescription{Type: dragdrop.DropImageCopy, Message: "Copy to %1", Insert: "Documents"}
	if err := dragdrop.SetDropDescription(native, want); err != nil {
		t.Fatal(err)
	}
	got, err = dragdrop.GetDropDescription(native)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if !dragdrop.IsShowingText(native) {
		t.Error("IsShowingText not set with a message")
	}

	if err := dragdrop.ClearDropDescription(native); err != nil {
		t.Fatal(err)
	}
	if dragdrop.IsShowingText(native) {
		t.Error("IsShowingText still set after clear")
	}
}

func TestDropDescriptionLimits(t *testing.T) {
	b, err := dragdrop.DropDescription{Type: dragdrop.DropImageMove, Message: "m"}.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 4+260*2*2 {
		t.Errorf("record size = %d", len(b))
	}
	if b[0] != 2 || b[4] != 'm' || b[5] != 0 {
		t.Errorf("record head = % x", b[:8])
	}

	ok := strings.Repeat("x", 259)
	if _, err := (dragdrop.DropDescription{Message: ok}).MarshalBinary(); err != nil {
		t.Errorf("259 characters rejected: %v", err)
	}
	long := strings.Repeat("x", 260)
	if _, err := (dragdrop.DropDescription{Insert: long}).MarshalBinary(); !errors.Is(err, dragdrop.ErrTooLong) {
		t.Errorf("260 characters = %v, want ErrTooLong", err)
	}
	var d dragdrop.DropDescription
	if err := d.UnmarshalBinary(b[:100]); err == nil {
		t.Error("short record accepted")
	}
}

func TestDragImage(t *testing.T) {
	_, native := newData(t)
	if _, ok, err := dragdrop.GetDragImage(native); ok || err != nil {
		t.Fatalf("absent image = %v, %v", ok, err)
	}
	bm, err := exchange.NewBitmap(image.NewRGBA(image.Rect(0, 0, 16, 8)))
	if err != nil {
		t.Fatal(err)
	}
	want := dragdrop.DragImage{
		Bitmap:   bm,
		Offset:   exchange.Point{X: 4, Y: 2},
		ColorKey: exchange.Color{A: 255, R: 1, G: 2, B: 3},
	}
	if err := dragdrop.SetDragImage(native, want, true); err != nil {
		t.Fatal(err)
	}
	got, ok, err := dragdrop.GetDragImage(native)
	if err != nil || !ok {
		t.Fatalf("GetDragImage = %v, %v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if !dragdrop.UsingDefaultDragImage(native) {
		t.Error("UsingDefaultDragImage not set")
	}
	if err := dragdrop.SetDragImage(native, dragdrop.DragImage{}, false); err == nil {
		t.Error("empty image accepted")
	}
}

func TestFormatLifecycle(t *testing.T) {
	id := format.MustID("dragdrop.test.format")
	src := ole.Medium{Tymed: ole.TymedHGlobal, Global: ole.GlobalFrom([]byte("one"))}
	f, err := dragdrop.NewFormat(id, src, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.RefreshData(id, ole.Medium{Tymed: ole.TymedHGlobal, Global: ole.GlobalFrom([]byte("two"))}, false); err != nil {
		t.Fatal(err)
	}
	m, err := f.GetData()
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := m.Global.Bytes(); string(b) != "two" {
		t.Errorf("GetData after refresh = %q", b)
	}
	if b, err := src.Global.Bytes(); err != nil || string(b) != "one" {
		t.Errorf("copied source = %q, %v", b, err)
	}
	if err := f.Dispose(); err != nil {
		t.Fatal(err)
	}
	if err := f.Dispose(); err != nil {
		t.Errorf("second Dispose = %v", err)
	}
	if _, err := f.GetData(); !errors.Is(err, dragdrop.ErrDisposed) {
		t.Errorf("GetData after Dispose = %v", err)
	}
	if f.ID() != id {
		t.Errorf("ID = %v", f.ID())
	}
}
