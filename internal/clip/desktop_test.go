package clip

import (
	"bytes"
	"sync"
	"testing"

	"go.klb.dev/dataxfer/internal/dataobject"
	"go.klb.dev/dataxfer/internal/format"
)

// fakeDesktop keeps text and image in separate slots, like a desktop
// clipboard that does not drop one format when the other is written.
type fakeDesktop struct {
	mu   sync.Mutex
	text []byte
	img  []byte
}

func (f *fakeDesktop) ReadText() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.text)
}

func (f *fakeDesktop) ReadImage() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.img)
}

func (f *fakeDesktop) WriteText(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = bytes.Clone(b)
}

func (f *fakeDesktop) WriteImage(png []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.img = bytes.Clone(png)
}

func newDesktopBoard(t *testing.T, desk *fakeDesktop) Platform {
	t.Helper()
	p := NewDesktopBoard(desk)
	t.Cleanup(p.Close)
	return p
}

func TestDesktopKeepsInProcessFormats(t *testing.T) {
	desk := &fakeDesktop{text: []byte("stale")}
	p := newDesktopBoard(t, desk)

	d := dataobject.New(nil)
	if err := d.SetAudioBytes([]byte("RIFF....WAVE")); err != nil {
		t.Fatal(err)
	}
	if err := p.SetClipboard(d.Composition().Native()); err != nil {
		t.Fatalf("SetClipboard without text or image = %v", err)
	}
	if len(desk.ReadText()) != 0 {
		t.Errorf("desktop still shows %q", desk.ReadText())
	}

	got, err := p.GetClipboard()
	if err != nil {
		t.Fatal(err)
	}
	c, ok := dataobject.LocalComposition(got)
	if !ok || c != d.Composition() {
		t.Fatal("own object not served in process")
	}
	if !dataobject.Wrap(c).ContainsAudio() {
		t.Error("audio lost")
	}

	// Another program takes the clipboard.
	desk.WriteText([]byte("theirs"))
	got, err = p.GetClipboard()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dataobject.LocalComposition(got); ok {
		t.Error("own object served after the desktop changed")
	}
	r := dataobject.Wrap(dataobject.FromNative(got, nil))
	if v, ok := r.GetData(format.UnicodeText, true); !ok || v != "theirs" {
		t.Errorf("desktop text = %v, %v", v, ok)
	}
}

func TestDesktopReceivesANSIText(t *testing.T) {
	desk := &fakeDesktop{}
	p := newDesktopBoard(t, desk)

	d := dataobject.New(nil)
	if err := d.SetText("hello", dataobject.TextANSI); err != nil {
		t.Fatal(err)
	}
	if err := p.SetClipboard(d.Composition().Native()); err != nil {
		t.Fatal(err)
	}
	if got := string(desk.ReadText()); got != "hello" {
		t.Errorf("desktop text = %q, want hello", got)
	}
}

func TestDesktopClearRemovesImage(t *testing.T) {
	desk := &fakeDesktop{text: []byte("t"), img: []byte("\x89PNG")}
	p := newDesktopBoard(t, desk)

	if err := p.SetClipboard(nil); err != nil {
		t.Fatal(err)
	}
	if len(desk.ReadText()) != 0 || len(desk.ReadImage()) != 0 {
		t.Errorf("after clear: text %q, image %d bytes", desk.ReadText(), len(desk.ReadImage()))
	}
	got, err := p.GetClipboard()
	if err != nil {
		t.Fatal(err)
	}
	if formats := dataobject.Wrap(dataobject.FromNative(got, nil)).GetFormats(true); len(formats) != 0 {
		t.Errorf("formats after clear = %v", formats)
	}
}
