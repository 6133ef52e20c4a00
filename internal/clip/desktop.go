package clip

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/dataxfer/internal/dataobject"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/ole"
)

const pollInterval = 250 * time.Millisecond

// Desktop is the raw desktop clipboard: UTF-8 text and PNG images. Reads
// return nil when the format is absent.
type Desktop interface {
	ReadText() []byte
	ReadImage() []byte
	WriteText(b []byte)
	WriteImage(png []byte)
}

// desktopBoard adapts a Desktop to Platform. Text and images go to the
// desktop; every other format stays in process and is served from the
// writer's own object for as long as the desktop still shows what was
// written.
type desktopBoard struct {
	desk    Desktop
	watchCh chan struct{}
	done    chan struct{}

	mu       sync.Mutex
	owned    ole.DataObject
	lastText []byte
	lastImg  []byte
}

// NewDesktopBoard returns a platform over d that polls it for changes made
// by other programs. Close stops the polling.
func NewDesktopBoard(d Desktop) Platform {
	b := &desktopBoard{
		desk:     d,
		watchCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		lastText: d.ReadText(),
		lastImg:  d.ReadImage(),
	}
	go b.poll()
	return b
}

func (b *desktopBoard) Name() string { return "system clipboard (poll)" }

func (b *desktopBoard) poll() {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text := b.desk.ReadText()
			img := b.desk.ReadImage()
			b.mu.Lock()
			changed := !bytes.Equal(text, b.lastText) || !bytes.Equal(img, b.lastImg)
			if changed {
				b.lastText, b.lastImg = text, img
				b.owned = nil
			}
			b.mu.Unlock()
			if changed {
				select {
				case b.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

// SetClipboard renders the text and image formats of d onto the desktop.
// Data with neither empties the desktop and stays readable in process
// until another program takes the clipboard. The desktop keeps rendered
// bytes, so there is nothing left to flush afterwards.
func (b *desktopBoard) SetClipboard(d ole.DataObject) error {
	var (
		text, img       []byte
		hasText, hasImg bool
	)
	if d != nil {
		text, hasText = readText(d)
		img, hasImg = readImage(d)
	}
	if hasText {
		b.desk.WriteText(text)
	}
	if hasImg {
		b.desk.WriteImage(img)
	}
	if !hasText && !hasImg {
		if d != nil {
			slog.Debug("system clipboard: no text or image, contents stay in process")
		}
		b.clear()
	}
	b.remember(d)
	return nil
}

// clear empties the desktop clipboard, images included.
func (b *desktopBoard) clear() {
	b.desk.WriteText([]byte{})
	if len(b.desk.ReadImage()) > 0 {
		b.desk.WriteImage([]byte{})
	}
}

// remember records d as the process's own object against what the desktop
// now shows.
func (b *desktopBoard) remember(d ole.DataObject) {
	text := b.desk.ReadText()
	img := b.desk.ReadImage()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.owned, b.lastText, b.lastImg = d, text, img
}

// GetClipboard returns the process's own object while the desktop still
// shows what it wrote, and a snapshot of the desktop contents otherwise.
func (b *desktopBoard) GetClipboard() (ole.DataObject, error) {
	text := b.desk.ReadText()
	img := b.desk.ReadImage()

	b.mu.Lock()
	owned := b.owned
	if owned != nil && (!bytes.Equal(text, b.lastText) || !bytes.Equal(img, b.lastImg)) {
		owned, b.owned = nil, nil
	}
	b.mu.Unlock()
	if owned != nil {
		return handle{owned}, nil
	}

	s := NewSnapshot()
	if len(text) > 0 {
		w, err := dataobject.EncodeUTF16(string(text))
		if err != nil {
			return nil, err
		}
		s.Put(format.CFUnicodeText, ole.Medium{Tymed: ole.TymedHGlobal, Global: ole.GlobalFrom(w)})
	}
	if len(img) > 0 {
		s.Put(format.CFBitmap, ole.Medium{Tymed: ole.TymedGDI, Bitmap: exchange.Bitmap{PNG: img}})
	}
	return s, nil
}

func (b *desktopBoard) FlushClipboard() error { return nil }

func (b *desktopBoard) Watch() <-chan struct{} { return b.watchCh }
func (b *desktopBoard) Close()                 { close(b.done) }

func readText(d ole.DataObject) ([]byte, bool) {
	m, err := d.GetData(ole.ContentEtc(format.CFUnicodeText, ole.TymedHGlobal))
	if err != nil {
		return nil, false
	}
	defer func() { _ = m.Release() }()
	if m.Global == nil {
		return nil, false
	}
	raw, err := m.Global.Bytes()
	if err != nil {
		return nil, false
	}
	s, err := dataobject.DecodeUTF16(raw)
	if err != nil {
		slog.Debug("system clipboard: unreadable text", "err", err)
		return nil, false
	}
	return []byte(s), true
}

func readImage(d ole.DataObject) ([]byte, bool) {
	m, err := d.GetData(ole.ContentEtc(format.CFBitmap, ole.TymedGDI))
	if err != nil || m.Bitmap.IsEmpty() {
		return nil, false
	}
	defer func() { _ = m.Release() }()
	return m.Bitmap.PNG, true
}
