package clip

import (
	"log/slog"
	"sync"

	"go.klb.dev/dataxfer/internal/ole"
)

// Board is an in-memory clipboard shared by everything holding a pointer to
// it. The last successful writer wins. While some party holds the board open
// with Hold, every other operation fails with ole.ErrCantOpen, the way the
// desktop clipboard behaves while another process has it open.
type Board struct {
	name string

	mu      sync.Mutex
	data    ole.DataObject
	flushed bool
	holder  string
	seq     uint64

	watchMu  sync.Mutex
	watchers []chan struct{}
}

// NewBoard returns an empty board.
func NewBoard() *Board { return &Board{name: "in-memory"} }

func (b *Board) Name() string { return b.name }

// Hold opens the board on behalf of who, locking everyone else out until
// Release.
func (b *Board) Hold(who string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.holder != "" && b.holder != who {
		return ole.ErrCantOpen
	}
	b.holder = who
	slog.Debug("clipboard held", "holder", who)
	return nil
}

// Release closes a board opened by Hold.
func (b *Board) Release(who string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.holder == who {
		b.holder = ""
		slog.Debug("clipboard released", "holder", who)
	}
}

// Seq returns a counter incremented on every change of contents.
func (b *Board) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

func (b *Board) SetClipboard(d ole.DataObject) error {
	b.mu.Lock()
	if b.holder != "" {
		b.mu.Unlock()
		return ole.ErrCantOpen
	}
	prev, wasFlushed := b.data, b.flushed
	b.data, b.flushed = d, false
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	if s, ok := prev.(*Snapshot); ok && wasFlushed {
		_ = s.Release()
	}
	slog.Debug("clipboard set", "empty", d == nil, "seq", seq)
	b.notify()
	return nil
}

func (b *Board) GetClipboard() (ole.DataObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.holder != "" {
		return nil, ole.ErrCantOpen
	}
	switch {
	case b.data == nil:
		return NewSnapshot(), nil
	case b.flushed:
		return b.data, nil
	default:
		return handle{b.data}, nil
	}
}

// FlushClipboard renders the current object outside the lock, so the object
// may itself use the board while rendering. A write that lands in between
// wins and the capture is dropped.
func (b *Board) FlushClipboard() error {
	b.mu.Lock()
	if b.holder != "" {
		b.mu.Unlock()
		return ole.ErrCantOpen
	}
	data, seq := b.data, b.seq
	if data == nil || b.flushed {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	snap, err := Capture(data)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if b.seq != seq {
		b.mu.Unlock()
		_ = snap.Release()
		slog.Debug("clipboard changed during flush", "seq", seq)
		return nil
	}
	b.data, b.flushed = snap, true
	b.seq++
	b.mu.Unlock()

	slog.Debug("clipboard flushed", "formats", snap.Len())
	b.notify()
	return nil
}

// Watch returns a channel signalled on every change. Signals coalesce when
// the receiver falls behind.
func (b *Board) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	b.watchMu.Lock()
	b.watchers = append(b.watchers, ch)
	b.watchMu.Unlock()
	return ch
}

func (b *Board) notify() {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close empties the board and frees any flushed contents.
func (b *Board) Close() {
	b.mu.Lock()
	prev, wasFlushed := b.data, b.flushed
	b.data, b.flushed = nil, false
	b.mu.Unlock()
	if s, ok := prev.(*Snapshot); ok && wasFlushed {
		_ = s.Release()
	}
}

// handle is what GetClipboard returns while the writer's own object is on
// the board: a stand-in that lets the writer recover its object.
type handle struct{ ole.DataObject }

func (h handle) Unwrap() ole.DataObject { return h.DataObject }
