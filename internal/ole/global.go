package ole

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrFreed is returned by any operation on a freed block.
	ErrFreed = errors.New("global: block already freed")
	// ErrLocked is returned when resizing or freeing a block that is in use.
	ErrLocked = errors.New("global: block is locked")
)

// Global is a movable shared-memory block. Its bytes are only reachable
// inside With, which holds the lock for the duration of the callback and
// releases it on every exit path.
type Global struct {
	mu    sync.Mutex
	data  []byte
	locks int
	freed bool
}

// Alloc returns a zeroed block of size bytes.
func Alloc(size int) (*Global, error) {
	if size < 0 {
		return nil, fmt.Errorf("global: alloc %d bytes: %w", size, E_INVALIDARG)
	}
	return &Global{data: make([]byte, size)}, nil
}

// GlobalFrom returns a block holding a copy of b.
func GlobalFrom(b []byte) *Global {
	g := &Global{data: make([]byte, len(b))}
	copy(g.data, b)
	return g
}

// Size returns the block size, or 0 once freed.
func (g *Global) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.freed {
		return 0
	}
	return len(g.data)
}

// ReAlloc resizes the block, keeping its prefix. Fails while locked.
func (g *Global) ReAlloc(size int) error {
	if size < 0 {
		return fmt.Errorf("global: realloc %d bytes: %w", size, E_INVALIDARG)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.freed:
		return ErrFreed
	case g.locks > 0:
		return ErrLocked
	}
	data := make([]byte, size)
	copy(data, g.data)
	g.data = data
	return nil
}

// With locks the block and passes its bytes to fn. The slice must not be
// retained after fn returns.
func (g *Global) With(fn func([]byte) error) error {
	g.mu.Lock()
	if g.freed {
		g.mu.Unlock()
		return ErrFreed
	}
	g.locks++
	data := g.data
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.locks--
		g.mu.Unlock()
	}()
	return fn(data)
}

// Bytes returns a copy of the block contents.
func (g *Global) Bytes() ([]byte, error) {
	var out []byte
	err := g.With(func(b []byte) error {
		out = make([]byte, len(b))
		copy(out, b)
		return nil
	})
	return out, err
}

// Free releases the block. Fails while locked; freeing twice is an error.
func (g *Global) Free() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.freed:
		return ErrFreed
	case g.locks > 0:
		return ErrLocked
	}
	g.freed = true
	g.data = nil
	return nil
}

// Locked reports whether a With callback is running.
func (g *Global) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locks > 0
}
