// Package apartment pins clipboard and drag-and-drop work to one OS thread.
//
// The platform clipboard must be driven from a single thread for the life of
// the process. A caller establishes that thread once with Enter; every entry
// point then calls Check, which fails with ErrThreadState from anywhere else
// instead of silently migrating.
package apartment

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// ErrThreadState is returned when an operation runs outside the apartment
// thread, or before any thread entered it.
var ErrThreadState = errors.New("current thread is not the clipboard thread")

// Apartment records the thread that owns clipboard work.
type Apartment struct {
	mu    sync.Mutex
	tid   uint64
	depth int
}

// New returns an apartment no thread has entered.
func New() *Apartment { return &Apartment{} }

var process = New()

// Default returns the process-wide apartment.
func Default() *Apartment { return process }

// Enter locks the calling goroutine to its OS thread and makes that thread
// the owner. Entering again from the owner nests; entering from another
// thread fails.
func (a *Apartment) Enter() error {
	runtime.LockOSThread()
	tid, _ := threadID()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.depth > 0 && a.tid != tid {
		runtime.UnlockOSThread()
		return fmt.Errorf("%w: owned by thread %d", ErrThreadState, a.tid)
	}
	if a.depth == 0 {
		a.tid = tid
		slog.Debug("apartment entered", "thread", tid)
	}
	a.depth++
	return nil
}

// Leave undoes one Enter. It must run on the owner thread.
func (a *Apartment) Leave() error {
	if err := a.Check(); err != nil {
		return err
	}
	a.mu.Lock()
	a.depth--
	if a.depth == 0 {
		slog.Debug("apartment left", "thread", a.tid)
		a.tid = 0
	}
	a.mu.Unlock()
	runtime.UnlockOSThread()
	return nil
}

// Check fails unless the calling thread owns the apartment.
func (a *Apartment) Check() error {
	tid, known := threadID()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.depth == 0 {
		return fmt.Errorf("%w: apartment not entered", ErrThreadState)
	}
	if known && tid != a.tid {
		return fmt.Errorf("%w: thread %d, owner %d", ErrThreadState, tid, a.tid)
	}
	return nil
}

// Enter enters the process-wide apartment.
func Enter() error { return process.Enter() }

// Leave leaves the process-wide apartment.
func Leave() error { return process.Leave() }

// Check checks the process-wide apartment.
func Check() error { return process.Check() }
