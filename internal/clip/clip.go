// Package clip provides the platform clipboards a clipboard session drives.
// Build constraints select the system implementation:
//
//	system.go        desktop clipboard via golang.design/x/clipboard
//	system_other.go  platforms without a desktop clipboard, backed by a Board
//
// A desktop clipboard is driven through NewDesktopBoard, which polls it for
// changes and keeps formats the desktop cannot carry in process.
//
// Board is a shared in-memory clipboard. It backs headless environments and
// tests, and models contention the way the desktop clipboard does.
package clip

import "go.klb.dev/dataxfer/internal/ole"

// Platform is the interface that all clipboard implementations satisfy.
type Platform interface {
	// Name returns a human-readable name for the platform.
	Name() string

	// SetClipboard hands d to the clipboard. A nil d empties it. The
	// clipboard may keep calling d for renderings until the next
	// SetClipboard or FlushClipboard.
	SetClipboard(d ole.DataObject) error

	// GetClipboard returns the current clipboard contents. When the
	// calling process owns the clipboard, the result stands in for its own
	// data object and ole.Unwrap recovers it.
	GetClipboard() (ole.DataObject, error)

	// FlushClipboard renders every format of the current data object so the
	// contents survive the owner going away.
	FlushClipboard() error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed.
	Watch() <-chan struct{}

	// Close releases any resources held by the platform.
	Close()
}
