//go:build linux || darwin || windows

package clip

import (
	"log/slog"

	"golang.design/x/clipboard"
)

// New returns the desktop clipboard, or an in-memory board if the display
// environment is unavailable (e.g. a headless server without X11 or
// Wayland). clipboard.Init is called here rather than in init() so that
// commands which never touch the clipboard don't trigger the warning.
func New() Platform {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return &Board{name: "headless (in-memory)"}
	}
	return NewDesktopBoard(systemDesktop{})
}

// systemDesktop is the desktop clipboard as golang.design/x/clipboard sees it.
type systemDesktop struct{}

func (systemDesktop) ReadText() []byte  { return clipboard.Read(clipboard.FmtText) }
func (systemDesktop) ReadImage() []byte { return clipboard.Read(clipboard.FmtImage) }

func (systemDesktop) WriteText(b []byte)    { clipboard.Write(clipboard.FmtText, b) }
func (systemDesktop) WriteImage(png []byte) { clipboard.Write(clipboard.FmtImage, png) }
