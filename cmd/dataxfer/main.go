// dataxfer: typed clipboard exchange from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/dataxfer/internal/apartment"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	// The clipboard is driven from this thread for the life of the process.
	if err := apartment.Enter(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:   "dataxfer",
		Short: "Typed clipboard exchange",
		Long: `dataxfer moves text, file lists, images, audio and JSON payloads
through the system clipboard using the same format negotiation as desktop
applications: named formats, synonyms (Text / UnicodeText, FileDrop /
FileNameW) and serialized objects gated by a serialization policy.

Without a display (no X11 or Wayland), an in-memory clipboard is used.

Config file search order (first found wins):
  /etc/dataxfer/dataxfer.toml
  $HOME/.config/dataxfer/dataxfer.toml
  path supplied via --config

All flags can be set via DATAXFER_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newCopyCmd(),
		newPasteCmd(),
		newFormatsCmd(),
		newClearCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	err := root.Execute()
	_ = apartment.Leave()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("dataxfer %s\n", Version)
		},
	}
}
