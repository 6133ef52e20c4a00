package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/dataxfer/internal/apartment"
	"go.klb.dev/dataxfer/internal/clipboard"
	"go.klb.dev/dataxfer/internal/dataobject"
	"go.klb.dev/dataxfer/internal/logging"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the clipboard formats on every change",
		Long: `Prints one line for the current clipboard and one per change: the
available formats and a preview of any text. Stops on SIGINT or SIGTERM.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			s, p := newSession(v)
			defer p.Close()
			return runWatch(ctx, s, os.Stdout)
		},
	}
	addCommonFlags(cmd)
	return cmd
}

// runWatch prints the current clipboard, then each change signalled by the
// session's platform until ctx is done. It runs on the calling goroutine,
// which must own the apartment.
func runWatch(ctx context.Context, s *clipboard.Session, w io.Writer) error {
	if err := apartment.Check(); err != nil {
		return err
	}
	changes := s.Platform().Watch()
	slog.Info("watching clipboard", "platform", s.Platform().Name())
	for {
		if err := report(s, w); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		}
	}
}

func report(s *clipboard.Session, w io.Writer) error {
	d, err := s.GetDataObject()
	if err != nil {
		slog.Warn("clipboard could not be read", "err", err)
		return nil
	}
	formats := d.GetFormats(false)
	text := d.GetText(dataobject.TextUnicode)
	_, err = fmt.Fprintf(w, "%s\t%q\n", strings.Join(formats, ","), logging.Preview(text))
	return err
}
