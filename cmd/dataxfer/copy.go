package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/dataxfer/internal/dataobject"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/logging"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy [FILE...]",
		Short: "Copy stdin or a file list to the clipboard (like pbcopy)",
		Long: `Reads stdin and places it on the clipboard.

By default stdin is text, stored under --text-format. With --files the
arguments are placed as a file drop list. --image reads a PNG, --audio a
WAVE stream, --json a JSON document stored under the given format name, and
--data raw bytes stored under the given format name.

The desktop clipboard carries text and images only. Other formats are
readable in this process only, and the desktop clipboard is emptied.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runCopy(v, args) },
	}

	f := cmd.Flags()
	f.String("text-format", "unicode", "text format: unicode|text|rtf|html|csv")
	f.Bool("files", false, "copy the arguments as a file drop list")
	f.Bool("image", false, "stdin is a PNG image")
	f.Bool("audio", false, "stdin is WAVE audio")
	f.String("json", "", "store stdin JSON under this format name")
	f.String("data", "", "store stdin bytes under this format name")
	f.Bool("no-flush", false, "leave the data owned by this process instead of flushing it")
	addCommonFlags(cmd)

	return cmd
}

func runCopy(v *viper.Viper, args []string) error {
	s, p := newSession(v)
	defer p.Close()

	d := s.NewDataObject()
	var preview string
	switch {
	case v.GetBool("files"):
		if err := d.SetFileDropList(args); err != nil {
			return err
		}
		// Plain-text readers get the paths one per line.
		preview = strings.Join(args, "\n")
		if err := d.SetText(preview, dataobject.TextUnicode); err != nil {
			return err
		}
	case len(args) > 0:
		return errors.New("file arguments need --files")
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if len(data) == 0 {
			return nil
		}
		if preview, err = fill(d, v, data); err != nil {
			return err
		}
	}

	if err := s.SetDataObject(d, !v.GetBool("no-flush")); err != nil {
		return err
	}
	logging.LogTransfer("copied", p.Name(), d.GetFormats(false), preview)
	return nil
}

// fill stores data in d according to the copy flags and returns the text to
// preview in the log.
func fill(d *dataobject.DataObject, v *viper.Viper, data []byte) (string, error) {
	switch {
	case v.GetBool("image"):
		bm := exchange.Bitmap{PNG: data}
		if _, err := bm.Bounds(); err != nil {
			return "", fmt.Errorf("image: %w", err)
		}
		return "", d.SetImage(bm)
	case v.GetBool("audio"):
		return "", d.SetAudioBytes(data)
	case v.GetString("json") != "":
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("json: %w", err)
		}
		return string(data), d.SetDataAsJSON(v.GetString("json"), doc)
	case v.GetString("data") != "":
		return "", d.SetData(v.GetString("data"), false, bytes.NewReader(data))
	}
	f, err := parseTextFormat(v.GetString("text-format"))
	if err != nil {
		return "", err
	}
	return string(data), d.SetText(string(data), f)
}
