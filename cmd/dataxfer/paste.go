package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/dataxfer/internal/clipboard"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/logging"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print the clipboard to stdout (like pbpaste)",
		Long: `Retrieves the clipboard and writes it to stdout.

If the clipboard holds nothing in the requested form, nothing is printed
(exit 0). To retrieve an image:

  dataxfer paste --image > screenshot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPaste(v, os.Stdout) },
	}

	f := cmd.Flags()
	f.String("text-format", "unicode", "text format: unicode|text|rtf|html|csv")
	f.Bool("files", false, "print the file drop list, one path per line")
	f.Bool("image", false, "write the image as PNG")
	f.Bool("audio", false, "write the WAVE audio stream")
	f.String("data", "", "write the payload stored under this format name")
	addCommonFlags(cmd)

	return cmd
}

func runPaste(v *viper.Viper, w io.Writer) error {
	s, p := newSession(v)
	defer p.Close()

	switch {
	case v.GetBool("files"):
		files, err := s.GetFileDropList()
		if err != nil || len(files) == 0 {
			return err
		}
		logging.LogTransfer("pasted", p.Name(), []string{"FileDrop"}, "")
		_, err = fmt.Fprintln(w, strings.Join(files, "\n"))
		return err
	case v.GetBool("image"):
		bm, ok, err := s.GetImage()
		if err != nil || !ok {
			return err
		}
		_, err = w.Write(bm.PNG)
		return err
	case v.GetBool("audio"):
		r, ok, err := s.GetAudioStream()
		if err != nil || !ok {
			return err
		}
		_, err = io.Copy(w, r)
		return err
	case v.GetString("data") != "":
		value, ok, err := s.GetData(v.GetString("data"))
		if err != nil || !ok {
			return err
		}
		return writeValue(w, value)
	}

	f, err := parseTextFormat(v.GetString("text-format"))
	if err != nil {
		return err
	}
	text, err := s.GetText(f)
	if err != nil {
		return err
	}
	logging.LogTransfer("pasted", p.Name(), []string{f.Name()}, text)
	_, err = io.WriteString(w, text)
	return err
}

// writeValue writes a payload read back from the clipboard: streams and
// text verbatim, JSON payloads as their document, anything else as JSON.
func writeValue(w io.Writer, value any) error {
	switch v := value.(type) {
	case io.Reader:
		_, err := io.Copy(w, v)
		return err
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := io.WriteString(w, v)
		return err
	case exchange.JSON:
		_, err := w.Write(v.Data)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func newFormatsCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "formats",
		Short:   "List the formats on the clipboard",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, _ []string) error {
			s, p := newSession(v)
			defer p.Close()
			return printFormats(s, v.GetBool("auto-convert"), os.Stdout)
		},
	}
	cmd.Flags().Bool("auto-convert", true, "include formats reachable through synonyms")
	addCommonFlags(cmd)
	return cmd
}

func printFormats(s *clipboard.Session, autoConvert bool, w io.Writer) error {
	formats, err := s.Formats(autoConvert)
	if err != nil {
		return err
	}
	for _, f := range formats {
		if _, err := fmt.Fprintln(w, f); err != nil {
			return err
		}
	}
	return nil
}

func newClearCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Empty the clipboard",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, _ []string) error {
			s, p := newSession(v)
			defer p.Close()
			return s.Clear()
		},
	}
	addCommonFlags(cmd)
	return cmd
}
