package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"go.klb.dev/dataxfer/internal/apartment"
	"go.klb.dev/dataxfer/internal/clip"
	"go.klb.dev/dataxfer/internal/clipboard"
	"go.klb.dev/dataxfer/internal/dataobject"
	"go.klb.dev/dataxfer/internal/exchange"
)

func TestParseTextFormat(t *testing.T) {
	tests := map[string]dataobject.TextFormat{
		"":        dataobject.TextUnicode,
		"unicode": dataobject.TextUnicode,
		"TEXT":    dataobject.TextANSI,
		"rtf":     dataobject.TextRtf,
		"html":    dataobject.TextHtml,
		"csv":     dataobject.TextCsv,
	}
	for in, want := range tests {
		got, err := parseTextFormat(in)
		if err != nil || got != want {
			t.Errorf("parseTextFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseTextFormat("xml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestWriteValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "hello", "hello"},
		{"bytes", []byte{'a', 'b'}, "ab"},
		{"reader", strings.NewReader("streamed"), "streamed"},
		{"json", exchange.JSON{Type: "doc", Data: []byte(`{"a":1}`)}, `{"a":1}`},
		{"other", map[string]int{"n": 2}, "{\n  \"n\": 2\n}\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := writeValue(&buf, tt.value); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if buf.String() != tt.want {
			t.Errorf("%s: wrote %q, want %q", tt.name, buf.String(), tt.want)
		}
	}
}

// boardSession returns a session over an in-memory board, in the process
// apartment entered by the test goroutine.
func boardSession(t *testing.T) (*clipboard.Session, *clip.Board) {
	t.Helper()
	if err := apartment.Enter(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = apartment.Leave() })
	b := clip.NewBoard()
	return clipboard.New(b, clipboard.WithSleeper(func(time.Duration) {})), b
}

func TestPrintFormats(t *testing.T) {
	s, _ := boardSession(t)
	if err := s.SetText("hello", dataobject.TextUnicode); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := printFormats(s, false, &buf); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(strings.Fields(buf.String()), "UnicodeText") {
		t.Errorf("formats = %q", buf.String())
	}
}

func TestRunWatch(t *testing.T) {
	s, b := boardSession(t)
	d := dataobject.New(nil)
	if err := d.SetText("watched", dataobject.TextUnicode); err != nil {
		t.Fatal(err)
	}
	if err := b.SetClipboard(d.Composition().Native()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	if err := runWatch(ctx, s, &buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "UnicodeText\t\"watched\"\n"; got != want {
		t.Errorf("watch output = %q, want %q", got, want)
	}
}

func TestRunWatchNeedsApartment(t *testing.T) {
	s := clipboard.New(clip.NewBoard())
	done := make(chan error)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		done <- runWatch(context.Background(), s, io.Discard)
	}()
	if err := <-done; !errors.Is(err, apartment.ErrThreadState) {
		t.Errorf("runWatch off the apartment = %v", err)
	}
}
