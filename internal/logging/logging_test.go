package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"text":  FormatText,
		"TINT":  FormatText,
		"human": FormatText,
		"json":  FormatJSON,
		"auto":  FormatAuto,
		"xml":   FormatAuto,
		"":      FormatAuto,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, slog.LevelInfo); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := ParseLevel("", slog.LevelDebug); got != slog.LevelDebug {
		t.Errorf("empty level ignored the default: %v", got)
	}
}

func TestNewHandlerNonTTYIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, FormatAuto, slog.LevelInfo))
	log.Debug("hidden")
	log.Info("copied", "formats", []string{"UnicodeText"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["msg"] != "copied" {
		t.Errorf("msg = %v", rec["msg"])
	}
}

func TestNewHandlerText(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, FormatText, slog.LevelInfo)).Info("pasted")
	if out := buf.String(); !strings.Contains(out, "pasted") || strings.HasPrefix(out, "{") {
		t.Errorf("text output = %q", out)
	}
}

func TestPreview(t *testing.T) {
	short := "hello"
	if got := Preview(short); got != short {
		t.Errorf("Preview(short) = %q", got)
	}
	long := strings.Repeat("é", 200)
	got := Preview(long)
	if n := len([]rune(got)); n != previewLen+1 {
		t.Errorf("preview has %d runes, want %d", n, previewLen+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("preview %q lacks ellipsis", got)
	}
}
