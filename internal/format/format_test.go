package format

import (
	"slices"
	"testing"
)

func TestRegistryPredefined(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name string
		id   ID
	}{
		{Text, CFText},
		{UnicodeText, CFUnicodeText},
		{FileDrop, CFHDrop},
		{Bitmap, CFBitmap},
		{DibV5, CFDibV5},
	}
	for _, tt := range tests {
		id, err := r.Add(tt.name)
		if err != nil {
			t.Fatalf("Add(%q): %v", tt.name, err)
		}
		if id != tt.id {
			t.Errorf("Add(%q) = %d, want %d", tt.name, id, tt.id)
		}
		if got := r.Name(tt.id); got != tt.name {
			t.Errorf("Name(%d) = %q, want %q", tt.id, got, tt.name)
		}
	}
}

func TestRegistryCustomIsStable(t *testing.T) {
	r := NewRegistry()
	a, err := r.Add("my-format")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a < firstCustomID {
		t.Errorf("custom id %#x below custom range", a)
	}
	b, _ := r.Add("other-format")
	again, _ := r.Add("my-format")
	if again != a {
		t.Errorf("re-registration changed id: %#x != %#x", again, a)
	}
	if a == b {
		t.Errorf("distinct names share id %#x", a)
	}
	if got := r.Name(a); got != "my-format" {
		t.Errorf("Name(%#x) = %q", a, got)
	}
}

func TestRegistryRejectsBlank(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"", "   ", "\t"} {
		if _, err := r.Add(name); err != ErrInvalidName {
			t.Errorf("Add(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestRegistryUnknownID(t *testing.T) {
	r := NewRegistry()
	if got := r.Name(0xBEEF); got != "Format48879" {
		t.Errorf("Name(0xBEEF) = %q", got)
	}
	if id, ok := r.Lookup("Format48879"); !ok || id != 0xBEEF {
		t.Errorf("Lookup synthetic name = %d, %v", id, ok)
	}
}

func TestAddMappedFormats(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{Text, []string{String, UnicodeText}},
		{UnicodeText, []string{String, Text}},
		{FileDrop, []string{FileNameUnicode, FileNameAnsi}},
		{FileNameAnsi, []string{FileDrop, FileNameUnicode}},
		{Bitmap, []string{BinaryFormatBitmap}},
		{"custom", nil},
	}
	for _, tt := range tests {
		got := AddMappedFormats(tt.name, nil)
		if !slices.Equal(got, tt.want) {
			t.Errorf("AddMappedFormats(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAddMappedFormatsIdempotent(t *testing.T) {
	set := []string{Text}
	set = AddMappedFormats(Text, set)
	set = AddMappedFormats(UnicodeText, set)
	set = AddMappedFormats(String, set)
	if len(set) != 3 {
		t.Errorf("set = %v, want 3 unique entries", set)
	}
}

func TestClassification(t *testing.T) {
	if !IsPredefinedFormat(Text) || IsPredefinedFormat("custom") {
		t.Error("IsPredefinedFormat misclassified")
	}
	if !IsRestrictedFormat(Bitmap) || !IsRestrictedFormat(String) {
		t.Error("bitmap and string formats must be restricted")
	}
	if IsRestrictedFormat(Text) || IsRestrictedFormat(Serializable) {
		t.Error("text and serializable formats must not be restricted")
	}
	if !IsSynonym(Text, String) || IsSynonym(Text, FileDrop) {
		t.Error("IsSynonym misclassified")
	}
}
