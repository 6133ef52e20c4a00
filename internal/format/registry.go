// Package format maps clipboard format names to the small integer ids the
// platform transfer protocol uses, and knows which names are interchangeable.
//
// Ids below 0xC000 are the predefined CF_* values; custom names are assigned
// ids from 0xC000 upwards the first time they are seen. Once assigned, a
// name/id pair never changes for the life of the process.
package format

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ID is a process-global clipboard format identifier.
type ID uint32

// Predefined format names. The exact strings matter for interop with other
// processes reading the same clipboard.
const (
	Text             = "Text"
	UnicodeText      = "UnicodeText"
	Rtf              = "Rich Text Format"
	Html             = "HTML Format"
	Csv              = "Csv"
	OemText          = "OEMText"
	FileDrop         = "FileDrop"
	Bitmap           = "Bitmap"
	Dib              = "DeviceIndependentBitmap"
	DibV5            = "Format17"
	EnhancedMetafile = "EnhancedMetafile"
	MetafilePict     = "MetaFilePict"
	SymbolicLink     = "SymbolicLink"
	Dif              = "DataInterchangeFormat"
	Tiff             = "TaggedImageFileFormat"
	Palette          = "Palette"
	PenData          = "PenData"
	Riff             = "RiffAudio"
	WaveAudio        = "WaveAudio"
	Locale           = "Locale"
	Serializable     = "PersistentObject"

	// String is the generic string format, a synonym of Text and UnicodeText.
	String = "System.String"
	// BinaryFormatBitmap is the object-typed name of the bitmap format.
	BinaryFormatBitmap = "System.Drawing.Bitmap"
	// FileNameAnsi and FileNameUnicode are the deprecated single-file
	// formats, synonyms of FileDrop.
	FileNameAnsi    = "FileName"
	FileNameUnicode = "FileNameW"
)

// Predefined ids (CF_* values).
const (
	CFText         ID = 1
	CFBitmap       ID = 2
	CFMetafilePict ID = 3
	CFSylk         ID = 4
	CFDif          ID = 5
	CFTiff         ID = 6
	CFOemText      ID = 7
	CFDib          ID = 8
	CFPalette      ID = 9
	CFPenData      ID = 10
	CFRiff         ID = 11
	CFWave         ID = 12
	CFUnicodeText  ID = 13
	CFEnhMetafile  ID = 14
	CFHDrop        ID = 15
	CFLocale       ID = 16
	CFDibV5        ID = 17

	firstCustomID ID = 0xC000
)

var builtin = []struct {
	id   ID
	name string
}{
	{CFText, Text},
	{CFBitmap, Bitmap},
	{CFMetafilePict, MetafilePict},
	{CFSylk, SymbolicLink},
	{CFDif, Dif},
	{CFTiff, Tiff},
	{CFOemText, OemText},
	{CFDib, Dib},
	{CFPalette, Palette},
	{CFPenData, PenData},
	{CFRiff, Riff},
	{CFWave, WaveAudio},
	{CFUnicodeText, UnicodeText},
	{CFEnhMetafile, EnhancedMetafile},
	{CFHDrop, FileDrop},
	{CFLocale, Locale},
	{CFDibV5, DibV5},
}

// ErrInvalidName is returned when registering an empty or blank name.
var ErrInvalidName = errors.New("format name must not be empty")

// Registry is a bidirectional name/id table. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]ID
	byID   map[ID]string
	next   ID
}

// NewRegistry returns a registry preloaded with the predefined formats.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]ID, len(builtin)),
		byID:   make(map[ID]string, len(builtin)),
		next:   firstCustomID,
	}
	for _, b := range builtin {
		r.byName[b.name] = b.id
		r.byID[b.id] = b.name
	}
	return r
}

// Add returns the id for name, registering it if it is new.
func (r *Registry) Add(name string) (ID, error) {
	if strings.TrimSpace(name) == "" {
		return 0, ErrInvalidName
	}

	r.mu.RLock()
	id, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[name]; ok {
		return id, nil
	}
	id = r.next
	r.next++
	r.byName[name] = id
	r.byID[id] = name
	return id, nil
}

// Name returns the name for id. Ids that were never registered get a
// synthetic "Format<id>" name, which is memoized so the mapping stays stable.
func (r *Registry) Name(id ID) string {
	r.mu.RLock()
	name, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.byID[id]; ok {
		return name
	}
	name = fmt.Sprintf("Format%d", id)
	r.byID[id] = name
	if _, taken := r.byName[name]; !taken {
		r.byName[name] = id
	}
	return name
}

// Lookup returns the id for name without registering it.
func (r *Registry) Lookup(name string) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// GetID returns the process-wide id for name, registering it if needed.
func GetID(name string) (ID, error) { return defaultRegistry.Add(name) }

// MustID is GetID for names known to be valid, such as the predefined ones.
func MustID(name string) ID {
	id, err := defaultRegistry.Add(name)
	if err != nil {
		panic(fmt.Sprintf("format: %q: %v", name, err))
	}
	return id
}

// GetName returns the process-wide name for id.
func GetName(id ID) string { return defaultRegistry.Name(id) }
