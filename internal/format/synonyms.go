package format

import "slices"

var (
	textFamily   = []string{String, UnicodeText, Text}
	fileFamily   = []string{FileDrop, FileNameUnicode, FileNameAnsi}
	bitmapFamily = []string{BinaryFormatBitmap, Bitmap}
)

// Synonyms returns the formats interchangeable with name, in lookup order,
// including name itself. Names without synonyms return a single element.
func Synonyms(name string) []string {
	var family []string
	switch name {
	case Text, UnicodeText, String:
		family = textFamily
	case FileDrop, FileNameAnsi, FileNameUnicode:
		family = fileFamily
	case Bitmap, BinaryFormatBitmap:
		family = bitmapFamily
	default:
		return []string{name}
	}
	out := make([]string, len(family))
	copy(out, family)
	return out
}

// AddMappedFormats appends every synonym of name, except name itself, to
// into. Duplicates already in into are skipped.
func AddMappedFormats(name string, into []string) []string {
	for _, s := range Synonyms(name) {
		if s == name || slices.Contains(into, s) {
			continue
		}
		into = append(into, s)
	}
	return into
}

// IsSynonym reports whether a and b are the same format or synonyms.
func IsSynonym(a, b string) bool {
	return a == b || slices.Contains(Synonyms(a), b)
}

// IsPredefinedFormat reports whether name has an intrinsic, non-object
// decoding rule.
func IsPredefinedFormat(name string) bool {
	switch name {
	case Text, UnicodeText, Rtf, Html, OemText, FileDrop, FileNameAnsi,
		FileNameUnicode, Bitmap, Csv, String, Dib, DibV5, EnhancedMetafile,
		MetafilePict, SymbolicLink, Dif, Tiff, Palette, PenData, Riff,
		WaveAudio, Locale:
		return true
	}
	return false
}

// IsRestrictedFormat reports whether name must never be satisfied through
// unrestricted legacy deserialization.
func IsRestrictedFormat(name string) bool {
	switch name {
	case String, BinaryFormatBitmap, Csv, Dib, Dif, Locale, PenData, Riff,
		SymbolicLink, Tiff, WaveAudio, Bitmap, EnhancedMetafile, Palette,
		MetafilePict:
		return true
	}
	return false
}

// IsText reports whether name is rendered as a plain character buffer on
// the native side. Csv and String are strings too, but travel as objects.
func IsText(name string) bool {
	switch name {
	case Text, UnicodeText, Rtf, Html, OemText:
		return true
	}
	return false
}
