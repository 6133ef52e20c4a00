package dataobject

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// dropFilesSize is sizeof(DROPFILES): pFiles, pt.x, pt.y, fNC, fWide.
const dropFilesSize = 20

var (
	ansi  = charmap.Windows1252
	utf16 = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	errShortDropFiles = errors.New("drop files: buffer shorter than header")
)

// EncodeANSI renders s in the ANSI code page, NUL terminated. Characters
// outside the code page become '?'.
func EncodeANSI(s string) ([]byte, error) {
	b, err := encoding.ReplaceUnsupported(ansi.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("ansi: %w", err)
	}
	return append(b, 0), nil
}

// DecodeANSI reads an ANSI string up to the first NUL.
func DecodeANSI(b []byte) (string, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	out, err := ansi.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("ansi: %w", err)
	}
	return string(out), nil
}

// EncodeUTF16 renders s as UTF-16LE with a NUL terminator.
func EncodeUTF16(s string) ([]byte, error) {
	b, err := utf16.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("utf-16: %w", err)
	}
	return append(b, 0, 0), nil
}

// DecodeUTF16 reads a UTF-16LE string up to the first NUL character.
func DecodeUTF16(b []byte) (string, error) {
	b = b[:len(b)&^1]
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	out, err := utf16.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("utf-16: %w", err)
	}
	return string(out), nil
}

// EncodeUTF8 renders s as UTF-8, NUL terminated. Used for HTML.
func EncodeUTF8(s string) []byte {
	return append([]byte(s), 0)
}

// DecodeUTF8 reads a UTF-8 string up to the first NUL.
func DecodeUTF8(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// EncodeFileDrop renders a file list as a DROPFILES header followed by
// wide, NUL separated paths and a final NUL.
func EncodeFileDrop(files []string) ([]byte, error) {
	var buf bytes.Buffer
	hdr := struct {
		PFiles uint32
		X, Y   int32
		NC     int32
		Wide   int32
	}{PFiles: dropFilesSize, Wide: 1}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("drop files: %w", err)
	}
	for _, f := range files {
		if strings.IndexByte(f, 0) >= 0 {
			return nil, fmt.Errorf("drop files: path %q contains NUL", f)
		}
		b, err := EncodeUTF16(f)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.Write([]byte{0, 0})
	return buf.Bytes(), nil
}

// DecodeFileDrop reads a DROPFILES buffer. Both wide and ANSI lists are
// accepted.
func DecodeFileDrop(b []byte) ([]string, error) {
	if len(b) < dropFilesSize {
		return nil, errShortDropFiles
	}
	offset := binary.LittleEndian.Uint32(b[0:4])
	wide := binary.LittleEndian.Uint32(b[16:20]) != 0
	if offset < dropFilesSize || int(offset) > len(b) {
		return nil, fmt.Errorf("drop files: bad list offset %d", offset)
	}
	list := b[offset:]

	files := []string{}
	for len(list) > 0 {
		var (
			name string
			n    int
			err  error
		)
		if wide {
			n = wideLen(list)
			name, err = DecodeUTF16(list[:n])
			n += 2
		} else {
			n = bytes.IndexByte(list, 0)
			if n < 0 {
				n = len(list)
			}
			name, err = DecodeANSI(list[:n])
			n++
		}
		if err != nil {
			return nil, fmt.Errorf("drop files: %w", err)
		}
		if name == "" {
			break
		}
		files = append(files, name)
		if n >= len(list) {
			break
		}
		list = list[n:]
	}
	return files, nil
}

// wideLen returns the byte length of the UTF-16 string at the start of b,
// excluding its terminator.
func wideLen(b []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i
		}
	}
	return len(b) &^ 1
}
