package codec

import (
	"bytes"

	"github.com/google/uuid"
)

// markerGUID identifies a stream produced by the object codec.
var markerGUID = uuid.MustParse("FD9EA796-3B13-4370-A679-56106BB288FB")

// Marker is the 16-byte prefix of every serialized-object stream: the marker
// GUID in its little-endian in-memory layout.
var Marker = guidBytes(markerGUID)

// guidBytes lays out u the way a GUID struct sits in memory: Data1, Data2 and
// Data3 little-endian, Data4 as is.
func guidBytes(u uuid.UUID) [16]byte {
	var b [16]byte
	b[0], b[1], b[2], b[3] = u[3], u[2], u[1], u[0]
	b[4], b[5] = u[5], u[4]
	b[6], b[7] = u[7], u[6]
	copy(b[8:], u[8:])
	return b
}

// HasMarker reports whether data starts with the exact marker. Anything else
// is raw bytes.
func HasMarker(data []byte) bool {
	return len(data) >= len(Marker) && bytes.Equal(data[:len(Marker)], Marker[:])
}

// StripMarker returns data without the marker, or false if it is absent.
func StripMarker(data []byte) ([]byte, bool) {
	if !HasMarker(data) {
		return nil, false
	}
	return data[len(Marker):], true
}
