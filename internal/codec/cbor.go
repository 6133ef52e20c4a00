package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// CBOR tags distinguishing the two record kinds that may follow the marker.
const (
	safeTag   = 20050
	legacyTag = 16966
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Generic targets (any fields, untyped reads) get string-keyed maps.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// safeRecord is the whitelist-only exchange record. Type is always the name
// of a well-known type.
type safeRecord struct {
	Type  string          `cbor:"t"`
	Value cbor.RawMessage `cbor:"v"`
}

// legacyRecord is the unrestricted object-graph record. Types lists the
// names of every member type of the graph; each one must bind before the
// value is decoded.
type legacyRecord struct {
	Root  string          `cbor:"root"`
	Types []string        `cbor:"types,omitempty"`
	Value cbor.RawMessage `cbor:"value"`
}
