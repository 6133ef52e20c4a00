package ole

import (
	"errors"
	"fmt"
)

// HRESULT is a native status code. Negative values are failures. It
// implements error so failures can be returned and matched with errors.Is.
type HRESULT int32

const (
	S_OK                     HRESULT = 0
	S_FALSE                  HRESULT = 1
	DATA_S_SAMEFORMATETC     HRESULT = 0x00040130
	E_NOTIMPL                HRESULT = -0x7FFFBFFF // 0x80004001
	E_FAIL                   HRESULT = -0x7FFFBFFB // 0x80004005
	E_UNEXPECTED             HRESULT = -0x7FFF0001 // 0x8000FFFF
	E_OUTOFMEMORY            HRESULT = -0x7FF8FFF2 // 0x8007000E
	E_INVALIDARG             HRESULT = -0x7FF8FFA9 // 0x80070057
	OLE_E_ADVISENOTSUPPORTED HRESULT = -0x7FFBFFFD // 0x80040003
	DV_E_FORMATETC           HRESULT = -0x7FFBFF9C // 0x80040064
	DV_E_LINDEX              HRESULT = -0x7FFBFF98 // 0x80040068
	DV_E_TYMED               HRESULT = -0x7FFBFF97 // 0x80040069
	DV_E_DVASPECT            HRESULT = -0x7FFBFF95 // 0x8004006B
	CLIPBRD_E_CANT_OPEN      HRESULT = -0x7FFBFE30 // 0x800401D0
)

var hresultNames = map[HRESULT]string{
	S_OK:                     "S_OK",
	S_FALSE:                  "S_FALSE",
	DATA_S_SAMEFORMATETC:     "DATA_S_SAMEFORMATETC",
	E_NOTIMPL:                "E_NOTIMPL",
	E_FAIL:                   "E_FAIL",
	E_UNEXPECTED:             "E_UNEXPECTED",
	E_OUTOFMEMORY:            "E_OUTOFMEMORY",
	E_INVALIDARG:             "E_INVALIDARG",
	OLE_E_ADVISENOTSUPPORTED: "OLE_E_ADVISENOTSUPPORTED",
	DV_E_FORMATETC:           "DV_E_FORMATETC",
	DV_E_LINDEX:              "DV_E_LINDEX",
	DV_E_TYMED:               "DV_E_TYMED",
	DV_E_DVASPECT:            "DV_E_DVASPECT",
	CLIPBRD_E_CANT_OPEN:      "CLIPBRD_E_CANT_OPEN",
}

// ErrCantOpen is returned by a platform whose clipboard is held by someone
// else.
var ErrCantOpen error = CLIPBRD_E_CANT_OPEN

func (h HRESULT) Error() string {
	if n, ok := hresultNames[h]; ok {
		return n
	}
	return fmt.Sprintf("HRESULT 0x%08X", uint32(h))
}

// Succeeded reports whether h is a success code.
func (h HRESULT) Succeeded() bool { return h >= 0 }

// Failed reports whether h is a failure code.
func (h HRESULT) Failed() bool { return h < 0 }

// Err returns nil for success codes and h otherwise.
func (h HRESULT) Err() error {
	if h.Succeeded() {
		return nil
	}
	return h
}

// FromError maps err back to a status code. Errors that wrap an HRESULT
// yield it; any other non-nil error is E_FAIL.
func FromError(err error) HRESULT {
	if err == nil {
		return S_OK
	}
	var h HRESULT
	if errors.As(err, &h) {
		return h
	}
	return E_FAIL
}
