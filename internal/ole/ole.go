// Package ole models the native transfer representation shared by the
// clipboard and drag-and-drop: FORMATETC descriptors, media (shared-memory
// blocks, streams, bitmaps), status codes, and the two call shapes a data
// object can take.
//
// DataObject is the native shape. RuntimeDataObject is the legacy interop
// shape of the same contract, with out-parameters and status returns. The
// two are converted by RuntimeFrom and NativeFrom, which only reshape
// arguments and results.
package ole

// AdviseSink receives data change notifications.
type AdviseSink interface {
	OnDataChange(fe FormatEtc, m Medium)
}

// StatData describes one advisory connection.
type StatData struct {
	FormatEtc  FormatEtc
	Advf       uint32
	Sink       AdviseSink
	Connection uint32
}

// DataObject is the native data object contract.
type DataObject interface {
	GetData(fe FormatEtc) (Medium, error)
	GetDataHere(fe FormatEtc, m *Medium) error
	QueryGetData(fe FormatEtc) HRESULT
	GetCanonicalFormatEtc(in FormatEtc) (FormatEtc, HRESULT)
	SetData(fe FormatEtc, m Medium, release bool) error
	EnumFormatEtc(dir Direction) ([]FormatEtc, error)
	DAdvise(fe FormatEtc, advf uint32, sink AdviseSink) (uint32, error)
	DUnadvise(connection uint32) error
	EnumDAdvise() ([]StatData, error)
}

// RuntimeDataObject is the legacy interop shape of DataObject.
type RuntimeDataObject interface {
	GetData(fe *FormatEtc, m *Medium) HRESULT
	GetDataHere(fe *FormatEtc, m *Medium) HRESULT
	QueryGetData(fe *FormatEtc) HRESULT
	GetCanonicalFormatEtc(in *FormatEtc, out *FormatEtc) HRESULT
	SetData(fe *FormatEtc, m *Medium, release bool) HRESULT
	EnumFormatEtc(dir Direction, out *[]FormatEtc) HRESULT
	DAdvise(fe *FormatEtc, advf uint32, sink AdviseSink, connection *uint32) HRESULT
	DUnadvise(connection uint32) HRESULT
	EnumDAdvise(out *[]StatData) HRESULT
}

// Unwrapper is implemented by proxies that stand in for another data
// object, such as a clipboard handing back a process's own data.
type Unwrapper interface {
	Unwrap() DataObject
}

// Unwrap follows Unwrap links from d until it reaches an object that is
// not a proxy.
func Unwrap(d DataObject) DataObject {
	for {
		u, ok := d.(Unwrapper)
		if !ok {
			return d
		}
		next := u.Unwrap()
		if next == nil || next == d {
			return d
		}
		d = next
	}
}
