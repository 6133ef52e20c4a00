package ole

// RuntimeFrom presents d in the legacy interop shape.
func RuntimeFrom(d DataObject) RuntimeDataObject {
	if n, ok := d.(nativeOverRuntime); ok {
		return n.rt
	}
	return runtimeOverNative{d}
}

// NativeFrom presents rt in the native shape.
func NativeFrom(rt RuntimeDataObject) DataObject {
	if r, ok := rt.(runtimeOverNative); ok {
		return r.d
	}
	return nativeOverRuntime{rt}
}

type runtimeOverNative struct{ d DataObject }

func (r runtimeOverNative) Unwrap() DataObject { return r.d }

func (r runtimeOverNative) GetData(fe *FormatEtc, m *Medium) HRESULT {
	if fe == nil || m == nil {
		return E_INVALIDARG
	}
	got, err := r.d.GetData(*fe)
	if err != nil {
		return FromError(err)
	}
	*m = got
	return S_OK
}

func (r runtimeOverNative) GetDataHere(fe *FormatEtc, m *Medium) HRESULT {
	if fe == nil || m == nil {
		return E_INVALIDARG
	}
	return FromError(r.d.GetDataHere(*fe, m))
}

func (r runtimeOverNative) QueryGetData(fe *FormatEtc) HRESULT {
	if fe == nil {
		return E_INVALIDARG
	}
	return r.d.QueryGetData(*fe)
}

func (r runtimeOverNative) GetCanonicalFormatEtc(in *FormatEtc, out *FormatEtc) HRESULT {
	if in == nil || out == nil {
		return E_INVALIDARG
	}
	fe, hr := r.d.GetCanonicalFormatEtc(*in)
	*out = fe
	return hr
}

func (r runtimeOverNative) SetData(fe *FormatEtc, m *Medium, release bool) HRESULT {
	if fe == nil || m == nil {
		return E_INVALIDARG
	}
	return FromError(r.d.SetData(*fe, *m, release))
}

func (r runtimeOverNative) EnumFormatEtc(dir Direction, out *[]FormatEtc) HRESULT {
	if out == nil {
		return E_INVALIDARG
	}
	list, err := r.d.EnumFormatEtc(dir)
	if err != nil {
		return FromError(err)
	}
	*out = list
	return S_OK
}

func (r runtimeOverNative) DAdvise(fe *FormatEtc, advf uint32, sink AdviseSink, connection *uint32) HRESULT {
	if fe == nil || connection == nil {
		return E_INVALIDARG
	}
	c, err := r.d.DAdvise(*fe, advf, sink)
	*connection = c
	return FromError(err)
}

func (r runtimeOverNative) DUnadvise(connection uint32) HRESULT {
	return FromError(r.d.DUnadvise(connection))
}

func (r runtimeOverNative) EnumDAdvise(out *[]StatData) HRESULT {
	if out == nil {
		return E_INVALIDARG
	}
	list, err := r.d.EnumDAdvise()
	*out = list
	return FromError(err)
}

type nativeOverRuntime struct{ rt RuntimeDataObject }

func (n nativeOverRuntime) GetData(fe FormatEtc) (Medium, error) {
	var m Medium
	if hr := n.rt.GetData(&fe, &m); hr.Failed() {
		return Medium{}, hr
	}
	return m, nil
}

func (n nativeOverRuntime) GetDataHere(fe FormatEtc, m *Medium) error {
	return n.rt.GetDataHere(&fe, m).Err()
}

func (n nativeOverRuntime) QueryGetData(fe FormatEtc) HRESULT {
	return n.rt.QueryGetData(&fe)
}

func (n nativeOverRuntime) GetCanonicalFormatEtc(in FormatEtc) (FormatEtc, HRESULT) {
	var out FormatEtc
	hr := n.rt.GetCanonicalFormatEtc(&in, &out)
	return out, hr
}

func (n nativeOverRuntime) SetData(fe FormatEtc, m Medium, release bool) error {
	return n.rt.SetData(&fe, &m, release).Err()
}

func (n nativeOverRuntime) EnumFormatEtc(dir Direction) ([]FormatEtc, error) {
	var out []FormatEtc
	if hr := n.rt.EnumFormatEtc(dir, &out); hr.Failed() {
		return nil, hr
	}
	return out, nil
}

func (n nativeOverRuntime) DAdvise(fe FormatEtc, advf uint32, sink AdviseSink) (uint32, error) {
	var c uint32
	hr := n.rt.DAdvise(&fe, advf, sink, &c)
	return c, hr.Err()
}

func (n nativeOverRuntime) DUnadvise(connection uint32) error {
	return n.rt.DUnadvise(connection).Err()
}

func (n nativeOverRuntime) EnumDAdvise() ([]StatData, error) {
	var out []StatData
	hr := n.rt.EnumDAdvise(&out)
	return out, hr.Err()
}
