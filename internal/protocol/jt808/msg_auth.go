package jt808

// TerminalAuthMsg 终端鉴权 0x0102
type TerminalAuthMsg struct {
	Header
	AuthKey         string // GBK
	IMEI            string // 2019
	SoftwareVersion string // 2019
}

func (*TerminalAuthMsg) MessageType() MessageType { return TerminalAuth }

func newTerminalAuthCodec() Codec {
	legacy := bodyFuncs[*TerminalAuthMsg]{encode: encodeAuthLegacy, decode: decodeAuthLegacy}
	return &familyCodec[*TerminalAuthMsg]{
		typ:    TerminalAuth,
		newMsg: func() *TerminalAuthMsg { return &TerminalAuthMsg{} },
		bodies: map[Version]bodyFuncs[*TerminalAuthMsg]{
			V2011: legacy,
			V2013: legacy,
			V2019: {encode: encodeAuthV2019, decode: decodeAuthV2019},
		},
	}
}

// 2011/2013：消息体即鉴权码
func encodeAuthLegacy(m *TerminalAuthMsg, w *Writer) {
	w.PutGBK("auth key", m.AuthKey)
}

func decodeAuthLegacy(m *TerminalAuthMsg, r *Reader) {
	m.AuthKey = r.GBK("auth key", m.BodyLength)
}

func encodeAuthV2019(m *TerminalAuthMsg, w *Writer) {
	// 鉴权码长度先占位，写完鉴权码后回填
	lenOff := w.Len()
	w.PutUint8(0)
	key, err := encodeGBK(m.AuthKey)
	if err != nil {
		w.fail(err)
		return
	}
	w.PutMax("auth key", key, 255)
	w.SetUint8(lenOff, uint8(len(key)))
	w.PutFixed("imei", []byte(m.IMEI), 15)
	w.PutPadTail("software version", []byte(m.SoftwareVersion), 20, 0)
}

func decodeAuthV2019(m *TerminalAuthMsg, r *Reader) {
	n := int(r.Uint8("auth key length"))
	m.AuthKey = r.GBK("auth key", n)
	m.IMEI = r.ASCII("imei", 15)
	m.SoftwareVersion = r.Trimmed("software version", 20)
}
