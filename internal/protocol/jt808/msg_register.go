package jt808

import "fmt"

// PlateColor 车牌颜色，0 表示未上牌（以 VIN 标识车辆）
type PlateColor uint8

const (
	PlateColorNone   PlateColor = 0
	PlateColorBlue   PlateColor = 1
	PlateColorYellow PlateColor = 2
	PlateColorBlack  PlateColor = 3
	PlateColorWhite  PlateColor = 4
	PlateColorGreen  PlateColor = 5
	PlateColorOther  PlateColor = 9
)

func (c PlateColor) valid() bool {
	switch c {
	case PlateColorBlue, PlateColorYellow, PlateColorBlack, PlateColorWhite, PlateColorGreen, PlateColorOther:
		return true
	}
	return false
}

// 各版本车牌号之前的定长部分字节数
const (
	registerFixedV2011 = 25
	registerFixedV2013 = 37
	registerFixedV2019 = 76
	vinLength          = 17
)

// TerminalRegisterMsg 终端注册 0x0100
type TerminalRegisterMsg struct {
	Header
	ProvinceID     uint16
	CityID         uint16
	ManufacturerID string
	TerminalModel  string
	TerminalID     string
	PlateColor     PlateColor
	PlateNumber    string // GBK
	VIN            string // 2013 起，PlateColor 为 0 时有效
}

func (*TerminalRegisterMsg) MessageType() MessageType { return TerminalRegister }

func newTerminalRegisterCodec() Codec {
	return &familyCodec[*TerminalRegisterMsg]{
		typ:    TerminalRegister,
		newMsg: func() *TerminalRegisterMsg { return &TerminalRegisterMsg{} },
		bodies: map[Version]bodyFuncs[*TerminalRegisterMsg]{
			V2011: {encode: encodeRegisterV2011, decode: decodeRegisterV2011},
			V2013: {encode: encodeRegisterV2013, decode: decodeRegisterV2013},
			V2019: {encode: encodeRegisterV2019, decode: decodeRegisterV2019},
		},
	}
}

func encodeRegisterV2011(m *TerminalRegisterMsg, w *Writer) {
	w.PutUint16(m.ProvinceID)
	w.PutUint16(m.CityID)
	w.PutFixed("manufacturer id", []byte(m.ManufacturerID), 5)
	w.PutPadHead("terminal model", []byte(m.TerminalModel), 8, ' ')
	w.PutFixed("terminal id", []byte(m.TerminalID), 7)
	if m.PlateColor == PlateColorGreen || !m.PlateColor.valid() {
		w.fail(fmt.Errorf("%w: plate color %d", ErrBadValue, m.PlateColor))
		return
	}
	w.PutUint8(uint8(m.PlateColor))
	w.PutGBK("plate number", m.PlateNumber)
}

func decodeRegisterV2011(m *TerminalRegisterMsg, r *Reader) {
	m.ProvinceID = r.Uint16("province id")
	m.CityID = r.Uint16("city id")
	m.ManufacturerID = r.ASCII("manufacturer id", 5)
	m.TerminalModel = r.Trimmed("terminal model", 8)
	m.TerminalID = r.ASCII("terminal id", 7)
	color := PlateColor(r.Uint8("plate color"))
	if r.Err() == nil && (color == PlateColorGreen || !color.valid()) {
		r.fail(fmt.Errorf("%w: plate color %d", ErrBadValue, color))
		return
	}
	m.PlateColor = color
	m.PlateNumber = r.GBK("plate number", m.BodyLength-registerFixedV2011)
}

func encodeRegisterV2013(m *TerminalRegisterMsg, w *Writer) {
	w.PutUint16(m.ProvinceID)
	w.PutUint16(m.CityID)
	w.PutFixed("manufacturer id", []byte(m.ManufacturerID), 5)
	w.PutPadTail("terminal model", []byte(m.TerminalModel), 20, 0)
	w.PutPadTail("terminal id", []byte(m.TerminalID), 7, 0)
	encodePlateOrVIN(m, w)
}

func decodeRegisterV2013(m *TerminalRegisterMsg, r *Reader) {
	m.ProvinceID = r.Uint16("province id")
	m.CityID = r.Uint16("city id")
	m.ManufacturerID = r.ASCII("manufacturer id", 5)
	m.TerminalModel = r.Trimmed("terminal model", 20)
	m.TerminalID = r.Trimmed("terminal id", 7)
	decodePlateOrVIN(m, r, registerFixedV2013)
}

func encodeRegisterV2019(m *TerminalRegisterMsg, w *Writer) {
	w.PutUint16(m.ProvinceID)
	w.PutUint16(m.CityID)
	w.PutFixed("manufacturer id", []byte(m.ManufacturerID), 11)
	w.PutPadHead("terminal model", []byte(m.TerminalModel), 30, 0)
	w.PutFixed("terminal id", []byte(m.TerminalID), 30)
	encodePlateOrVIN(m, w)
}

func decodeRegisterV2019(m *TerminalRegisterMsg, r *Reader) {
	m.ProvinceID = r.Uint16("province id")
	m.CityID = r.Uint16("city id")
	m.ManufacturerID = r.ASCII("manufacturer id", 11)
	m.TerminalModel = r.Trimmed("terminal model", 30)
	m.TerminalID = r.ASCII("terminal id", 30)
	decodePlateOrVIN(m, r, registerFixedV2019)
}

// encodePlateOrVIN 车牌颜色为 0 时写 VIN，否则写颜色与车牌
func encodePlateOrVIN(m *TerminalRegisterMsg, w *Writer) {
	if m.PlateColor == PlateColorNone {
		w.PutUint8(0)
		w.PutFixed("vin", []byte(m.VIN), vinLength)
		return
	}
	if !m.PlateColor.valid() {
		w.fail(fmt.Errorf("%w: plate color %d", ErrBadValue, m.PlateColor))
		return
	}
	w.PutUint8(uint8(m.PlateColor))
	w.PutGBK("plate number", m.PlateNumber)
}

func decodePlateOrVIN(m *TerminalRegisterMsg, r *Reader, fixed int) {
	color := PlateColor(r.Uint8("plate color"))
	if r.Err() != nil {
		return
	}
	if color == PlateColorNone {
		m.PlateColor = PlateColorNone
		m.VIN = r.ASCII("vin", vinLength)
		return
	}
	if !color.valid() {
		r.fail(fmt.Errorf("%w: plate color %d", ErrBadValue, color))
		return
	}
	m.PlateColor = color
	m.PlateNumber = r.GBK("plate number", m.BodyLength-fixed)
}
