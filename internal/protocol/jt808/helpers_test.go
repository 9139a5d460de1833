package jt808

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

// 2019 版终端鉴权，消息头+消息体（不含分隔符与校验码）
const authV2019Hex = "0102402701000000000173550122220037034f42443132333435363738393031323334350000000000000000000000000000000000000000"

// frameOf 消息头+消息体 -> 完整帧
func frameOf(content []byte) []byte {
	body := Escape(AppendBCC(bytes.Clone(content)))
	out := append([]byte{Delimiter}, body...)
	return append(out, Delimiter)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := BuildRegistry(nil)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustEncode(t *testing.T, reg *Registry, m Message) []byte {
	t.Helper()
	b, err := EncodeFrame(reg, DefaultProtocolName, m)
	if err != nil {
		t.Fatalf("encode %T: %v", m, err)
	}
	return b
}

// 各版本注册消息样例，帧总长分别落在 <50 / <90 / >=90 区间
func registerSamples() map[Version]*TerminalRegisterMsg {
	return map[Version]*TerminalRegisterMsg{
		V2011: {
			Header:         Header{Version: V2011, PhoneNumber: "13800138000", SerialNum: 1},
			ProvinceID:     31,
			CityID:         1000,
			ManufacturerID: "ABCDE",
			TerminalModel:  "M1",
			TerminalID:     "T000001",
			PlateColor:     PlateColorBlue,
			PlateNumber:    "京A12345",
		},
		V2013: {
			Header:         Header{Version: V2013, PhoneNumber: "13800138000", SerialNum: 2},
			ProvinceID:     44,
			CityID:         300,
			ManufacturerID: "ABCDE",
			TerminalModel:  "MODEL-2013",
			TerminalID:     "T01",
			PlateColor:     PlateColorYellow,
			PlateNumber:    "沪B99999",
		},
		V2019: {
			Header:         Header{Version: V2019, PhoneNumber: "13800138000", SerialNum: 3},
			ProvinceID:     44,
			CityID:         100,
			ManufacturerID: "MANUFACT-01",
			TerminalModel:  "MODEL-2019",
			TerminalID:     "T" + strings.Repeat("0", 28) + "1",
			PlateColor:     PlateColorBlack,
			PlateNumber:    "粤C00001",
		},
	}
}
