package jt808

import "fmt"

// BCC 异或校验
func BCC(b []byte) byte {
	var x byte
	for _, v := range b {
		x ^= v
	}
	return x
}

// VerifyFrameBCC 校验完整帧（含首尾 0x7e 与校验码）
// 校验范围为首个分隔符之后到校验码之前
func VerifyFrameBCC(frame []byte) error {
	n := len(frame)
	if n < 3 {
		return fmt.Errorf("%w: frame of %d bytes", ErrFrameTooShort, n)
	}
	want := BCC(frame[1 : n-2])
	got := frame[n-2]
	if want != got {
		return fmt.Errorf("%w: expected 0x%02x, actual 0x%02x", ErrChecksumMismatch, want, got)
	}
	return nil
}

// AppendBCC 追加校验码
func AppendBCC(content []byte) []byte {
	return append(content, BCC(content))
}
