package jt808

import (
	"fmt"
	"strings"
)

// EncodeBCD 十进制字符串转 BCD 8421，奇数位左侧补 0
func EncodeBCD(decimal string) ([]byte, error) {
	if len(decimal)%2 != 0 {
		decimal = "0" + decimal
	}
	out := make([]byte, len(decimal)/2)
	for i := 0; i < len(decimal); i++ {
		c := decimal[i]
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: non-decimal string %q", ErrBadBCD, decimal)
		}
		if i%2 == 0 {
			out[i/2] = (c - '0') << 4
		} else {
			out[i/2] |= c - '0'
		}
	}
	return out, nil
}

// DecodeBCD BCD 8421 转十进制字符串（保留前导 0）
func DecodeBCD(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, v := range b {
		hi, lo := v>>4, v&0x0f
		if hi > 9 || lo > 9 {
			return "", fmt.Errorf("%w: byte 0x%02x", ErrBadBCD, v)
		}
		sb.WriteByte('0' + hi)
		sb.WriteByte('0' + lo)
	}
	return sb.String(), nil
}
