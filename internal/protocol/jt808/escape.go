package jt808

import (
	"bytes"
	"fmt"
)

const (
	Delimiter  byte = 0x7e
	escapeLead byte = 0x7d
)

// Unescape 还原转义：0x7d01 -> 0x7d，0x7d02 -> 0x7e
// 无转义字节时直接返回原切片
func Unescape(frame []byte) ([]byte, error) {
	first := bytes.IndexByte(frame, escapeLead)
	if first < 0 {
		return frame, nil
	}
	out := make([]byte, 0, len(frame))
	out = append(out, frame[:first]...)
	for i := first; i < len(frame); i++ {
		c := frame[i]
		if c != escapeLead {
			out = append(out, c)
			continue
		}
		if i+1 >= len(frame) {
			return nil, fmt.Errorf("%w: 0x7d at end of frame", ErrUnknownEscape)
		}
		i++
		switch frame[i] {
		case 0x01:
			out = append(out, escapeLead)
		case 0x02:
			out = append(out, Delimiter)
		default:
			return nil, fmt.Errorf("%w 0x7d%02x", ErrUnknownEscape, frame[i])
		}
	}
	return out, nil
}

// Escape 对帧内容（不含首尾分隔符）做转义
// 无需转义时原样返回，不拷贝
func Escape(content []byte) []byte {
	n := 0
	for _, c := range content {
		if c == escapeLead || c == Delimiter {
			n++
		}
	}
	if n == 0 {
		return content
	}
	out := make([]byte, 0, len(content)+n)
	for _, c := range content {
		switch c {
		case escapeLead:
			out = append(out, escapeLead, 0x01)
		case Delimiter:
			out = append(out, escapeLead, 0x02)
		default:
			out = append(out, c)
		}
	}
	return out
}
