package jt808

import (
	"bytes"
	"fmt"
)

const (
	// DefaultMaxFrameLength 半包缓存上限
	DefaultMaxFrameLength = 2048
	// MinFrameLength 分隔符 2 + 消息 ID 2 + 属性 2 + 手机号 6 + 流水号 2 + 校验 1 的下限近似
	MinFrameLength = 12
)

// Frame 分隔出的帧候选
type Frame struct {
	Raw     []byte      // 帧字节（含首尾 0x7e），转义还原后替换为还原结果
	Type    MessageType // 准入阶段写入
	Message Message     // 解码成功后写入
	Err     error       // 非 nil 表示丢弃及原因
}

// Discarded 是否已被丢弃
func (f *Frame) Discarded() bool { return f.Err != nil }

// Discard 标记丢弃，只保留第一个原因
func (f *Frame) Discard(err error) {
	if f.Err == nil {
		f.Err = err
	}
}

// Splitter 将字节流切分为 0x7e ... 0x7e 帧，跨读取保留半包
// 非并发安全，每个连接独享一个实例
type Splitter struct {
	max     int
	cache   []byte
	pending bool
}

func NewSplitter(maxFrameLength int) *Splitter {
	if maxFrameLength <= 0 {
		maxFrameLength = DefaultMaxFrameLength
	}
	return &Splitter{max: maxFrameLength}
}

// Pending 是否有未完成的半包
func (s *Splitter) Pending() bool { return s.pending }

// Feed 输入一段数据，按顺序返回本次可产出的帧（含被标记丢弃的帧）
func (s *Splitter) Feed(chunk []byte) []*Frame {
	if len(chunk) == 0 {
		return nil
	}
	idx := indexAll(chunk, Delimiter)
	if len(idx) == 0 {
		if !s.pending {
			return []*Frame{{
				Raw: bytes.Clone(chunk),
				Err: fmt.Errorf("%w 0x%02x", ErrNoStartDelimiter, Delimiter),
			}}
		}
		if f := s.appendCache(chunk); f != nil {
			return []*Frame{f}
		}
		return nil
	}

	var out []*Frame
	for i := 0; i < len(idx); i++ {
		at := idx[i]
		if i == 0 && s.pending {
			// 首段补全上次的半包
			if f := s.appendCache(chunk[:at+1]); f != nil {
				out = append(out, f)
				continue
			}
			out = append(out, s.flush())
			continue
		}
		// 两个分隔符之间为一帧，缺少结束符则成为新的半包；帧间杂散字节直接跳过
		s.cache, s.pending = nil, true
		i++
		if i < len(idx) {
			if f := s.appendCache(chunk[at : idx[i]+1]); f != nil {
				out = append(out, f)
				continue
			}
			out = append(out, s.flush())
		} else if f := s.appendCache(chunk[at:]); f != nil {
			out = append(out, f)
		}
	}
	return out
}

// appendCache 追加到半包缓存，超限时连同缓存一起丢弃并返回丢弃帧
func (s *Splitter) appendCache(b []byte) *Frame {
	if len(s.cache)+len(b) > s.max {
		raw := make([]byte, 0, len(s.cache)+len(b))
		raw = append(raw, s.cache...)
		raw = append(raw, b...)
		s.cache, s.pending = nil, false
		return &Frame{Raw: raw, Err: fmt.Errorf("%w: exceeds %d bytes", ErrFrameOverflow, s.max)}
	}
	s.cache = append(s.cache, b...)
	return nil
}

// flush 产出缓存中的完整帧并清空缓存
func (s *Splitter) flush() *Frame {
	f := &Frame{Raw: s.cache}
	if len(f.Raw) < MinFrameLength {
		f.Err = fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(f.Raw))
	}
	s.cache, s.pending = nil, false
	return f
}

// indexAll 返回 b 中所有 c 的位置
func indexAll(b []byte, c byte) []int {
	var idx []int
	for off := 0; ; {
		i := bytes.IndexByte(b[off:], c)
		if i < 0 {
			return idx
		}
		idx = append(idx, off+i)
		off += i + 1
	}
}
