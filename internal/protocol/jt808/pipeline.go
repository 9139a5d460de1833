package jt808

import (
	"fmt"
)

// Stage 流水线阶段，返回错误即将帧标记为丢弃
type Stage func(f *Frame) error

// Decoder 单连接解码流水线：分帧 -> 反转义 -> BCC -> 准入 -> 解码
// 非并发安全，每个连接一个实例，帧按到达顺序输出
type Decoder struct {
	splitter *Splitter
	session  *Session
	registry *Registry
	protocol string
	stages   []Stage
}

// DecoderOption 解码器可选项
type DecoderOption func(*Decoder)

// WithMaxFrameLength 半包缓存上限
func WithMaxFrameLength(n int) DecoderOption {
	return func(d *Decoder) { d.splitter = NewSplitter(n) }
}

// WithProtocolName 协议定义名称，默认 JT/T808
func WithProtocolName(name string) DecoderOption {
	return func(d *Decoder) {
		if name != "" {
			d.protocol = name
		}
	}
}

func NewDecoder(reg *Registry, sess *Session, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		splitter: NewSplitter(DefaultMaxFrameLength),
		session:  sess,
		registry: reg,
		protocol: DefaultProtocolName,
	}
	for _, o := range opts {
		o(d)
	}
	d.stages = []Stage{
		UnescapeStage,
		ChecksumStage,
		d.admit,
		d.decode,
	}
	return d
}

// Session 当前连接的会话状态
func (d *Decoder) Session() *Session { return d.session }

// Feed 输入一段原始字节，返回本次产出的全部帧
// 成功帧 Message 非空，丢弃帧 Err 非空
func (d *Decoder) Feed(chunk []byte) []*Frame {
	frames := d.splitter.Feed(chunk)
	for _, f := range frames {
		Run(f, d.stages...)
	}
	return frames
}

// Run 依次执行各阶段，帧已丢弃或某阶段失败即停止
func Run(f *Frame, stages ...Stage) {
	for _, st := range stages {
		if f.Discarded() {
			return
		}
		if err := st(f); err != nil {
			f.Discard(err)
		}
	}
}

// UnescapeStage 反转义，用还原后的字节替换 f.Raw
func UnescapeStage(f *Frame) error {
	raw, err := Unescape(f.Raw)
	if err != nil {
		return err
	}
	f.Raw = raw
	return nil
}

// ChecksumStage BCC 校验
func ChecksumStage(f *Frame) error { return VerifyFrameBCC(f.Raw) }

func (d *Decoder) admit(f *Frame) error { return Admit(d.session, f) }

func (d *Decoder) decode(f *Frame) error {
	v, ok := d.session.Version()
	if !ok {
		return ErrVersionUndetermined
	}
	m, err := DecodeFrame(d.registry, ProtocolKey{Name: d.protocol, Version: v}, f.Type, f.Raw)
	if err != nil {
		return err
	}
	f.Message = m
	return nil
}

// DecodeFrame 解码已反转义、已校验的完整帧（含首尾 0x7e 与校验码）
func DecodeFrame(reg *Registry, key ProtocolKey, t MessageType, frame []byte) (Message, error) {
	def, err := reg.Lookup(key, t)
	if err != nil {
		return nil, err
	}
	if len(frame) < 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(frame))
	}
	r := NewReader(frame[1:])
	m, err := def.Codec().Decode(key.Version, r)
	if err != nil {
		return nil, err
	}
	// 剩余应恰好为校验码与结束符
	if r.Len() != 2 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrNotFullyConsumed, r.Len()-2)
	}
	return m, nil
}

// EncodeFrame 编码为可直接发送的完整帧：消息头+消息体，追加 BCC，转义，加首尾 0x7e
func EncodeFrame(reg *Registry, protocol string, m Message) ([]byte, error) {
	def, err := reg.LookupMessage(protocol, m)
	if err != nil {
		return nil, err
	}
	content, err := def.Codec().Encode(m)
	if err != nil {
		return nil, err
	}
	body := Escape(AppendBCC(content))
	out := make([]byte, 0, len(body)+2)
	out = append(out, Delimiter)
	out = append(out, body...)
	return append(out, Delimiter), nil
}
