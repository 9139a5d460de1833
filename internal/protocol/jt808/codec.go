package jt808

import (
	"fmt"
)

// Message 所有消息结构的公共接口，Header 通过嵌入提供 MessageHeader
type Message interface {
	MessageHeader() *Header
	MessageType() MessageType
}

// Codec 单个消息类型的编解码器
// Encode 输出消息头+消息体，不含校验码、转义与分隔符
// Decode 从消息头起读取，消费完消息体即停止
type Codec interface {
	Type() MessageType
	Supports(v Version) bool
	Encode(m Message) ([]byte, error)
	Decode(v Version, r *Reader) (Message, error)
}

// bodyFuncs 某一版本消息体的编解码函数，多个版本可共用一组
type bodyFuncs[M Message] struct {
	encode func(m M, w *Writer)
	decode func(m M, r *Reader)
}

// familyCodec 以版本为判别字段的消息族编解码器
type familyCodec[M Message] struct {
	typ    MessageType
	newMsg func() M
	bodies map[Version]bodyFuncs[M]
}

func (c *familyCodec[M]) Type() MessageType { return c.typ }

func (c *familyCodec[M]) Supports(v Version) bool {
	_, ok := c.bodies[v]
	return ok
}

func (c *familyCodec[M]) Encode(m Message) ([]byte, error) {
	msg, ok := m.(M)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s", ErrMessageMismatch, m, c.typ)
	}
	h := msg.MessageHeader()
	fns, ok := c.bodies[h.Version]
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedVersion, h.Version, c.typ)
	}
	h.Type = c.typ
	if !h.Partial {
		h.PackageTotal, h.PackageNum = 0, 0
	}

	w := NewWriter(64)
	propsOff := h.encode(w)
	start := w.Len()
	fns.encode(msg, w)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.typ, err)
	}
	h.BodyLength = w.Len() - start
	props, err := h.properties()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.typ, err)
	}
	w.SetUint16(propsOff, props)
	return w.Bytes(), nil
}

func (c *familyCodec[M]) Decode(v Version, r *Reader) (Message, error) {
	fns, ok := c.bodies[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedVersion, v, c.typ)
	}
	msg := c.newMsg()
	h := msg.MessageHeader()
	h.Version = v
	if err := h.decode(r); err != nil {
		return nil, fmt.Errorf("decode %s header: %w", c.typ, err)
	}
	if h.BodyLength > r.Len() {
		return nil, fmt.Errorf("decode %s: %w: body length %d, %d bytes left", c.typ, ErrFieldLength, h.BodyLength, r.Len())
	}
	start := r.Offset()
	fns.decode(msg, r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decode %s body: %w", c.typ, err)
	}
	if used := r.Offset() - start; used != h.BodyLength {
		return nil, fmt.Errorf("decode %s: %w: body length %d, read %d", c.typ, ErrNotFullyConsumed, h.BodyLength, used)
	}
	return msg, nil
}

// allVersions 三个版本共用同一组消息体函数
func allVersions[M Message](fns bodyFuncs[M]) map[Version]bodyFuncs[M] {
	return map[Version]bodyFuncs[M]{V2011: fns, V2013: fns, V2019: fns}
}

// codecFactories 编解码器目录，定义文件按名称引用
var codecFactories = map[string]func() Codec{
	"terminal_generic_resp":  newTerminalGenericRespCodec,
	"terminal_heartbeat":     newTerminalHeartbeatCodec,
	"terminal_logout":        newTerminalLogoutCodec,
	"terminal_register":      newTerminalRegisterCodec,
	"terminal_auth":          newTerminalAuthCodec,
	"platform_generic_resp":  newPlatformGenericRespCodec,
	"terminal_register_resp": newTerminalRegisterRespCodec,
}
