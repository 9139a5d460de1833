package jt808

import (
	"fmt"
	"strings"
)

// MaxBodyLength 消息体长度字段为 10 位
const MaxBodyLength = 1<<10 - 1

// Encryption 消息体加密方式
type Encryption uint8

const (
	EncryptionNone Encryption = iota
	EncryptionRSA
	EncryptionReserve
)

func (e Encryption) String() string {
	switch e {
	case EncryptionNone:
		return "NONE"
	case EncryptionRSA:
		return "RSA"
	default:
		return "RESERVE"
	}
}

// 消息体属性位
const (
	propVersionFlag = 1 << 14
	propPartialFlag = 1 << 13
	propEncShift    = 10
	propEncMask     = 0x7 << propEncShift
	propLengthMask  = 0x3ff
)

// Header 消息头
type Header struct {
	Type         MessageType
	Version      Version
	BodyLength   int
	Encryption   Encryption
	Partial      bool
	PhoneNumber  string
	SerialNum    uint16
	PackageTotal uint16 // 仅分包时有效
	PackageNum   uint16 // 仅分包时有效
}

// MessageHeader 通过嵌入提升到各消息结构
func (h *Header) MessageHeader() *Header { return h }

// properties 组装消息体属性
func (h *Header) properties() (uint16, error) {
	if h.BodyLength < 0 || h.BodyLength > MaxBodyLength {
		return 0, fmt.Errorf("%w: %d bytes", ErrBodyTooLong, h.BodyLength)
	}
	var p uint16
	if h.Version >= V2019 {
		p |= propVersionFlag
	}
	if h.Partial {
		p |= propPartialFlag
	}
	switch h.Encryption {
	case EncryptionNone:
	case EncryptionRSA:
		p |= 0x1 << propEncShift
	default:
		p |= 0x2 << propEncShift
	}
	return p | uint16(h.BodyLength), nil
}

// setProperties 拆解消息体属性
func (h *Header) setProperties(p uint16) {
	h.BodyLength = int(p & propLengthMask)
	switch (p & propEncMask) >> propEncShift {
	case 0:
		h.Encryption = EncryptionNone
	case 1:
		h.Encryption = EncryptionRSA
	default:
		h.Encryption = EncryptionReserve
	}
	h.Partial = p&propPartialFlag != 0
}

// encode 写消息头，属性位置写 0 并返回其偏移供回填
func (h *Header) encode(w *Writer) int {
	w.PutUint16(uint16(h.Type))
	off := w.Len()
	w.PutUint16(0)
	if h.Version >= V2019 {
		w.PutUint8(uint8(h.Version) - 1)
	}
	phone, err := EncodeBCD(h.PhoneNumber)
	if err != nil {
		w.fail(fmt.Errorf("phone number: %w", err))
		return off
	}
	w.PutPadHead("phone number", phone, h.Version.phoneLen(), 0)
	w.PutUint16(h.SerialNum)
	if h.Partial {
		w.PutUint16(h.PackageTotal)
		w.PutUint16(h.PackageNum)
	}
	return off
}

// decode 读消息头，h.Version 需预先设为会话期望版本
func (h *Header) decode(r *Reader) error {
	h.Type = MessageType(r.Uint16("message type"))
	h.setProperties(r.Uint16("body properties"))
	if h.Version >= V2019 {
		marker := r.Uint8("version marker")
		if r.Err() == nil && int(marker)+1 != int(h.Version) {
			return fmt.Errorf("%w: expected %s, actual marker %d", ErrVersionMismatch, h.Version, marker)
		}
	}
	bcd := r.Bytes("phone number", h.Version.phoneLen())
	if r.Err() != nil {
		return r.Err()
	}
	phone, err := DecodeBCD(bcd)
	if err != nil {
		return fmt.Errorf("phone number: %w", err)
	}
	h.PhoneNumber = strings.TrimLeft(phone, "0")
	h.SerialNum = r.Uint16("serial number")
	if h.Partial {
		h.PackageTotal = r.Uint16("package total")
		h.PackageNum = r.Uint16("package number")
	}
	return r.Err()
}
