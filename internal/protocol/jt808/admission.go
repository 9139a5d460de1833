package jt808

import (
	"encoding/binary"
	"fmt"
)

// 注册帧按总长度推断版本的阈值
const (
	registerV2013MinLen = 50
	registerV2019MinLen = 90
	authV2019MinLen     = 51
)

// Admit 准入检查：识别消息类型，注册/鉴权帧推断版本，其余类型要求已鉴权
// f.Raw 为转义还原后的完整帧
func Admit(sess *Session, f *Frame) error {
	if len(f.Raw) < 3 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(f.Raw))
	}
	t := MessageType(binary.BigEndian.Uint16(f.Raw[1:3]))
	if !t.Known() {
		return fmt.Errorf("%w 0x%04x", ErrUnknownMessageType, uint16(t))
	}
	f.Type = t

	n := len(f.Raw)
	switch t {
	case TerminalRegister:
		switch {
		case n < registerV2013MinLen:
			sess.SetVersion(V2011)
		case n < registerV2019MinLen:
			sess.SetVersion(V2013)
		default:
			sess.SetVersion(V2019)
		}
		return nil
	case TerminalAuth:
		v, ok := sess.Version()
		if !ok {
			// 仅凭长度无法区分 2011 与 2013
			v = V2013
			if n >= authV2019MinLen {
				v = V2019
			}
		}
		sess.SetVersion(v)
		return nil
	}
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}
