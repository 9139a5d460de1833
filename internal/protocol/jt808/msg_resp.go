package jt808

import "fmt"

// RegisterResult 终端注册应答结果
type RegisterResult uint8

const (
	RegisterSuccess                   RegisterResult = 0
	RegisterCarAlreadyRegistered      RegisterResult = 1
	RegisterCarNotFound               RegisterResult = 2
	RegisterTerminalAlreadyRegistered RegisterResult = 3
	RegisterTerminalNotFound          RegisterResult = 4
)

// TerminalRegisterRespMsg 终端注册应答 0x8100
type TerminalRegisterRespMsg struct {
	Header
	RespSerialNum uint16
	Result        RegisterResult
	AuthKey       string // GBK
}

func (*TerminalRegisterRespMsg) MessageType() MessageType { return TerminalRegisterResp }

func newTerminalRegisterRespCodec() Codec {
	return &familyCodec[*TerminalRegisterRespMsg]{
		typ:    TerminalRegisterResp,
		newMsg: func() *TerminalRegisterRespMsg { return &TerminalRegisterRespMsg{} },
		bodies: allVersions(bodyFuncs[*TerminalRegisterRespMsg]{
			encode: func(m *TerminalRegisterRespMsg, w *Writer) {
				w.PutUint16(m.RespSerialNum)
				w.PutUint8(uint8(m.Result))
				w.PutGBK("auth key", m.AuthKey)
			},
			decode: func(m *TerminalRegisterRespMsg, r *Reader) {
				m.RespSerialNum = r.Uint16("response serial number")
				m.Result = RegisterResult(r.Uint8("result"))
				if r.Err() == nil && m.Result > RegisterTerminalNotFound {
					r.fail(fmt.Errorf("%w: register result %d", ErrBadValue, m.Result))
					return
				}
				m.AuthKey = r.GBK("auth key", m.BodyLength-3)
			},
		}),
	}
}

// GenericResult 通用应答结果
type GenericResult uint8

const (
	GenericSuccess     GenericResult = 0
	GenericFailure     GenericResult = 1
	GenericMessageErr  GenericResult = 2
	GenericUnsupported GenericResult = 3
	GenericAlarmAck    GenericResult = 4 // 2013 起
)

// GenericAck 平台/终端通用应答共用的消息体
type GenericAck struct {
	RespSerialNum uint16
	RespType      MessageType
	Result        GenericResult
}

// PlatformGenericRespMsg 平台通用应答 0x8001
type PlatformGenericRespMsg struct {
	Header
	GenericAck
}

func (*PlatformGenericRespMsg) MessageType() MessageType { return PlatformGenericResp }

// TerminalGenericRespMsg 终端通用应答 0x0001
type TerminalGenericRespMsg struct {
	Header
	GenericAck
}

func (*TerminalGenericRespMsg) MessageType() MessageType { return TerminalGenericResp }

// genericAckBodies 2011 结果取值 0~3，2013/2019 增加报警处理确认
func genericAckBodies[M Message](ack func(M) *GenericAck) map[Version]bodyFuncs[M] {
	funcs := func(maxResult GenericResult) bodyFuncs[M] {
		return bodyFuncs[M]{
			encode: func(m M, w *Writer) {
				a := ack(m)
				if a.Result > maxResult {
					w.fail(fmt.Errorf("%w: generic result %d", ErrBadValue, a.Result))
					return
				}
				w.PutUint16(a.RespSerialNum)
				w.PutUint16(uint16(a.RespType))
				w.PutUint8(uint8(a.Result))
			},
			decode: func(m M, r *Reader) {
				a := ack(m)
				a.RespSerialNum = r.Uint16("response serial number")
				a.RespType = MessageType(r.Uint16("response type"))
				a.Result = GenericResult(r.Uint8("result"))
				if r.Err() == nil && a.Result > maxResult {
					r.fail(fmt.Errorf("%w: generic result %d", ErrBadValue, a.Result))
				}
			},
		}
	}
	current := funcs(GenericAlarmAck)
	return map[Version]bodyFuncs[M]{
		V2011: funcs(GenericUnsupported),
		V2013: current,
		V2019: current,
	}
}

func newPlatformGenericRespCodec() Codec {
	return &familyCodec[*PlatformGenericRespMsg]{
		typ:    PlatformGenericResp,
		newMsg: func() *PlatformGenericRespMsg { return &PlatformGenericRespMsg{} },
		bodies: genericAckBodies(func(m *PlatformGenericRespMsg) *GenericAck { return &m.GenericAck }),
	}
}

func newTerminalGenericRespCodec() Codec {
	return &familyCodec[*TerminalGenericRespMsg]{
		typ:    TerminalGenericResp,
		newMsg: func() *TerminalGenericRespMsg { return &TerminalGenericRespMsg{} },
		bodies: genericAckBodies(func(m *TerminalGenericRespMsg) *GenericAck { return &m.GenericAck }),
	}
}

// TerminalHeartbeatMsg 终端心跳 0x0002，消息体为空
type TerminalHeartbeatMsg struct{ Header }

func (*TerminalHeartbeatMsg) MessageType() MessageType { return TerminalHeartbeat }

// TerminalLogoutMsg 终端注销 0x0003，消息体为空
type TerminalLogoutMsg struct{ Header }

func (*TerminalLogoutMsg) MessageType() MessageType { return TerminalLogout }

func emptyBody[M Message]() map[Version]bodyFuncs[M] {
	return allVersions(bodyFuncs[M]{
		encode: func(M, *Writer) {},
		decode: func(M, *Reader) {},
	})
}

func newTerminalHeartbeatCodec() Codec {
	return &familyCodec[*TerminalHeartbeatMsg]{
		typ:    TerminalHeartbeat,
		newMsg: func() *TerminalHeartbeatMsg { return &TerminalHeartbeatMsg{} },
		bodies: emptyBody[*TerminalHeartbeatMsg](),
	}
}

func newTerminalLogoutCodec() Codec {
	return &familyCodec[*TerminalLogoutMsg]{
		typ:    TerminalLogout,
		newMsg: func() *TerminalLogoutMsg { return &TerminalLogoutMsg{} },
		bodies: emptyBody[*TerminalLogoutMsg](),
	}
}
