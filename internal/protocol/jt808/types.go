package jt808

import "fmt"

// MessageType 消息 ID
type MessageType uint16

const (
	TerminalGenericResp  MessageType = 0x0001 // 终端通用应答
	TerminalHeartbeat    MessageType = 0x0002 // 终端心跳
	TerminalLogout       MessageType = 0x0003 // 终端注销
	TerminalRegister     MessageType = 0x0100 // 终端注册
	TerminalAuth         MessageType = 0x0102 // 终端鉴权
	LocationReport       MessageType = 0x0200 // 位置信息汇报
	PlatformGenericResp  MessageType = 0x8001 // 平台通用应答
	TerminalRegisterResp MessageType = 0x8100 // 终端注册应答
)

var typeNames = map[MessageType]string{
	TerminalGenericResp:  "TERMINAL_GENERIC_RESP",
	TerminalHeartbeat:    "TERMINAL_HEARTBEAT",
	TerminalLogout:       "TERMINAL_LOGOUT",
	TerminalRegister:     "TERMINAL_REGISTER",
	TerminalAuth:         "TERMINAL_AUTH",
	LocationReport:       "LOCATION_REPORT",
	PlatformGenericResp:  "PLATFORM_GENERIC_RESP",
	TerminalRegisterResp: "TERMINAL_REGISTER_RESP",
}

// Known 是否为协议中已定义的消息类型
func (t MessageType) Known() bool {
	_, ok := typeNames[t]
	return ok
}

func (t MessageType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("0x%04x", uint16(t))
}

// Hex 形如 0x0102，用于日志与指标标签
func (t MessageType) Hex() string { return fmt.Sprintf("0x%04x", uint16(t)) }
