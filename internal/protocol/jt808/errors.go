package jt808

import "errors"

// 帧错误
var (
	ErrNoStartDelimiter = errors.New("missing start delimiter")
	ErrFrameOverflow    = errors.New("length overflow")
	ErrFrameTooShort    = errors.New("too short")
)

// 转义错误
var ErrUnknownEscape = errors.New("unknown escape code")

// 校验错误
var ErrChecksumMismatch = errors.New("checksum mismatch")

// 准入错误
var (
	ErrUnknownMessageType  = errors.New("unknown message type")
	ErrNotAuthenticated    = errors.New("terminal not authenticated")
	ErrVersionUndetermined = errors.New("version not determined")
)

// 编解码错误
var (
	ErrFieldLength        = errors.New("field length mismatch")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrVersionMismatch    = errors.New("version marker mismatch")
	ErrNotFullyConsumed   = errors.New("buffer not fully consumed")
	ErrBodyTooLong        = errors.New("body length overflow")
	ErrBadBCD             = errors.New("invalid bcd")
	ErrBadValue           = errors.New("invalid field value")
	ErrMessageMismatch    = errors.New("message shape mismatch")
)

// 注册表错误
var (
	ErrDuplicateProtocol  = errors.New("duplicate protocol definition")
	ErrDuplicateMessage   = errors.New("duplicate message definition")
	ErrProtocolNotFound   = errors.New("protocol definition not registered")
	ErrDefinitionNotFound = errors.New("message definition not registered")
	ErrRegistryFrozen     = errors.New("registry is frozen")
	ErrUnknownCodec       = errors.New("unknown codec")
)

// DiscardKind 将丢弃原因归类，作为指标标签
func DiscardKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNoStartDelimiter), errors.Is(err, ErrFrameOverflow), errors.Is(err, ErrFrameTooShort):
		return "frame"
	case errors.Is(err, ErrUnknownEscape):
		return "escape"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, ErrUnknownMessageType), errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrVersionUndetermined):
		return "admission"
	case errors.Is(err, ErrProtocolNotFound), errors.Is(err, ErrDefinitionNotFound):
		return "registry"
	default:
		return "codec"
	}
}
