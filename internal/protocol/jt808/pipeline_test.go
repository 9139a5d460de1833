package jt808

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderLoginFlow(t *testing.T) {
	reg := mustRegistry(t)
	dec := NewDecoder(reg, NewSession())

	t.Run("未鉴权心跳被丢弃", func(t *testing.T) {
		hb := mustEncode(t, reg, &TerminalHeartbeatMsg{Header: Header{Version: V2013, PhoneNumber: "13800138000"}})
		frames := dec.Feed(hb)
		require.Len(t, frames, 1)
		assert.ErrorIs(t, frames[0].Err, ErrNotAuthenticated)
		assert.Equal(t, "admission", DiscardKind(frames[0].Err))
	})

	t.Run("注册确定版本", func(t *testing.T) {
		frames := dec.Feed(mustEncode(t, reg, registerSamples()[V2013]))
		require.Len(t, frames, 1)
		require.NoError(t, frames[0].Err)
		m, ok := frames[0].Message.(*TerminalRegisterMsg)
		require.True(t, ok)
		assert.Equal(t, "沪B99999", m.PlateNumber)
		v, _ := dec.Session().Version()
		assert.Equal(t, V2013, v)
	})

	t.Run("鉴权沿用会话版本", func(t *testing.T) {
		auth := &TerminalAuthMsg{Header: Header{Version: V2013, PhoneNumber: "13800138000", SerialNum: 3}, AuthKey: "KEY"}
		frames := dec.Feed(mustEncode(t, reg, auth))
		require.Len(t, frames, 1)
		require.NoError(t, frames[0].Err)
		assert.Equal(t, TerminalAuth, frames[0].Type)
		assert.Equal(t, "KEY", frames[0].Message.(*TerminalAuthMsg).AuthKey)
	})

	dec.Session().SetAuthenticated(true)

	t.Run("鉴权后心跳放行", func(t *testing.T) {
		hb := mustEncode(t, reg, &TerminalHeartbeatMsg{Header: Header{Version: V2013, PhoneNumber: "13800138000", SerialNum: 4}})
		frames := dec.Feed(hb)
		require.Len(t, frames, 1)
		require.NoError(t, frames[0].Err)
		assert.Equal(t, uint16(4), frames[0].Message.MessageHeader().SerialNum)
	})

	t.Run("未配置编解码器的已知类型", func(t *testing.T) {
		content := []byte{0x02, 0x00, 0x00, 0x00, 0x01, 0x38, 0x00, 0x13, 0x80, 0x00, 0x00, 0x05}
		frames := dec.Feed(frameOf(content))
		require.Len(t, frames, 1)
		assert.ErrorIs(t, frames[0].Err, ErrDefinitionNotFound)
		assert.Equal(t, "registry", DiscardKind(frames[0].Err))
	})
}

func TestDecoderDiscards(t *testing.T) {
	reg := mustRegistry(t)

	t.Run("校验码错误", func(t *testing.T) {
		frame := frameOf(mustHex(t, authV2019Hex))
		frame[len(frame)-2] ^= 0x01
		frames := NewDecoder(reg, NewSession()).Feed(frame)
		require.Len(t, frames, 1)
		assert.ErrorIs(t, frames[0].Err, ErrChecksumMismatch)
		assert.Equal(t, "checksum", DiscardKind(frames[0].Err))
	})

	t.Run("非法转义", func(t *testing.T) {
		frames := NewDecoder(reg, NewSession()).Feed([]byte{0x7e, 0x01, 0x02, 0x7d, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x7e})
		require.Len(t, frames, 1)
		assert.ErrorIs(t, frames[0].Err, ErrUnknownEscape)
		assert.Equal(t, "escape", DiscardKind(frames[0].Err))
	})

	t.Run("首个错误保留", func(t *testing.T) {
		frames := NewDecoder(reg, NewSession()).Feed([]byte{0x7e, 0x7d, 0x05, 0x7e})
		require.Len(t, frames, 1)
		assert.ErrorIs(t, frames[0].Err, ErrFrameTooShort)
	})

	t.Run("丢弃后继续处理", func(t *testing.T) {
		bad := frameOf(mustHex(t, authV2019Hex))
		bad[len(bad)-2] ^= 0x01
		good := frameOf(mustHex(t, authV2019Hex))
		frames := NewDecoder(reg, NewSession()).Feed(append(bad, good...))
		require.Len(t, frames, 2)
		assert.True(t, frames[0].Discarded())
		require.NoError(t, frames[1].Err)
		assert.Equal(t, "OBD", frames[1].Message.(*TerminalAuthMsg).AuthKey)
	})
}

func TestDecoderWithMaxFrameLength(t *testing.T) {
	dec := NewDecoder(mustRegistry(t), NewSession(), WithMaxFrameLength(16))
	frames := dec.Feed(frameOf(mustHex(t, authV2019Hex)))
	require.NotEmpty(t, frames)
	assert.ErrorIs(t, frames[0].Err, ErrFrameOverflow)
	assert.Equal(t, "frame", DiscardKind(frames[0].Err))
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	var seen []MessageType
	r.Register(TerminalHeartbeat, func(_ context.Context, m Message) ([]Message, error) {
		seen = append(seen, m.MessageType())
		h := m.MessageHeader()
		return []Message{&PlatformGenericRespMsg{
			Header:     Header{Version: h.Version, PhoneNumber: h.PhoneNumber},
			GenericAck: GenericAck{RespSerialNum: h.SerialNum, RespType: TerminalHeartbeat},
		}}, nil
	})

	out, err := r.Route(context.Background(), &TerminalHeartbeatMsg{Header: Header{Version: V2019, PhoneNumber: "1", SerialNum: 8}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	ack := out[0].(*PlatformGenericRespMsg)
	assert.Equal(t, uint16(8), ack.RespSerialNum)

	out, err = r.Route(context.Background(), &TerminalLogoutMsg{})
	assert.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, []MessageType{TerminalHeartbeat}, seen)
}
