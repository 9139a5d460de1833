package jt808

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFrame 构造指定总长、指定消息 ID 的帧（准入只看长度与类型）
func rawFrame(t MessageType, total int) *Frame {
	raw := make([]byte, total)
	raw[0], raw[total-1] = Delimiter, Delimiter
	raw[1], raw[2] = byte(t>>8), byte(t)
	return &Frame{Raw: raw}
}

func TestAdmitRegisterVersionInference(t *testing.T) {
	tests := []struct {
		length int
		want   Version
	}{
		{45, V2011},
		{49, V2011},
		{50, V2013},
		{70, V2013},
		{89, V2013},
		{90, V2019},
		{120, V2019},
	}
	for _, tt := range tests {
		sess := NewSession()
		f := rawFrame(TerminalRegister, tt.length)
		require.NoError(t, Admit(sess, f))
		v, ok := sess.Version()
		require.True(t, ok)
		assert.Equal(t, tt.want, v, "length %d", tt.length)
		assert.Equal(t, TerminalRegister, f.Type)
	}
}

func TestAdmitAuthVersion(t *testing.T) {
	t.Run("无会话版本按长度推断", func(t *testing.T) {
		sess := NewSession()
		require.NoError(t, Admit(sess, rawFrame(TerminalAuth, 50)))
		v, _ := sess.Version()
		assert.Equal(t, V2013, v)

		sess = NewSession()
		require.NoError(t, Admit(sess, rawFrame(TerminalAuth, 51)))
		v, _ = sess.Version()
		assert.Equal(t, V2019, v)
	})

	t.Run("沿用注册时的版本", func(t *testing.T) {
		sess := NewSession()
		require.NoError(t, Admit(sess, rawFrame(TerminalRegister, 45)))
		require.NoError(t, Admit(sess, rawFrame(TerminalAuth, 80)))
		v, _ := sess.Version()
		assert.Equal(t, V2011, v)
	})
}

func TestAdmitUnknownType(t *testing.T) {
	err := Admit(NewSession(), rawFrame(MessageType(0x0f0f), 20))
	assert.ErrorIs(t, err, ErrUnknownMessageType)
	assert.Contains(t, err.Error(), "unknown message type 0x0f0f")
}

func TestAdmitLoginGate(t *testing.T) {
	sess := NewSession()
	f := rawFrame(TerminalHeartbeat, 20)
	err := Admit(sess, f)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	sess.SetAuthenticated(true)
	f = rawFrame(TerminalHeartbeat, 20)
	before := append([]byte(nil), f.Raw...)
	require.NoError(t, Admit(sess, f))
	assert.Equal(t, before, f.Raw)
	assert.Equal(t, TerminalHeartbeat, f.Type)
}
