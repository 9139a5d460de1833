package gateway

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/metrics"
	"github.com/taoyao-code/jt808-server/internal/protocol/jt808"
	"github.com/taoyao-code/jt808-server/internal/session"
	"github.com/taoyao-code/jt808-server/internal/storage"
	"github.com/taoyao-code/jt808-server/internal/tcpserver"
	"github.com/taoyao-code/jt808-server/internal/terminal"
)

type harness struct {
	reg  *jt808.Registry
	sess *session.Manager
	srv  *tcpserver.Server
	conn net.Conn
	// 客户端侧分帧
	split *jt808.Splitter
	queue [][]byte
}

func newHarness(t *testing.T, jcfg cfgpkg.JT808Config) *harness {
	t.Helper()
	reg, err := jt808.BuildRegistry(jt808.DefaultDefinitions())
	require.NoError(t, err)

	sess := session.New(time.Minute)
	appm := metrics.NewAppMetrics(metrics.NewRegistry())
	mgr := terminal.NewManager(storage.NewMemoryTerminalRepo(), sess, appm, nil, jcfg)

	srv := tcpserver.New(cfgpkg.TCPConfig{Addr: "127.0.0.1:0", ReadTimeout: 5 * time.Second, WriteTimeout: time.Second}, nil)
	srv.SetConnHandler(NewConnHandler(jcfg, reg, mgr, appm))
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	c, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return &harness{reg: reg, sess: sess, srv: srv, conn: c, split: jt808.NewSplitter(0)}
}

func (h *harness) send(t *testing.T, m jt808.Message) {
	t.Helper()
	b, err := jt808.EncodeFrame(h.reg, jt808.DefaultProtocolName, m)
	require.NoError(t, err)
	_, err = h.conn.Write(b)
	require.NoError(t, err)
}

// recv 读取下一帧并按给定版本解码
func (h *harness) recv(t *testing.T, v jt808.Version, typ jt808.MessageType) jt808.Message {
	t.Helper()
	buf := make([]byte, 512)
	_ = h.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(h.queue) == 0 {
		n, err := h.conn.Read(buf)
		require.NoError(t, err)
		for _, f := range h.split.Feed(buf[:n]) {
			require.NoError(t, f.Err)
			h.queue = append(h.queue, f.Raw)
		}
	}
	raw, err := jt808.Unescape(h.queue[0])
	h.queue = h.queue[1:]
	require.NoError(t, err)
	require.NoError(t, jt808.VerifyFrameBCC(raw))
	m, err := jt808.DecodeFrame(h.reg, jt808.ProtocolKey{Name: jt808.DefaultProtocolName, Version: v}, typ, raw)
	require.NoError(t, err)
	return m
}

func TestConnHandlerLoginFlow(t *testing.T) {
	h := newHarness(t, cfgpkg.JT808Config{StrictAuth: true, AuthKeyLength: 12, MaxDiscardCount: 10, MaxFrameLength: 2048})
	const phone = "13800138000"

	h.send(t, &jt808.TerminalRegisterMsg{
		Header:         jt808.Header{Version: jt808.V2013, PhoneNumber: phone, SerialNum: 5},
		ProvinceID:     44,
		CityID:         300,
		ManufacturerID: "ABCDE",
		TerminalModel:  "MODEL-2013",
		TerminalID:     "T01",
		PlateColor:     jt808.PlateColorYellow,
		PlateNumber:    "沪B99999",
	})
	resp := h.recv(t, jt808.V2013, jt808.TerminalRegisterResp).(*jt808.TerminalRegisterRespMsg)
	assert.Equal(t, jt808.RegisterSuccess, resp.Result)
	assert.Equal(t, uint16(5), resp.RespSerialNum)
	assert.Equal(t, uint16(1), resp.SerialNum)
	assert.Equal(t, phone, resp.PhoneNumber)
	require.Len(t, resp.AuthKey, 12)

	h.send(t, &jt808.TerminalAuthMsg{
		Header:  jt808.Header{Version: jt808.V2013, PhoneNumber: phone, SerialNum: 6},
		AuthKey: resp.AuthKey,
	})
	ack := h.recv(t, jt808.V2013, jt808.PlatformGenericResp).(*jt808.PlatformGenericRespMsg)
	assert.Equal(t, jt808.GenericSuccess, ack.Result)
	assert.Equal(t, jt808.TerminalAuth, ack.RespType)
	assert.Equal(t, uint16(2), ack.SerialNum)
	_, bound := h.sess.GetConn(phone)
	assert.True(t, bound)

	h.send(t, &jt808.TerminalHeartbeatMsg{Header: jt808.Header{Version: jt808.V2013, PhoneNumber: phone, SerialNum: 7}})
	ack = h.recv(t, jt808.V2013, jt808.PlatformGenericResp).(*jt808.PlatformGenericRespMsg)
	assert.Equal(t, jt808.TerminalHeartbeat, ack.RespType)
	assert.Equal(t, uint16(7), ack.RespSerialNum)

	require.NoError(t, h.conn.Close())
	assert.Eventually(t, func() bool {
		_, ok := h.sess.GetConn(phone)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnHandlerDiscardLimit(t *testing.T) {
	h := newHarness(t, cfgpkg.JT808Config{StrictAuth: true, AuthKeyLength: 12, MaxDiscardCount: 3, MaxFrameLength: 2048})

	// 未鉴权心跳：准入阶段丢弃，不应答
	hb := &jt808.TerminalHeartbeatMsg{Header: jt808.Header{Version: jt808.V2013, PhoneNumber: "13800138000"}}
	for range 3 {
		h.send(t, hb)
	}

	buf := make([]byte, 64)
	_ = h.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, err := h.conn.Read(buf)
	assert.Error(t, err, "connection should be closed by server")
	assert.Equal(t, 1, h.srv.GetCircuitBreakerStats().Failures)
}
