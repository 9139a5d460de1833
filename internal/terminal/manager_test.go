package terminal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/metrics"
	"github.com/taoyao-code/jt808-server/internal/protocol/jt808"
	"github.com/taoyao-code/jt808-server/internal/session"
	"github.com/taoyao-code/jt808-server/internal/storage"
)

type fixture struct {
	m     *Manager
	repo  *storage.MemoryTerminalRepo
	sess  *session.Manager
	peer  *Peer
	route *jt808.Router
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	repo := storage.NewMemoryTerminalRepo()
	sess := session.New(time.Minute)
	m := NewManager(repo, sess, metrics.NewAppMetrics(metrics.NewRegistry()), nil, cfgpkg.JT808Config{
		StrictAuth:    strict,
		AuthKeyLength: 20,
	})
	peer := &Peer{Session: jt808.NewSession(), Conn: "conn-1", RemoteAddr: "10.0.0.1:5000"}
	return &fixture{m: m, repo: repo, sess: sess, peer: peer, route: m.Routes(peer)}
}

func (f *fixture) one(t *testing.T, msg jt808.Message) jt808.Message {
	t.Helper()
	out, err := f.route.Route(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func registerMsg(phone, plate string, serial uint16) *jt808.TerminalRegisterMsg {
	return &jt808.TerminalRegisterMsg{
		Header:         jt808.Header{Version: jt808.V2013, PhoneNumber: phone, SerialNum: serial},
		ProvinceID:     31,
		CityID:         100,
		ManufacturerID: "M0001",
		TerminalModel:  "OBD",
		TerminalID:     "T0001",
		PlateColor:     jt808.PlateColorBlue,
		PlateNumber:    plate,
	}
}

func TestRegisterAuthHeartbeatLogout(t *testing.T) {
	f := newFixture(t, true)
	const phone = "13800138000"

	resp := f.one(t, registerMsg(phone, "京A12345", 7)).(*jt808.TerminalRegisterRespMsg)
	assert.Equal(t, jt808.RegisterSuccess, resp.Result)
	assert.Equal(t, uint16(7), resp.RespSerialNum)
	assert.Equal(t, phone, resp.PhoneNumber)
	require.Len(t, resp.AuthKey, 20)

	rec, err := f.repo.GetTerminal(context.Background(), phone)
	require.NoError(t, err)
	assert.Equal(t, resp.AuthKey, rec.AuthKey)
	assert.Equal(t, "V2013", rec.ProtocolVersion)
	assert.False(t, f.peer.Session.Authenticated())

	t.Run("鉴权码错误", func(t *testing.T) {
		ack := f.one(t, &jt808.TerminalAuthMsg{
			Header:  jt808.Header{Version: jt808.V2013, PhoneNumber: phone, SerialNum: 8},
			AuthKey: "wrong",
		}).(*jt808.PlatformGenericRespMsg)
		assert.Equal(t, jt808.GenericFailure, ack.Result)
		assert.Equal(t, jt808.TerminalAuth, ack.RespType)
		assert.False(t, f.peer.Session.Authenticated())
		_, bound := f.sess.GetConn(phone)
		assert.False(t, bound)
	})

	t.Run("鉴权成功", func(t *testing.T) {
		ack := f.one(t, &jt808.TerminalAuthMsg{
			Header:  jt808.Header{Version: jt808.V2013, PhoneNumber: phone, SerialNum: 9},
			AuthKey: resp.AuthKey,
		}).(*jt808.PlatformGenericRespMsg)
		assert.Equal(t, jt808.GenericSuccess, ack.Result)
		assert.Equal(t, uint16(9), ack.RespSerialNum)
		assert.True(t, f.peer.Session.Authenticated())
		assert.Equal(t, phone, f.peer.Session.Phone())

		conn, ok := f.sess.GetConn(phone)
		require.True(t, ok)
		assert.Equal(t, "conn-1", conn)
		info, ok := f.sess.Get(phone)
		require.True(t, ok)
		assert.Equal(t, "V2013", info.Version)
		assert.Equal(t, "10.0.0.1:5000", info.RemoteAddr)
	})

	t.Run("心跳", func(t *testing.T) {
		ack := f.one(t, &jt808.TerminalHeartbeatMsg{
			Header: jt808.Header{Version: jt808.V2013, PhoneNumber: phone, SerialNum: 10},
		}).(*jt808.PlatformGenericRespMsg)
		assert.Equal(t, jt808.TerminalHeartbeat, ack.RespType)
		assert.True(t, f.sess.IsOnline(phone, time.Now()))
	})

	t.Run("注销", func(t *testing.T) {
		ack := f.one(t, &jt808.TerminalLogoutMsg{
			Header: jt808.Header{Version: jt808.V2013, PhoneNumber: phone, SerialNum: 11},
		}).(*jt808.PlatformGenericRespMsg)
		assert.Equal(t, jt808.GenericSuccess, ack.Result)
		assert.False(t, f.peer.Session.Authenticated())
		_, err := f.repo.GetTerminal(context.Background(), phone)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, bound := f.sess.GetConn(phone)
		assert.False(t, bound)
	})
}

func TestRegisterVehicleTaken(t *testing.T) {
	f := newFixture(t, true)
	first := f.one(t, registerMsg("13800138000", "京A12345", 1)).(*jt808.TerminalRegisterRespMsg)
	require.Equal(t, jt808.RegisterSuccess, first.Result)

	// 同一终端重新注册换发鉴权码
	again := f.one(t, registerMsg("13800138000", "京A12345", 2)).(*jt808.TerminalRegisterRespMsg)
	assert.Equal(t, jt808.RegisterSuccess, again.Result)
	assert.NotEqual(t, first.AuthKey, again.AuthKey)

	other := f.one(t, registerMsg("13900139000", "京A12345", 3)).(*jt808.TerminalRegisterRespMsg)
	assert.Equal(t, jt808.RegisterCarAlreadyRegistered, other.Result)
	assert.Empty(t, other.AuthKey)
	_, err := f.repo.GetTerminal(context.Background(), "13900139000")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAuthNonStrict(t *testing.T) {
	f := newFixture(t, false)
	ack := f.one(t, &jt808.TerminalAuthMsg{
		Header:  jt808.Header{Version: jt808.V2019, PhoneNumber: "17355012222", SerialNum: 1},
		AuthKey: "anything",
	}).(*jt808.PlatformGenericRespMsg)
	assert.Equal(t, jt808.GenericSuccess, ack.Result)
	assert.True(t, f.peer.Session.Authenticated())
}

func TestDisconnectedUnbindsOwnConnOnly(t *testing.T) {
	f := newFixture(t, false)
	const phone = "17355012222"
	f.one(t, &jt808.TerminalAuthMsg{Header: jt808.Header{Version: jt808.V2019, PhoneNumber: phone}})

	// 终端已在新连接上重新鉴权
	f.sess.Bind(phone, "conn-2", session.Meta{Version: "V2019"})
	f.m.Disconnected(f.peer)
	conn, ok := f.sess.GetConn(phone)
	require.True(t, ok)
	assert.Equal(t, "conn-2", conn)

	f.sess.Bind(phone, "conn-1", session.Meta{Version: "V2019"})
	f.m.Disconnected(f.peer)
	_, ok = f.sess.GetConn(phone)
	assert.False(t, ok)
	info, ok := f.sess.Get(phone)
	require.True(t, ok)
	assert.False(t, info.LastClosed.IsZero())
}

func TestNewAuthKey(t *testing.T) {
	for _, n := range []int{1, 16, 32, 33, 255} {
		assert.Len(t, newAuthKey(n), n)
	}
}
