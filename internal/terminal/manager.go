// Package terminal 终端注册、鉴权、心跳与注销的业务处理
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/metrics"
	"github.com/taoyao-code/jt808-server/internal/protocol/jt808"
	"github.com/taoyao-code/jt808-server/internal/session"
	"github.com/taoyao-code/jt808-server/internal/storage"
	"github.com/taoyao-code/jt808-server/internal/storage/models"
)

// Peer 单个连接的处理上下文
type Peer struct {
	Session    *jt808.Session
	Conn       any // 绑定到会话管理器的连接对象
	RemoteAddr string
}

// Manager 终端业务处理器，所有连接共用
type Manager struct {
	repo       storage.TerminalRepo
	sessions   session.SessionManager
	appm       *metrics.AppMetrics
	log        *zap.Logger
	strictAuth bool
	keyLength  int
	now        func() time.Time
}

func NewManager(repo storage.TerminalRepo, sessions session.SessionManager, appm *metrics.AppMetrics, log *zap.Logger, cfg cfgpkg.JT808Config) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	keyLength := cfg.AuthKeyLength
	if keyLength <= 0 {
		keyLength = 16
	}
	return &Manager{
		repo:       repo,
		sessions:   sessions,
		appm:       appm,
		log:        log,
		strictAuth: cfg.StrictAuth,
		keyLength:  keyLength,
		now:        time.Now,
	}
}

// Routes 为连接构建消息路由
func (m *Manager) Routes(p *Peer) *jt808.Router {
	r := jt808.NewRouter()
	r.Register(jt808.TerminalRegister, func(ctx context.Context, msg jt808.Message) ([]jt808.Message, error) {
		return m.handleRegister(ctx, p, msg.(*jt808.TerminalRegisterMsg))
	})
	r.Register(jt808.TerminalAuth, func(ctx context.Context, msg jt808.Message) ([]jt808.Message, error) {
		return m.handleAuth(ctx, p, msg.(*jt808.TerminalAuthMsg))
	})
	r.Register(jt808.TerminalHeartbeat, func(_ context.Context, msg jt808.Message) ([]jt808.Message, error) {
		return m.handleHeartbeat(msg.(*jt808.TerminalHeartbeatMsg))
	})
	r.Register(jt808.TerminalLogout, func(ctx context.Context, msg jt808.Message) ([]jt808.Message, error) {
		return m.handleLogout(ctx, p, msg.(*jt808.TerminalLogoutMsg))
	})
	r.Register(jt808.TerminalGenericResp, func(_ context.Context, msg jt808.Message) ([]jt808.Message, error) {
		ack := msg.(*jt808.TerminalGenericRespMsg)
		m.log.Debug("terminal ack",
			zap.String("phone", ack.PhoneNumber),
			zap.Uint16("resp_serial", ack.RespSerialNum),
			zap.String("resp_type", ack.RespType.Hex()),
			zap.Uint8("result", uint8(ack.Result)),
		)
		return nil, nil
	})
	return r
}

// Disconnected 连接关闭；终端已在其他连接上鉴权时不处理
func (m *Manager) Disconnected(p *Peer) {
	phone := p.Session.Phone()
	if phone == "" {
		return
	}
	if cur, ok := m.sessions.GetConn(phone); !ok || cur != p.Conn {
		return
	}
	now := m.now()
	m.sessions.OnTCPClosed(phone, now)
	m.refreshOnline(now)
}

func (m *Manager) handleRegister(ctx context.Context, p *Peer, msg *jt808.TerminalRegisterMsg) ([]jt808.Message, error) {
	resp := &jt808.TerminalRegisterRespMsg{
		Header:        jt808.Header{PhoneNumber: msg.PhoneNumber},
		RespSerialNum: msg.SerialNum,
	}

	plate, vin := msg.PlateNumber, ""
	if msg.PlateColor == jt808.PlateColorNone {
		plate, vin = "", msg.VIN
	}
	owner, err := m.repo.FindByVehicle(ctx, plate, vin)
	switch {
	case err == nil && owner.Phone != msg.PhoneNumber:
		m.log.Warn("vehicle registered by another terminal",
			zap.String("phone", msg.PhoneNumber),
			zap.String("owner", owner.Phone),
			zap.String("plate", plate),
			zap.String("vin", vin),
		)
		resp.Result = jt808.RegisterCarAlreadyRegistered
		return []jt808.Message{resp}, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("find vehicle: %w", err)
	}

	key := newAuthKey(m.keyLength)
	rec := &models.Terminal{
		Phone:           msg.PhoneNumber,
		ProtocolVersion: msg.Version.String(),
		ProvinceID:      int(msg.ProvinceID),
		CityID:          int(msg.CityID),
		ManufacturerID:  msg.ManufacturerID,
		TerminalModel:   msg.TerminalModel,
		TerminalID:      msg.TerminalID,
		PlateColor:      int16(msg.PlateColor),
		PlateNumber:     msg.PlateNumber,
		VIN:             msg.VIN,
		AuthKey:         key,
		RegisteredAt:    m.now(),
	}
	if err := m.repo.SaveRegistration(ctx, rec); err != nil {
		return nil, fmt.Errorf("save registration: %w", err)
	}
	// 重新注册使旧鉴权失效
	p.Session.SetAuthenticated(false)

	m.log.Info("terminal registered",
		zap.String("phone", msg.PhoneNumber),
		zap.Stringer("version", msg.Version),
		zap.String("remote", p.RemoteAddr),
	)
	resp.Result = jt808.RegisterSuccess
	resp.AuthKey = key
	return []jt808.Message{resp}, nil
}

func (m *Manager) handleAuth(ctx context.Context, p *Peer, msg *jt808.TerminalAuthMsg) ([]jt808.Message, error) {
	phone := msg.PhoneNumber
	rec, err := m.repo.GetTerminal(ctx, phone)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get terminal: %w", err)
	}

	if m.strictAuth {
		if rec == nil || rec.AuthKey != msg.AuthKey {
			p.Session.SetAuthenticated(false)
			m.log.Warn("terminal auth rejected",
				zap.String("phone", phone),
				zap.Bool("registered", rec != nil),
				zap.String("remote", p.RemoteAddr),
			)
			return []jt808.Message{genericAck(msg, jt808.GenericFailure)}, nil
		}
	}

	now := m.now()
	if rec != nil {
		if err := m.repo.MarkAuthenticated(ctx, phone, msg.IMEI, msg.SoftwareVersion, now); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("mark authenticated: %w", err)
		}
	}

	p.Session.SetAuthenticated(true)
	p.Session.SetPhone(phone)
	m.sessions.Bind(phone, p.Conn, session.Meta{Version: msg.Version.String(), RemoteAddr: p.RemoteAddr})
	m.sessions.OnHeartbeat(phone, now)
	m.refreshOnline(now)

	m.log.Info("terminal authenticated",
		zap.String("phone", phone),
		zap.Stringer("version", msg.Version),
		zap.String("remote", p.RemoteAddr),
	)
	return []jt808.Message{genericAck(msg, jt808.GenericSuccess)}, nil
}

func (m *Manager) handleHeartbeat(msg *jt808.TerminalHeartbeatMsg) ([]jt808.Message, error) {
	now := m.now()
	m.sessions.OnHeartbeat(msg.PhoneNumber, now)
	if m.appm != nil {
		m.appm.HeartbeatTotal.Inc()
	}
	m.refreshOnline(now)
	return []jt808.Message{genericAck(msg, jt808.GenericSuccess)}, nil
}

func (m *Manager) handleLogout(ctx context.Context, p *Peer, msg *jt808.TerminalLogoutMsg) ([]jt808.Message, error) {
	phone := msg.PhoneNumber
	if err := m.repo.DeleteTerminal(ctx, phone); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("delete terminal: %w", err)
	}
	m.sessions.Unbind(phone, p.Conn)
	p.Session.SetAuthenticated(false)
	p.Session.SetPhone("")
	m.refreshOnline(m.now())

	m.log.Info("terminal logout", zap.String("phone", phone), zap.String("remote", p.RemoteAddr))
	return []jt808.Message{genericAck(msg, jt808.GenericSuccess)}, nil
}

func (m *Manager) refreshOnline(now time.Time) {
	if m.appm != nil {
		m.appm.OnlineGauge.Set(float64(m.sessions.OnlineCount(now)))
	}
}

// genericAck 平台通用应答，版本与流水号由下发方填写
func genericAck(req jt808.Message, result jt808.GenericResult) *jt808.PlatformGenericRespMsg {
	h := req.MessageHeader()
	return &jt808.PlatformGenericRespMsg{
		Header: jt808.Header{PhoneNumber: h.PhoneNumber},
		GenericAck: jt808.GenericAck{
			RespSerialNum: h.SerialNum,
			RespType:      req.MessageType(),
			Result:        result,
		},
	}
}

// newAuthKey 生成指定长度的十六进制鉴权码
func newAuthKey(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()[:n]
}
