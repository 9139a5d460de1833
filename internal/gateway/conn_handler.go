package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/logging"
	"github.com/taoyao-code/jt808-server/internal/metrics"
	"github.com/taoyao-code/jt808-server/internal/protocol/jt808"
	"github.com/taoyao-code/jt808-server/internal/tcpserver"
	"github.com/taoyao-code/jt808-server/internal/terminal"
)

// 单条消息业务处理超时
const handleTimeout = 5 * time.Second

// ReasonDiscardLimit 丢弃帧过多导致的断开
const ReasonDiscardLimit = "discard_limit"

// NewConnHandler 构建 TCP 连接处理器：每个连接独立的解码流水线与协议会话，
// 成功帧交给终端业务路由，应答按会话版本编码后下发。
// appm 可为 nil
func NewConnHandler(
	cfg cfgpkg.JT808Config,
	reg *jt808.Registry,
	mgr *terminal.Manager,
	appm *metrics.AppMetrics,
) func(*tcpserver.ConnContext) {
	return func(cc *tcpserver.ConnContext) {
		log := zap.NewNop()
		if cc.Server() != nil && cc.Server().GetLogger() != nil {
			log = cc.Server().GetLogger()
		}
		remote := cc.RemoteAddr().String()
		log = log.With(zap.Uint64("conn_id", cc.ID()), zap.String("remote", remote))

		sess := jt808.NewSession()
		dec := jt808.NewDecoder(reg, sess,
			jt808.WithMaxFrameLength(cfg.MaxFrameLength),
			jt808.WithProtocolName(cfg.ProtocolName),
		)
		peer := &terminal.Peer{Session: sess, Conn: cc, RemoteAddr: remote}
		router := mgr.Routes(peer)
		protocol := cfg.ProtocolName
		if protocol == "" {
			protocol = jt808.DefaultProtocolName
		}

		send := func(m jt808.Message) {
			h := m.MessageHeader()
			h.Version, _ = sess.Version()
			h.SerialNum = sess.NextSerial()
			b, err := jt808.EncodeFrame(reg, protocol, m)
			if err != nil {
				log.Error("encode reply failed", zap.Stringer("type", m.MessageType()), zap.Error(err))
				return
			}
			if err := cc.Write(b); err != nil {
				log.Warn("write reply failed", zap.Stringer("type", m.MessageType()), zap.Error(err))
				return
			}
			if appm != nil {
				appm.MessageTotal.WithLabelValues(m.MessageType().String(), metrics.DirectionDown).Inc()
			}
		}

		handle := func(m jt808.Message) {
			if appm != nil {
				appm.FramesTotal.WithLabelValues("ok").Inc()
				appm.MessageTotal.WithLabelValues(m.MessageType().String(), metrics.DirectionUp).Inc()
			}
			ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
			defer cancel()
			replies, err := router.Route(ctx, m)
			if err != nil {
				log.Error("handle message failed",
					zap.Stringer("type", m.MessageType()),
					zap.String("phone", m.MessageHeader().PhoneNumber),
					zap.Error(err),
				)
				return
			}
			for _, r := range replies {
				send(r)
			}
		}

		discards := 0
		// 返回 false 表示连接已因丢弃过多被关闭
		discard := func(f *jt808.Frame) bool {
			kind := jt808.DiscardKind(f.Err)
			log.Info("frame discarded",
				zap.String("kind", kind),
				zap.Error(f.Err),
				logging.HexDump("frame", f.Raw),
			)
			if appm != nil {
				appm.FramesTotal.WithLabelValues("discard").Inc()
				appm.DiscardTotal.WithLabelValues(kind).Inc()
			}
			discards++
			if cfg.MaxDiscardCount > 0 && discards >= cfg.MaxDiscardCount {
				log.Warn("too many discarded frames, closing", zap.Int("discards", discards))
				cc.Fault(ReasonDiscardLimit)
				return false
			}
			return true
		}

		cc.SetOnRead(func(b []byte) {
			for _, f := range dec.Feed(b) {
				if f.Discarded() {
					if !discard(f) {
						return
					}
					continue
				}
				handle(f.Message)
			}
		})

		cc.SetOnClose(func(reason string) {
			mgr.Disconnected(peer)
			if appm != nil {
				appm.ConnClosedTotal.WithLabelValues(reason).Inc()
			}
			log.Debug("connection closed", zap.String("reason", reason), zap.String("phone", sess.Phone()))
		})
	}
}
