package tcpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
)

// 接入拒绝原因，作为指标标签
const (
	RejectLimit   = "limit"
	RejectRate    = "rate"
	RejectBreaker = "breaker"
)

// Server TCP 网关：每个连接一个读循环 goroutine 与一个写 goroutine
type Server struct {
	cfg        cfgpkg.TCPConfig
	log        *zap.Logger
	ln         net.Listener
	wg         sync.WaitGroup
	stopC      chan struct{}
	stopOnce   sync.Once
	nextConnID atomic.Uint64

	slots   *connSlots
	rate    *acceptRate
	breaker *CircuitBreaker

	connsMu sync.Mutex
	conns   map[uint64]*ConnContext

	handler func(*ConnContext)
	// 可选指标回调
	onAccept    func()
	onRecvBytes func(n int)
	onReject    func(reason string)
}

// New 创建 TCP 网关
func New(cfg cfgpkg.TCPConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		log:     log,
		stopC:   make(chan struct{}),
		slots:   newConnSlots(cfg.MaxConnections),
		rate:    newAcceptRate(cfg.AcceptRate, cfg.AcceptBurst),
		breaker: NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout),
		conns:   make(map[uint64]*ConnContext),
	}
}

// SetConnHandler 新连接回调，在读循环启动前调用，用于安装 OnRead/OnClose
func (s *Server) SetConnHandler(h func(*ConnContext)) { s.handler = h }

// SetMetricsCallbacks 设置指标回调
func (s *Server) SetMetricsCallbacks(onAccept func(), onRecvBytes func(int), onReject func(string)) {
	s.onAccept, s.onRecvBytes, s.onReject = onAccept, onRecvBytes, onReject
}

// GetLogger 服务器日志器
func (s *Server) GetLogger() *zap.Logger { return s.log }

// Addr 实际监听地址，未启动返回 nil
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start 监听并接受连接（非阻塞，内部 goroutine）
func (s *Server) Start() error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.log.Info("tcp server listening", zap.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopC:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.breaker.Failure()
			s.log.Warn("tcp accept failed", zap.Error(err))
			// 短暂错误等待后重试
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if reason, ok := s.admit(); !ok {
			s.reject(conn, reason)
			continue
		}
		s.breaker.Success()
		if s.onAccept != nil {
			s.onAccept()
		}

		cc := newConnContext(s, conn)
		s.track(cc)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(cc)
			if s.handler != nil {
				s.handler(cc)
			}
			cc.run()
		}()
	}
}

// admit 依次检查熔断、速率、并发配额
func (s *Server) admit() (string, bool) {
	if err := s.breaker.Allow(); err != nil {
		return RejectBreaker, false
	}
	if !s.rate.Allow() {
		return RejectRate, false
	}
	if !s.slots.TryAcquire() {
		return RejectLimit, false
	}
	return "", true
}

func (s *Server) reject(conn net.Conn, reason string) {
	s.log.Debug("tcp connection rejected",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.String("reason", reason))
	_ = conn.Close()
	if s.onReject != nil {
		s.onReject(reason)
	}
}

func (s *Server) track(cc *ConnContext) {
	s.connsMu.Lock()
	s.conns[cc.id] = cc
	s.connsMu.Unlock()
}

func (s *Server) untrack(cc *ConnContext) {
	s.connsMu.Lock()
	delete(s.conns, cc.id)
	s.connsMu.Unlock()
	s.slots.Release()
}

// ActiveConnections 当前连接数
func (s *Server) ActiveConnections() int { return int(s.slots.active.Load()) }

// MaxConnections 最大连接数
func (s *Server) MaxConnections() int { return int(s.slots.max) }

// GetLimiterStats 连接配额统计
func (s *Server) GetLimiterStats() LimiterStats { return s.slots.Stats() }

// GetRateLimiterStats 接入速率统计
func (s *Server) GetRateLimiterStats() RateLimiterStats { return s.rate.Stats() }

// GetCircuitBreakerStats 熔断器统计
func (s *Server) GetCircuitBreakerStats() CircuitBreakerStats { return s.breaker.Stats() }

// Shutdown 关闭监听与全部连接，等待 goroutine 退出
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopC) })
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.connsMu.Lock()
	for _, cc := range s.conns {
		_ = cc.CloseWithReason("shutdown")
	}
	s.connsMu.Unlock()

	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}
