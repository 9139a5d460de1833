package tcpserver

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrConnClosed 连接已关闭
var ErrConnClosed = errors.New("connection closed")

// ErrWriteQueueTimeout 写队列满且超时
var ErrWriteQueueTimeout = errors.New("write queue timeout")

// ConnContext 为每个 TCP 连接提供读/写循环与回调能力
type ConnContext struct {
	s      *Server
	c      net.Conn
	id     uint64
	writeC chan []byte
	closed atomic.Bool
	doneC  chan struct{}

	onRead  func([]byte)
	onClose func(reason string)

	reasonMu sync.Mutex
	reason   string
}

func newConnContext(s *Server, c net.Conn) *ConnContext {
	return &ConnContext{
		s:      s,
		c:      c,
		id:     s.nextConnID.Add(1),
		writeC: make(chan []byte, 128),
		doneC:  make(chan struct{}),
	}
}

// ID 连接 ID（进程内递增）
func (cc *ConnContext) ID() uint64 { return cc.id }

func (cc *ConnContext) RemoteAddr() net.Addr { return cc.c.RemoteAddr() }

// Server 所属服务器
func (cc *ConnContext) Server() *Server { return cc.s }

// SetOnRead 安装读取回调，在读循环 goroutine 中按序调用
func (cc *ConnContext) SetOnRead(h func([]byte)) { cc.onRead = h }

// SetOnClose 连接结束回调，参数为关闭原因
func (cc *ConnContext) SetOnClose(h func(reason string)) { cc.onClose = h }

// Write 异步写入，受写队列与写超时影响
func (cc *ConnContext) Write(b []byte) error {
	if cc.closed.Load() {
		return ErrConnClosed
	}
	dup := make([]byte, len(b))
	copy(dup, b)
	to := cc.s.cfg.WriteTimeout
	if to <= 0 {
		to = 5 * time.Second
	}
	timer := time.NewTimer(to)
	defer timer.Stop()
	select {
	case cc.writeC <- dup:
		return nil
	case <-cc.doneC:
		return ErrConnClosed
	case <-timer.C:
		return ErrWriteQueueTimeout
	}
}

// Close 关闭连接
func (cc *ConnContext) Close() error { return cc.CloseWithReason("server_close") }

// CloseWithReason 关闭连接并记录原因，只有第一次调用生效
func (cc *ConnContext) CloseWithReason(reason string) error {
	if !cc.closed.CompareAndSwap(false, true) {
		return nil
	}
	cc.setReason(reason)
	return cc.c.Close()
}

// Fault 协议层判定该连接异常，计入接入熔断
func (cc *ConnContext) Fault(reason string) {
	cc.s.breaker.Failure()
	_ = cc.CloseWithReason(reason)
}

func (cc *ConnContext) setReason(r string) {
	cc.reasonMu.Lock()
	if cc.reason == "" {
		cc.reason = r
	}
	cc.reasonMu.Unlock()
}

func (cc *ConnContext) closeReason() string {
	cc.reasonMu.Lock()
	defer cc.reasonMu.Unlock()
	return cc.reason
}

// run 启动读/写循环，阻塞直至连接结束
func (cc *ConnContext) run() {
	doneW := make(chan struct{})
	go func() {
		defer close(doneW)
		for {
			select {
			case msg := <-cc.writeC:
				if cc.s.cfg.WriteTimeout > 0 {
					_ = cc.c.SetWriteDeadline(time.Now().Add(cc.s.cfg.WriteTimeout))
				}
				if _, err := cc.c.Write(msg); err != nil {
					_ = cc.CloseWithReason("write_error")
					return
				}
			case <-cc.doneC:
				return
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		if cc.s.cfg.ReadTimeout > 0 {
			_ = cc.c.SetReadDeadline(time.Now().Add(cc.s.cfg.ReadTimeout))
		}
		n, err := cc.c.Read(buf)
		if n > 0 {
			if cc.s.onRecvBytes != nil {
				cc.s.onRecvBytes(n)
			}
			if cc.onRead != nil {
				cc.onRead(buf[:n])
			}
		}
		if err != nil {
			var ne net.Error
			switch {
			case errors.As(err, &ne) && ne.Timeout():
				// 读超时视为终端失联
				cc.setReason("idle_timeout")
			case errors.Is(err, net.ErrClosed):
			default:
				cc.setReason("peer_closed")
			}
			break
		}
	}
	_ = cc.CloseWithReason("peer_closed")
	close(cc.doneC)
	<-doneW
	if cc.onClose != nil {
		cc.onClose(cc.closeReason())
	}
}

// Done 连接关闭通知通道
func (cc *ConnContext) Done() <-chan struct{} { return cc.doneC }
