package tcpserver

import "sync/atomic"

// connSlots 并发连接配额，接入循环中非阻塞获取
type connSlots struct {
	max      int64
	active   atomic.Int64
	rejected atomic.Int64
}

func newConnSlots(maxConn int) *connSlots {
	if maxConn <= 0 {
		maxConn = 10000
	}
	return &connSlots{max: int64(maxConn)}
}

// TryAcquire 占用一个配额，已满返回 false
func (l *connSlots) TryAcquire() bool {
	for {
		cur := l.active.Load()
		if cur >= l.max {
			l.rejected.Add(1)
			return false
		}
		if l.active.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Release 归还配额
func (l *connSlots) Release() {
	if l.active.Add(-1) < 0 {
		l.active.Store(0)
	}
}

func (l *connSlots) Stats() LimiterStats {
	active := l.active.Load()
	return LimiterStats{
		MaxConnections:    int(l.max),
		ActiveConnections: int(active),
		RejectedTotal:     l.rejected.Load(),
		Utilization:       float64(active) / float64(l.max),
	}
}

// LimiterStats 连接配额统计
type LimiterStats struct {
	MaxConnections    int     `json:"max_connections"`
	ActiveConnections int     `json:"active_connections"`
	RejectedTotal     int64   `json:"rejected_total"`
	Utilization       float64 `json:"utilization"` // 0.0 - 1.0
}
