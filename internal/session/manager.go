package session

import (
	"sync"
	"time"
)

type entry struct {
	info Info
	conn any
}

// Manager 单实例内存会话管理
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry // phone -> entry
	timeout time.Duration
}

func New(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Manager{entries: make(map[string]*entry), timeout: timeout}
}

func (m *Manager) Bind(phone string, conn any, meta Meta) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[phone]
	if !ok {
		e = &entry{info: Info{Phone: phone}}
		m.entries[phone] = e
	}
	e.conn = conn
	e.info.Version = meta.Version
	e.info.RemoteAddr = meta.RemoteAddr
	e.info.BoundAt = now
	e.info.LastSeen = now
}

func (m *Manager) Unbind(phone string, conn any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[phone]
	if !ok {
		return
	}
	if conn != nil && e.conn != conn {
		return
	}
	delete(m.entries, phone)
}

// OnHeartbeat 更新终端最近活跃时间，未绑定的终端也会记录
func (m *Manager) OnHeartbeat(phone string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[phone]
	if !ok {
		e = &entry{info: Info{Phone: phone}}
		m.entries[phone] = e
	}
	e.info.LastSeen = t
}

func (m *Manager) OnTCPClosed(phone string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[phone]; ok {
		e.info.LastClosed = t
		e.conn = nil
	}
}

func (m *Manager) GetConn(phone string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[phone]
	if !ok || e.conn == nil {
		return nil, false
	}
	return e.conn, true
}

func (m *Manager) Get(phone string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[phone]
	if !ok {
		return Info{}, false
	}
	return e.info, true
}

func (m *Manager) IsOnline(phone string, now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[phone]
	if !ok {
		return false
	}
	return now.Sub(e.info.LastSeen) <= m.timeout
}

func (m *Manager) OnlineCount(now time.Time) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.entries {
		if now.Sub(e.info.LastSeen) <= m.timeout {
			count++
		}
	}
	return count
}

// Sweep 删除超时且已断开的终端记录，返回删除数量
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for phone, e := range m.entries {
		if e.conn == nil && now.Sub(e.info.LastSeen) > m.timeout {
			delete(m.entries, phone)
			n++
		}
	}
	return n
}
