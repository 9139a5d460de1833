package session

import "time"

// Meta 绑定时记录的终端连接信息
type Meta struct {
	Version    string // 协议版本，如 V2019
	RemoteAddr string
}

// Info 终端会话快照
type Info struct {
	Phone      string    `json:"phone"`
	Version    string    `json:"version"`
	RemoteAddr string    `json:"remote_addr"`
	ConnID     string    `json:"conn_id,omitempty"`
	ServerID   string    `json:"server_id,omitempty"`
	BoundAt    time.Time `json:"bound_at"`
	LastSeen   time.Time `json:"last_seen"`
	LastClosed time.Time `json:"last_closed,omitempty"`
}

// SessionManager 终端会话管理器接口，支持内存和Redis两种实现
// 以终端手机号为键；鉴权通过后绑定，注销或断开后解绑
type SessionManager interface {
	// Bind 绑定终端手机号到连接对象，重复绑定覆盖旧连接
	Bind(phone string, conn any, meta Meta)

	// Unbind 解除绑定；conn 非 nil 时仅当仍绑定在该连接上才解除
	Unbind(phone string, conn any)

	// OnHeartbeat 更新终端最近活跃时间
	OnHeartbeat(phone string, t time.Time)

	// OnTCPClosed 记录TCP断开事件，释放连接对象但保留会话快照
	OnTCPClosed(phone string, t time.Time)

	// GetConn 返回绑定在本实例上的连接对象
	GetConn(phone string) (any, bool)

	// Get 返回终端会话快照
	Get(phone string) (Info, bool)

	// IsOnline 最近活跃时间在超时范围内
	IsOnline(phone string, now time.Time) bool

	// OnlineCount 当前在线终端数量
	OnlineCount(now time.Time) int
}
