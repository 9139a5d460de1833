package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisManager Redis版本的会话管理器，支持多实例部署
// 会话快照存 Redis，连接对象只保存在持有它的实例本地
type RedisManager struct {
	client   *redis.Client
	serverID string
	timeout  time.Duration

	mu        sync.RWMutex
	localConn map[string]any // connID -> conn
}

// Redis Key设计
const (
	// jt808:terminal:{phone} -> Info JSON
	keyTerminalPrefix = "jt808:terminal:"

	// jt808:conn:{connID} -> phone
	keyConnPrefix = "jt808:conn:"

	// jt808:server:{serverID}:conns -> Set[connID]
	keyServerConnsPrefix = "jt808:server:"

	opTimeout = 2 * time.Second
)

// NewRedisManager 创建Redis会话管理器，serverID 为空时自动生成
func NewRedisManager(client *redis.Client, serverID string, timeout time.Duration) *RedisManager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if serverID == "" {
		serverID = uuid.New().String()
	}
	return &RedisManager{
		client:    client,
		serverID:  serverID,
		timeout:   timeout,
		localConn: make(map[string]any),
	}
}

// ServerID 当前实例ID
func (m *RedisManager) ServerID() string { return m.serverID }

func (m *RedisManager) Bind(phone string, conn any, meta Meta) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// 同一终端在本实例的旧连接先清掉
	if old, err := m.get(ctx, phone); err == nil && old.ServerID == m.serverID && old.ConnID != "" {
		m.dropLocal(ctx, old.ConnID)
	}

	connID := uuid.New().String()
	m.mu.Lock()
	m.localConn[connID] = conn
	m.mu.Unlock()

	now := time.Now()
	info := &Info{
		Phone:      phone,
		Version:    meta.Version,
		RemoteAddr: meta.RemoteAddr,
		ConnID:     connID,
		ServerID:   m.serverID,
		BoundAt:    now,
		LastSeen:   now,
	}
	_ = m.set(ctx, info)

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, keyConnPrefix+connID, phone, m.timeout*2)
	pipe.SAdd(ctx, m.serverConnsKey(), connID)
	_, _ = pipe.Exec(ctx)
}

func (m *RedisManager) Unbind(phone string, conn any) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	info, err := m.get(ctx, phone)
	if err != nil {
		return
	}
	if conn != nil {
		if info.ServerID != m.serverID {
			return
		}
		m.mu.RLock()
		local := m.localConn[info.ConnID]
		m.mu.RUnlock()
		if local != conn {
			return
		}
	}
	if info.ConnID != "" && info.ServerID == m.serverID {
		m.dropLocal(ctx, info.ConnID)
	}
	m.client.Del(ctx, keyTerminalPrefix+phone)
}

func (m *RedisManager) dropLocal(ctx context.Context, connID string) {
	m.mu.Lock()
	delete(m.localConn, connID)
	m.mu.Unlock()
	m.client.Del(ctx, keyConnPrefix+connID)
	m.client.SRem(ctx, m.serverConnsKey(), connID)
}

func (m *RedisManager) OnHeartbeat(phone string, t time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	info, err := m.get(ctx, phone)
	if err != nil {
		info = &Info{Phone: phone}
	}
	info.LastSeen = t
	_ = m.set(ctx, info)
	if info.ConnID != "" {
		m.client.Expire(ctx, keyConnPrefix+info.ConnID, m.timeout*2)
	}
}

func (m *RedisManager) OnTCPClosed(phone string, t time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	info, err := m.get(ctx, phone)
	if err != nil {
		return
	}
	info.LastClosed = t
	if info.ConnID != "" && info.ServerID == m.serverID {
		m.dropLocal(ctx, info.ConnID)
		info.ConnID = ""
	}
	_ = m.set(ctx, info)
}

// GetConn 获取绑定的连接对象（仅限本实例的连接）
func (m *RedisManager) GetConn(phone string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	info, err := m.get(ctx, phone)
	if err != nil || info.ServerID != m.serverID {
		return nil, false
	}
	m.mu.RLock()
	conn, ok := m.localConn[info.ConnID]
	m.mu.RUnlock()
	return conn, ok
}

func (m *RedisManager) Get(phone string) (Info, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	info, err := m.get(ctx, phone)
	if err != nil {
		return Info{}, false
	}
	return *info, true
}

func (m *RedisManager) IsOnline(phone string, now time.Time) bool {
	info, ok := m.Get(phone)
	if !ok {
		return false
	}
	return now.Sub(info.LastSeen) <= m.timeout
}

// OnlineCount 扫描全部终端会话（所有实例）
func (m *RedisManager) OnlineCount(now time.Time) int {
	ctx := context.Background()
	count := 0
	iter := m.client.Scan(ctx, 0, keyTerminalPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		phone := iter.Val()[len(keyTerminalPrefix):]
		if m.IsOnline(phone, now) {
			count++
		}
	}
	return count
}

// --- 辅助方法 ---

func (m *RedisManager) get(ctx context.Context, phone string) (*Info, error) {
	val, err := m.client.Get(ctx, keyTerminalPrefix+phone).Bytes()
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(val, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (m *RedisManager) set(ctx context.Context, info *Info) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	// 过期时间为心跳超时的2倍
	return m.client.Set(ctx, keyTerminalPrefix+info.Phone, b, m.timeout*2).Err()
}

func (m *RedisManager) serverConnsKey() string {
	return fmt.Sprintf("%s%s:conns", keyServerConnsPrefix, m.serverID)
}

// Cleanup 清理本实例的所有会话数据（优雅关闭时调用）
func (m *RedisManager) Cleanup(ctx context.Context) error {
	connIDs, err := m.client.SMembers(ctx, m.serverConnsKey()).Result()
	if err != nil {
		return err
	}
	for _, connID := range connIDs {
		phone, err := m.client.Get(ctx, keyConnPrefix+connID).Result()
		if err != nil {
			continue
		}
		m.Unbind(phone, nil)
	}
	return m.client.Del(ctx, m.serverConnsKey()).Err()
}
