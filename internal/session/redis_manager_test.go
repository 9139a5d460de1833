package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要本地 Redis，不可用时跳过
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 测试专用库
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping test")
	}
	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return client
}

func TestRedisManager_Heartbeat(t *testing.T) {
	mgr := NewRedisManager(setupTestRedis(t), "test-server-1", 5*time.Minute)

	now := time.Now()
	mgr.OnHeartbeat("13800138000", now)
	assert.True(t, mgr.IsOnline("13800138000", now.Add(time.Minute)))
	assert.False(t, mgr.IsOnline("13800138000", now.Add(10*time.Minute)))
}

func TestRedisManager_Bind(t *testing.T) {
	mgr := NewRedisManager(setupTestRedis(t), "test-server-1", 5*time.Minute)

	c1 := &struct{ id string }{id: "conn-1"}
	mgr.Bind("13800138000", c1, Meta{Version: "V2013", RemoteAddr: "1.2.3.4:5"})

	conn, ok := mgr.GetConn("13800138000")
	require.True(t, ok)
	assert.Same(t, c1, conn)

	info, ok := mgr.Get("13800138000")
	require.True(t, ok)
	assert.Equal(t, "V2013", info.Version)
	assert.Equal(t, "test-server-1", info.ServerID)

	t.Run("旧连接解绑不影响新连接", func(t *testing.T) {
		c2 := &struct{ id string }{id: "conn-2"}
		mgr.Bind("13800138000", c2, Meta{Version: "V2013"})
		mgr.Unbind("13800138000", c1)
		conn, ok := mgr.GetConn("13800138000")
		require.True(t, ok)
		assert.Same(t, c2, conn)

		mgr.Unbind("13800138000", c2)
		_, ok = mgr.GetConn("13800138000")
		assert.False(t, ok)
	})
}

func TestRedisManager_MultiServer(t *testing.T) {
	client := setupTestRedis(t)
	mgr1 := NewRedisManager(client, "server-1", 5*time.Minute)
	mgr2 := NewRedisManager(client, "server-2", 5*time.Minute)
	now := time.Now()

	c1 := &struct{ id string }{id: "conn-1"}
	mgr1.Bind("13800000001", c1, Meta{})
	mgr1.OnHeartbeat("13800000001", now)

	c2 := &struct{ id string }{id: "conn-2"}
	mgr2.Bind("13800000002", c2, Meta{})
	mgr2.OnHeartbeat("13800000002", now)

	conn, ok := mgr1.GetConn("13800000001")
	assert.True(t, ok)
	assert.Same(t, c1, conn)

	// 其他实例的连接不可见，但在线状态共享
	_, ok = mgr1.GetConn("13800000002")
	assert.False(t, ok)
	assert.True(t, mgr1.IsOnline("13800000002", now))
	assert.Equal(t, 2, mgr1.OnlineCount(now))
	assert.Equal(t, 2, mgr2.OnlineCount(now))
}

func TestRedisManager_Cleanup(t *testing.T) {
	mgr := NewRedisManager(setupTestRedis(t), "test-server-1", 5*time.Minute)
	mgr.Bind("13800000001", &struct{}{}, Meta{})
	mgr.Bind("13800000002", &struct{}{}, Meta{})

	require.NoError(t, mgr.Cleanup(context.Background()))
	_, ok := mgr.GetConn("13800000001")
	assert.False(t, ok)
	_, ok = mgr.Get("13800000002")
	assert.False(t, ok)
}

func TestRedisManager_ServerIDGeneration(t *testing.T) {
	mgr := NewRedisManager(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "", time.Minute)
	assert.NotEmpty(t, mgr.ServerID())
	var _ SessionManager = mgr
}
