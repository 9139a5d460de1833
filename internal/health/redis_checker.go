package health

import (
	"context"
	"time"

	redisstorage "github.com/taoyao-code/jt808-server/internal/storage/redis"
)

// RedisChecker 会话 Redis 检查
type RedisChecker struct {
	client *redisstorage.Client
}

func NewRedisChecker(client *redisstorage.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	keys, err := c.client.DBSize(ctx).Result()
	res := CheckResult{Status: StatusHealthy, Message: "ok", Latency: time.Since(start)}
	if err != nil {
		res.Status, res.Message = StatusUnhealthy, "unreachable: "+err.Error()
		return res
	}

	ps := c.client.Stats()
	res.Details = map[string]any{
		"keys":        keys,
		"total_conns": ps.TotalConns,
		"timeouts":    ps.Timeouts,
	}
	// 连接池出现等待超时说明 poolSize 偏小
	if ps.Timeouts > 0 || res.Latency > slowProbe {
		res.Status, res.Message = StatusDegraded, "slow or saturated"
	}
	return res
}
