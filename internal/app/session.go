package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/session"
	redisstorage "github.com/taoyao-code/jt808-server/internal/storage/redis"
)

// NewSessionManager Redis 可用时使用 Redis 会话管理器，否则使用内存实现
func NewSessionManager(
	cfg cfgpkg.SessionConfig,
	redisClient *redisstorage.Client,
	serverID string,
	logger *zap.Logger,
) session.SessionManager {
	timeout := cfg.HeartbeatTimeout()
	if redisClient != nil {
		logger.Info("using redis session manager",
			zap.String("server_id", serverID),
			zap.Duration("timeout", timeout))
		return session.NewRedisManager(redisClient.Client, serverID, timeout)
	}
	logger.Info("using memory session manager", zap.Duration("timeout", timeout))
	return session.New(timeout)
}
