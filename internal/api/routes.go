package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/jt808-server/internal/api/middleware"
	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/session"
	"github.com/taoyao-code/jt808-server/internal/storage"
)

// RegisterTerminalRoutes 注册终端只读查询路由
func RegisterTerminalRoutes(
	r gin.IRouter,
	repo storage.TerminalRepo,
	sess session.SessionManager,
	authCfg cfgpkg.APIAuth,
	logger *zap.Logger,
) {
	if r == nil || repo == nil || sess == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := NewTerminalHandler(repo, sess, logger)

	v1 := r.Group("/api/v1")
	if authCfg.Enabled {
		v1.Use(middleware.APIKeyAuth(authCfg, logger))
	} else {
		logger.Warn("api authentication disabled")
	}

	v1.GET("/terminals/:phone", h.GetTerminal)
	v1.GET("/sessions", h.OnlineCount)
	v1.GET("/sessions/:phone", h.GetSession)
}
