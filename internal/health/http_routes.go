package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHTTPRoutes 注册健康检查路由
func RegisterHTTPRoutes(r gin.IRouter, agg *Aggregator) {
	// GET /health 详细报告，degraded 仍返回 200
	r.GET("/health", func(c *gin.Context) {
		report := agg.Report(c.Request.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, report)
	})

	// GET /health/ready
	r.GET("/health/ready", func(c *gin.Context) {
		if !agg.Ready(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": StatusUnhealthy, "ready": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ready": true})
	})

	// GET /health/live 进程能响应即存活
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"alive": true})
	})
}
