package app

import (
	"net/http"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器，指标关闭时不挂载指标路由
func NewHTTPServer(cfg *cfgpkg.Config, metricsHandler http.Handler, readyFn func() bool) *httpserver.Server {
	if !cfg.Metrics.Enable {
		metricsHandler = nil
	}
	return httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readyFn)
}
