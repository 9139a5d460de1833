package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/metrics"
	"github.com/taoyao-code/jt808-server/internal/tcpserver"
)

// NewTCPServer 创建 TCP 网关并挂接接入指标
func NewTCPServer(cfg cfgpkg.TCPConfig, log *zap.Logger, appm *metrics.AppMetrics) *tcpserver.Server {
	srv := tcpserver.New(cfg, log.Named("tcp"))
	if appm != nil {
		srv.SetMetricsCallbacks(
			func() { appm.TCPAccepted.Inc() },
			func(n int) { appm.TCPBytesReceived.Add(float64(n)) },
			func(reason string) { appm.TCPRejected.WithLabelValues(reason).Inc() },
		)
	}
	return srv
}
