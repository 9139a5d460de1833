package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/jt808-server/internal/tcpserver"
)

// TCPChecker 网关连接数与接入熔断状态
type TCPChecker struct {
	server *tcpserver.Server
}

func NewTCPChecker(server *tcpserver.Server) *TCPChecker {
	return &TCPChecker{server: server}
}

func (c *TCPChecker) Name() string { return "tcp" }

func (c *TCPChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	limiter := c.server.GetLimiterStats()
	breaker := c.server.GetCircuitBreakerStats()
	rate := c.server.GetRateLimiterStats()

	status, message := StatusHealthy, "ok"
	if limiter.MaxConnections > 0 {
		switch {
		case limiter.Utilization > 0.95:
			status, message = StatusUnhealthy, "connection limit near exhausted"
		case limiter.Utilization > 0.8:
			status, message = StatusDegraded, "high connection usage"
		}
	}
	// 熔断打开期间拒绝新终端接入
	if breaker.State == tcpserver.StateOpen {
		status, message = worse(status, StatusDegraded), "accept circuit open"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"active_connections":    limiter.ActiveConnections,
			"max_connections":       limiter.MaxConnections,
			"utilization":           fmt.Sprintf("%.1f%%", limiter.Utilization*100),
			"rejected_total":        limiter.RejectedTotal,
			"rate_rejected_total":   rate.RejectedTotal,
			"circuit_breaker_state": breaker.State.String(),
			"circuit_breaker_trips": breaker.TripCount,
		},
		Latency: time.Since(start),
	}
}
