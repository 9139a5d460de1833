package health

import (
	"context"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"  // 仍可服务
	StatusUnhealthy Status = "unhealthy" // 无法服务
)

// CheckResult 单个组件的检查结果
type CheckResult struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// Checker 组件健康检查
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckerFunc 以函数实现 Checker
type CheckerFunc struct {
	N  string
	Fn func(ctx context.Context) CheckResult
}

func (f CheckerFunc) Name() string                          { return f.N }
func (f CheckerFunc) Check(ctx context.Context) CheckResult { return f.Fn(ctx) }

// worse 取两者中较差的状态
func worse(a, b Status) Status {
	rank := map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
