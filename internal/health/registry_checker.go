package health

import (
	"context"
	"time"

	"github.com/taoyao-code/jt808-server/internal/protocol/jt808"
)

// RegistryChecker 协议定义注册表须已冻结且非空
type RegistryChecker struct {
	reg *jt808.Registry
}

func NewRegistryChecker(reg *jt808.Registry) *RegistryChecker {
	return &RegistryChecker{reg: reg}
}

func (c *RegistryChecker) Name() string { return "jt808_registry" }

func (c *RegistryChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	keys := c.reg.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
	}
	res := CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]any{"protocols": names, "frozen": c.reg.Frozen()},
	}
	switch {
	case len(keys) == 0:
		res.Status, res.Message = StatusUnhealthy, "no protocol definitions"
	case !c.reg.Frozen():
		res.Status, res.Message = StatusDegraded, "registry not frozen"
	}
	res.Latency = time.Since(start)
	return res
}
