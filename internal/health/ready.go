package health

import "sync/atomic"

// Readiness 启动与关闭阶段的就绪标记
type Readiness struct {
	tcpReady atomic.Bool
	draining atomic.Bool
}

func NewReadiness() *Readiness { return &Readiness{} }

func (r *Readiness) SetTCPReady(v bool) { r.tcpReady.Store(v) }

// Drain 进入关闭流程，/readyz 立即返回未就绪
func (r *Readiness) Drain() { r.draining.Store(true) }

func (r *Readiness) Ready() bool {
	return r.tcpReady.Load() && !r.draining.Load()
}
