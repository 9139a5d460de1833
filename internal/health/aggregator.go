package health

import (
	"context"
	"sync"
	"time"
)

// 单个检查的默认超时
const checkTimeout = 2 * time.Second

// Aggregator 并发执行各组件检查并汇总
type Aggregator struct {
	mu       sync.RWMutex
	checkers []Checker
}

func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{checkers: checkers}
}

// AddChecker 启动过程中按已初始化的组件追加
func (a *Aggregator) AddChecker(c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, c)
}

// CheckAll 并发执行全部检查
func (a *Aggregator) CheckAll(ctx context.Context) map[string]CheckResult {
	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	a.mu.RUnlock()

	results := make(map[string]CheckResult, len(checkers))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			r := c.Check(cctx)
			mu.Lock()
			results[c.Name()] = r
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

// Overall 任一组件 unhealthy 则整体 unhealthy，其次 degraded
func Overall(results map[string]CheckResult) Status {
	s := StatusHealthy
	for _, r := range results {
		s = worse(s, r.Status)
	}
	return s
}

// Report 执行一次检查并生成报告
func (a *Aggregator) Report(ctx context.Context) HealthReport {
	results := a.CheckAll(ctx)
	return HealthReport{
		Status:    Overall(results),
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// Ready degraded 仍视为就绪
func (a *Aggregator) Ready(ctx context.Context) bool {
	return Overall(a.CheckAll(ctx)) != StatusUnhealthy
}

// HealthReport 健康报告
type HealthReport struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}
