package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// slowProbe 探测耗时超过该值视为降级
const slowProbe = 500 * time.Millisecond

// DatabaseChecker 终端库检查：连通性、terminals 表、连接池占用
type DatabaseChecker struct {
	pool *pgxpool.Pool
}

func NewDatabaseChecker(pool *pgxpool.Pool) *DatabaseChecker {
	return &DatabaseChecker{pool: pool}
}

func (c *DatabaseChecker) Name() string { return "database" }

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	res := CheckResult{Status: StatusHealthy, Message: "ok"}

	var hasTable bool
	err := c.pool.QueryRow(ctx, `SELECT to_regclass('terminals') IS NOT NULL`).Scan(&hasTable)
	res.Latency = time.Since(start)
	switch {
	case err != nil:
		res.Status, res.Message = StatusUnhealthy, "query failed: "+err.Error()
		return res
	case !hasTable:
		res.Status, res.Message = StatusUnhealthy, "terminals table missing"
		return res
	}

	st := c.pool.Stat()
	res.Details = map[string]any{
		"total_conns":    st.TotalConns(),
		"acquired_conns": st.AcquiredConns(),
		"max_conns":      st.MaxConns(),
	}
	if st.MaxConns() > 0 && st.AcquiredConns() >= st.MaxConns() {
		res.Status, res.Message = StatusDegraded, "connection pool exhausted"
	}
	if res.Latency > slowProbe {
		res.Status, res.Message = worse(res.Status, StatusDegraded), "slow response"
	}
	return res
}
