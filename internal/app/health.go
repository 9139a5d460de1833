package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/jt808-server/internal/health"
	"github.com/taoyao-code/jt808-server/internal/protocol/jt808"
	"github.com/taoyao-code/jt808-server/internal/tcpserver"
)

// NewHealthAggregator 注册表检查始终存在，数据库未启用时不加入
func NewHealthAggregator(reg *jt808.Registry, dbpool *pgxpool.Pool) *health.Aggregator {
	agg := health.NewAggregator(health.NewRegistryChecker(reg))
	if dbpool != nil {
		agg.AddChecker(health.NewDatabaseChecker(dbpool))
	}
	return agg
}

// AddTCPChecker TCP 启动后加入
func AddTCPChecker(aggregator *health.Aggregator, tcpServer *tcpserver.Server) {
	aggregator.AddChecker(health.NewTCPChecker(tcpServer))
}
