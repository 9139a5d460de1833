package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/metrics"
	"github.com/taoyao-code/jt808-server/internal/session"
	"github.com/taoyao-code/jt808-server/internal/storage"
	"github.com/taoyao-code/jt808-server/internal/storage/gormrepo"
	pgstorage "github.com/taoyao-code/jt808-server/internal/storage/pg"
	"github.com/taoyao-code/jt808-server/internal/terminal"
)

// NewTerminalRepo 按配置选择终端仓储：无数据库用内存，否则 pgx 或 gorm
func NewTerminalRepo(cfg cfgpkg.DatabaseConfig, pool *pgxpool.Pool, log *zap.Logger) (storage.TerminalRepo, error) {
	if pool == nil {
		return storage.NewMemoryTerminalRepo(), nil
	}
	switch cfg.Repository {
	case "gorm":
		db, err := gormrepo.Open(pool)
		if err != nil {
			return nil, fmt.Errorf("open gorm: %w", err)
		}
		log.Info("terminal repository: gorm")
		return gormrepo.New(db), nil
	default:
		log.Info("terminal repository: pgx")
		return pgstorage.NewTerminalRepo(pool), nil
	}
}

// NewTerminalManager 终端业务处理器
func NewTerminalManager(cfg cfgpkg.JT808Config, repo storage.TerminalRepo, sess session.SessionManager, appm *metrics.AppMetrics, log *zap.Logger) *terminal.Manager {
	return terminal.NewManager(repo, sess, appm, log.Named("terminal"), cfg)
}
