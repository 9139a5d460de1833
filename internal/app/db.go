package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/migrate"
	pgstorage "github.com/taoyao-code/jt808-server/internal/storage/pg"
)

// ConnectDBAndMigrate 建立数据库连接并按需执行内置迁移
// database.enable 为 false 时返回 nil, nil
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	if !cfg.Enable {
		log.Info("database disabled, using in-memory terminal store")
		return nil, nil
	}
	dbpool, err := pgstorage.NewPool(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.AutoMigrate {
		applied, err := (migrate.Runner{FS: migrate.Embedded()}).Up(ctx, dbpool)
		if err != nil {
			dbpool.Close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		log.Info("db migrations applied", zap.Int64s("versions", applied))
	}
	return dbpool, nil
}
