package app

import (
	"fmt"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/protocol/jt808"
)

// NewRegistry 加载协议定义并冻结注册表
// 未配置定义文件时使用内置定义
func NewRegistry(cfg cfgpkg.JT808Config, log *zap.Logger) (*jt808.Registry, error) {
	defs := jt808.DefaultDefinitions()
	source := "embedded"
	if cfg.DefinitionsFile != "" {
		d, err := jt808.LoadDefinitions(cfg.DefinitionsFile)
		if err != nil {
			return nil, err
		}
		defs, source = d, cfg.DefinitionsFile
	}
	reg, err := jt808.BuildRegistry(defs)
	if err != nil {
		return nil, fmt.Errorf("build registry from %s: %w", source, err)
	}

	keys := reg.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
	}
	log.Info("jt808 definitions loaded", zap.String("source", source), zap.Strings("protocols", names))
	return reg, nil
}
