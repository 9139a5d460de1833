package storage

import (
	"context"
	"errors"
	"time"

	"github.com/taoyao-code/jt808-server/internal/storage/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// TerminalRepo 终端注册信息的存储抽象
// 约束：
// - 上层不直接写 SQL，统一通过本接口访问
// - 接口保持 DB-agnostic（面向模型与基础类型）
type TerminalRepo interface {
	// SaveRegistration 写入或覆盖注册信息（重新注册会更换鉴权码）
	SaveRegistration(ctx context.Context, t *models.Terminal) error
	// GetTerminal 按手机号查询，不存在返回 ErrNotFound
	GetTerminal(ctx context.Context, phone string) (*models.Terminal, error)
	// FindByVehicle 按车牌或 VIN 查询已注册终端，不存在返回 ErrNotFound
	FindByVehicle(ctx context.Context, plate, vin string) (*models.Terminal, error)
	// MarkAuthenticated 记录鉴权成功及 2019 版上报的 IMEI/软件版本
	MarkAuthenticated(ctx context.Context, phone, imei, softwareVersion string, at time.Time) error
	// DeleteTerminal 终端注销
	DeleteTerminal(ctx context.Context, phone string) error
}
