package gormrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taoyao-code/jt808-server/internal/storage"
	"github.com/taoyao-code/jt808-server/internal/storage/models"
)

// Open 复用 pgx 连接池创建 *gorm.DB
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// Repository 基于 GORM 的 TerminalRepo 实现
type Repository struct {
	db *gorm.DB
}

var _ storage.TerminalRepo = (*Repository)(nil)

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveRegistration 按 phone 冲突覆盖注册字段，并清空上次鉴权时间
func (r *Repository) SaveRegistration(ctx context.Context, t *models.Terminal) error {
	rec := *t
	rec.LastAuthAt = nil
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "phone"}},
			DoUpdates: clause.Assignments(map[string]any{
				"protocol_version": gorm.Expr("excluded.protocol_version"),
				"province_id":      gorm.Expr("excluded.province_id"),
				"city_id":          gorm.Expr("excluded.city_id"),
				"manufacturer_id":  gorm.Expr("excluded.manufacturer_id"),
				"terminal_model":   gorm.Expr("excluded.terminal_model"),
				"terminal_id":      gorm.Expr("excluded.terminal_id"),
				"plate_color":      gorm.Expr("excluded.plate_color"),
				"plate_number":     gorm.Expr("excluded.plate_number"),
				"vin":              gorm.Expr("excluded.vin"),
				"auth_key":         gorm.Expr("excluded.auth_key"),
				"registered_at":    gorm.Expr("excluded.registered_at"),
				"last_auth_at":     nil,
				"updated_at":       gorm.Expr("NOW()"),
			}),
		}).
		Create(&rec).Error
}

func (r *Repository) GetTerminal(ctx context.Context, phone string) (*models.Terminal, error) {
	var t models.Terminal
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&t).Error
	return wrapNotFound(&t, err)
}

func (r *Repository) FindByVehicle(ctx context.Context, plate, vin string) (*models.Terminal, error) {
	q := r.db.WithContext(ctx)
	switch {
	case plate != "":
		q = q.Where("plate_color <> 0 AND plate_number = ?", plate)
	case vin != "":
		q = q.Where("plate_color = 0 AND vin = ?", vin)
	default:
		return nil, storage.ErrNotFound
	}
	var t models.Terminal
	err := q.Take(&t).Error
	return wrapNotFound(&t, err)
}

func (r *Repository) MarkAuthenticated(ctx context.Context, phone, imei, softwareVersion string, at time.Time) error {
	updates := map[string]any{"last_auth_at": at, "updated_at": gorm.Expr("NOW()")}
	if imei != "" {
		updates["imei"] = imei
	}
	if softwareVersion != "" {
		updates["software_version"] = softwareVersion
	}
	res := r.db.WithContext(ctx).Model(&models.Terminal{}).Where("phone = ?", phone).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteTerminal(ctx context.Context, phone string) error {
	res := r.db.WithContext(ctx).Where("phone = ?", phone).Delete(&models.Terminal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func wrapNotFound(t *models.Terminal, err error) (*models.Terminal, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
