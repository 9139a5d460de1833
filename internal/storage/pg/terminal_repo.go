package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/jt808-server/internal/storage"
	"github.com/taoyao-code/jt808-server/internal/storage/models"
)

const terminalColumns = `phone, protocol_version, province_id, city_id, manufacturer_id, terminal_model,
	terminal_id, plate_color, plate_number, vin, auth_key, imei, software_version,
	registered_at, last_auth_at, updated_at`

// TerminalRepo 基于 pgx 的终端仓储
type TerminalRepo struct {
	Pool *pgxpool.Pool
}

var _ storage.TerminalRepo = (*TerminalRepo)(nil)

func NewTerminalRepo(pool *pgxpool.Pool) *TerminalRepo {
	return &TerminalRepo{Pool: pool}
}

// SaveRegistration 按手机号 upsert；重新注册清空上次鉴权信息
func (r *TerminalRepo) SaveRegistration(ctx context.Context, t *models.Terminal) error {
	const q = `INSERT INTO terminals (phone, protocol_version, province_id, city_id, manufacturer_id,
	terminal_model, terminal_id, plate_color, plate_number, vin, auth_key, registered_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
ON CONFLICT (phone) DO UPDATE SET
	protocol_version=EXCLUDED.protocol_version, province_id=EXCLUDED.province_id, city_id=EXCLUDED.city_id,
	manufacturer_id=EXCLUDED.manufacturer_id, terminal_model=EXCLUDED.terminal_model,
	terminal_id=EXCLUDED.terminal_id, plate_color=EXCLUDED.plate_color, plate_number=EXCLUDED.plate_number,
	vin=EXCLUDED.vin, auth_key=EXCLUDED.auth_key, registered_at=EXCLUDED.registered_at,
	last_auth_at=NULL, updated_at=NOW()`
	_, err := r.Pool.Exec(ctx, q,
		t.Phone, t.ProtocolVersion, t.ProvinceID, t.CityID, t.ManufacturerID,
		t.TerminalModel, t.TerminalID, t.PlateColor, t.PlateNumber, t.VIN, t.AuthKey, t.RegisteredAt)
	return err
}

func (r *TerminalRepo) GetTerminal(ctx context.Context, phone string) (*models.Terminal, error) {
	return r.queryOne(ctx, `SELECT `+terminalColumns+` FROM terminals WHERE phone=$1`, phone)
}

// FindByVehicle 车牌优先，车牌为空时按 VIN
func (r *TerminalRepo) FindByVehicle(ctx context.Context, plate, vin string) (*models.Terminal, error) {
	if plate != "" {
		return r.queryOne(ctx, `SELECT `+terminalColumns+` FROM terminals WHERE plate_color<>0 AND plate_number=$1 LIMIT 1`, plate)
	}
	if vin != "" {
		return r.queryOne(ctx, `SELECT `+terminalColumns+` FROM terminals WHERE plate_color=0 AND vin=$1 LIMIT 1`, vin)
	}
	return nil, storage.ErrNotFound
}

func (r *TerminalRepo) MarkAuthenticated(ctx context.Context, phone, imei, softwareVersion string, at time.Time) error {
	const q = `UPDATE terminals SET
	imei=CASE WHEN $2<>'' THEN $2 ELSE imei END,
	software_version=CASE WHEN $3<>'' THEN $3 ELSE software_version END,
	last_auth_at=$4, updated_at=NOW()
WHERE phone=$1`
	tag, err := r.Pool.Exec(ctx, q, phone, imei, softwareVersion, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *TerminalRepo) DeleteTerminal(ctx context.Context, phone string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM terminals WHERE phone=$1`, phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *TerminalRepo) queryOne(ctx context.Context, q string, args ...any) (*models.Terminal, error) {
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	t, err := pgx.CollectOneRow(rows, scanTerminal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTerminal(row pgx.CollectableRow) (models.Terminal, error) {
	var t models.Terminal
	err := row.Scan(&t.Phone, &t.ProtocolVersion, &t.ProvinceID, &t.CityID, &t.ManufacturerID,
		&t.TerminalModel, &t.TerminalID, &t.PlateColor, &t.PlateNumber, &t.VIN, &t.AuthKey,
		&t.IMEI, &t.SoftwareVersion, &t.RegisteredAt, &t.LastAuthAt, &t.UpdatedAt)
	return t, err
}
