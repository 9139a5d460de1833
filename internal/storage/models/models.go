package models

import (
	"time"
)

// 注意：
// - 与 internal/migrate/sql 下的建表脚本保持一致
// - 不使用 gorm.Model，显式声明每个字段

// Terminal 映射 terminals 表：终端注册信息与鉴权码
type Terminal struct {
	// 终端手机号（去前导 0）
	Phone string `gorm:"column:phone;type:varchar(20);primaryKey"`
	// 注册时推断出的协议版本，如 V2019
	ProtocolVersion string `gorm:"column:protocol_version;type:varchar(8);not null"`

	ProvinceID     int    `gorm:"column:province_id;not null;default:0"`
	CityID         int    `gorm:"column:city_id;not null;default:0"`
	ManufacturerID string `gorm:"column:manufacturer_id;type:varchar(16);not null;default:''"`
	TerminalModel  string `gorm:"column:terminal_model;type:varchar(32);not null;default:''"`
	TerminalID     string `gorm:"column:terminal_id;type:varchar(32);not null;default:''"`
	// 车牌颜色为 0 时以 VIN 标识车辆
	PlateColor  int16  `gorm:"column:plate_color;not null;default:0"`
	PlateNumber string `gorm:"column:plate_number;type:varchar(32);not null;default:''"`
	VIN         string `gorm:"column:vin;type:varchar(17);not null;default:''"`

	// 注册应答下发的鉴权码
	AuthKey string `gorm:"column:auth_key;type:varchar(255);not null"`
	// 2019 版鉴权上报
	IMEI            string `gorm:"column:imei;type:varchar(15);not null;default:''"`
	SoftwareVersion string `gorm:"column:software_version;type:varchar(20);not null;default:''"`

	RegisteredAt time.Time  `gorm:"column:registered_at;not null"`
	LastAuthAt   *time.Time `gorm:"column:last_auth_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Terminal) TableName() string { return "terminals" }

// VehicleKey 车辆标识：有车牌用车牌，否则用 VIN
func (t *Terminal) VehicleKey() (plate, vin string) {
	if t.PlateColor == 0 {
		return "", t.VIN
	}
	return t.PlateNumber, ""
}
