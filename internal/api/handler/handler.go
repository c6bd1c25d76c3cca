package handler

import "geoattend/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth           *AuthHandler
	TimeRecord     *TimeRecordHandler
	OfficeLocation *OfficeLocationHandler
	Export         *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:           NewAuthHandler(svc.Auth),
		TimeRecord:     NewTimeRecordHandler(svc.TimeRecord),
		OfficeLocation: NewOfficeLocationHandler(svc.OfficeLocation),
		Export:         NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
