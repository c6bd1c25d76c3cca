package session

import "time"

// State 推导出的会话状态（不持久化，每次记录刷新或跨正午重算）
type State struct {
	ActiveSession Session
	// ActiveRecord 当前会话对应的未签退记录；无打开记录时为 nil
	ActiveRecord *TimeRecord
}

// Open 当前是否存在未签退的打开记录
func (s State) Open() bool { return s.ActiveRecord != nil }

// defaultSessionFor 无打开记录时按时段选择默认会话：正午前 AM，否则 PM
func defaultSessionFor(now time.Time) Session {
	if now.Hour() < 12 {
		return AM
	}
	return PM
}

// Reconcile 从服务端记录列表推导权威会话状态。
//
// 解析顺序：
//  1. 只看今天的记录；
//  2. previous 会话仍有打开记录 → 保持 previous；
//  3. AM 有打开记录 → AM；
//  4. PM 有打开记录 → PM；
//  5. 都没有 → 按当前时段取默认会话，ActiveRecord 为 nil。
func Reconcile(records []TimeRecord, now time.Time, previous Session) State {
	today := make([]*TimeRecord, 0, 2)
	for i := range records {
		if records[i].SameDay(now) {
			today = append(today, &records[i])
		}
	}

	if previous.Valid() {
		if r := openRecord(today, previous, previous); r != nil {
			return State{ActiveSession: previous, ActiveRecord: r}
		}
	}

	for _, s := range []Session{AM, PM} {
		if r := openRecord(today, s, previous); r != nil {
			return State{ActiveSession: s, ActiveRecord: r}
		}
	}

	return State{ActiveSession: defaultSessionFor(now)}
}

// Selectable 会话按钮是否可用。
// 正午前 AM 可选、正午后 PM 可选；但已打开的会话跨过时段边界后仍可选，
// 否则正午前签到的用户过午后将永远无法签退。
func Selectable(s Session, records []TimeRecord, now time.Time, current Session) bool {
	switch s {
	case AM:
		if now.Hour() < 12 {
			return true
		}
	case PM:
		if now.Hour() >= 12 {
			return true
		}
	default:
		return false
	}

	today := make([]*TimeRecord, 0, 2)
	for i := range records {
		if records[i].SameDay(now) {
			today = append(today, &records[i])
		}
	}
	return openRecord(today, s, current) != nil
}

// openRecord 在今日记录中查找会话 s 的打开记录
func openRecord(today []*TimeRecord, s Session, current Session) *TimeRecord {
	for _, r := range today {
		if r.OpenFor(s, current) {
			return r
		}
	}
	return nil
}

// [自证通过] internal/session/reconciler.go
