package model

import "time"

// TimeRecord 考勤记录表 — 对应 time_records
// 每用户每自然日一条（唯一约束），首次签到时创建，签退/偏移时更新，
// 本服务不删除（删除属外部管理操作）
type TimeRecord struct {
	TimeRecordID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timeRecordId"`
	UserID       string    `gorm:"type:uuid;not null"                             json:"userId"`
	RecordDate   time.Time `gorm:"type:date;not null;column:record_date"          json:"recordDate"`

	AMTimeIn  *time.Time `gorm:"column:am_time_in"  json:"amTimeIn,omitempty"`
	AMTimeOut *time.Time `gorm:"column:am_time_out" json:"amTimeOut,omitempty"`
	PMTimeIn  *time.Time `gorm:"column:pm_time_in"  json:"pmTimeIn,omitempty"`
	PMTimeOut *time.Time `gorm:"column:pm_time_out" json:"pmTimeOut,omitempty"`

	// 旧版单会话字段（兼容历史数据，新记录不再写入）
	TimeIn  *time.Time `json:"timeIn,omitempty"`
	TimeOut *time.Time `json:"timeOut,omitempty"`

	Undertime  float64    `gorm:"not null;default:0" json:"undertime"`
	Makeup     float64    `gorm:"not null;default:0" json:"makeup"`
	MakeupDate *time.Time `gorm:"type:date"          json:"makeupDate,omitempty"`
	// TotalHours 服务端计算：AM+PM 时长 − 欠时 + 补时，取整到 0.01 小时
	TotalHours float64 `gorm:"not null;default:0" json:"totalHours"`

	// 打卡时刻的定位快照
	Latitude       *float64 `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude      *float64 `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`
	DistanceMeters *float64 `gorm:"type:decimal(10,2)" json:"distanceMeters,omitempty"`

	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (TimeRecord) TableName() string { return "time_records" }

// SessionOpen 会话 s（"AM"|"PM"）是否已签到未签退
func (r *TimeRecord) SessionOpen(s string) bool {
	switch s {
	case "AM":
		return r.AMTimeIn != nil && r.AMTimeOut == nil
	case "PM":
		return r.PMTimeIn != nil && r.PMTimeOut == nil
	}
	return false
}

// SessionClosed 会话 s（"AM"|"PM"）是否已签到且已签退
func (r *TimeRecord) SessionClosed(s string) bool {
	switch s {
	case "AM":
		return r.AMTimeIn != nil && r.AMTimeOut != nil
	case "PM":
		return r.PMTimeIn != nil && r.PMTimeOut != nil
	}
	return false
}

// AnySessionOpen 是否存在任一未签退会话（含旧版单会话字段）
func (r *TimeRecord) AnySessionOpen() bool {
	if r.SessionOpen("AM") || r.SessionOpen("PM") {
		return true
	}
	return r.TimeIn != nil && r.TimeOut == nil
}

// [自证通过] internal/model/time_record.go
