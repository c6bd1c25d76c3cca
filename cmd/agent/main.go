package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"geoattend/backend/config"
	"geoattend/backend/internal/bridge"
	"geoattend/backend/internal/client"
	"geoattend/backend/internal/device"
	"geoattend/backend/internal/engine"
	applogger "geoattend/backend/pkg/logger"
)

// agent 设备端打卡引擎守护进程。
// 移动端外壳通过本机桥接服务推送定位、发起打卡，
// 引擎对考勤服务只经由 HTTP API 通信，本地不持久化任何记录。
func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("打卡引擎启动中...",
		zap.String("server_url", cfg.Engine.ServerURL),
		zap.String("bridge_addr", cfg.Engine.BridgeAddr),
	)

	// 3. 组装引擎：API 客户端 + 定位推送源 + 生物识别回调门。
	// 会话按配置时区判定正午边界，而非进程本地时区
	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		logger.Warn("加载引擎时区失败，使用本地时区",
			zap.String("timezone", cfg.Engine.Timezone), zap.Error(err))
		loc = time.Local
	}

	api := client.New(cfg.Engine.ServerURL, cfg.Engine.AccessToken, logger)
	provider := device.NewPushProvider(true)
	gate := device.NewCallbackGate(cfg.Engine.BiometricCallbackURL)

	orch := engine.New(api, provider, gate, logger, engine.Options{
		AccuracyThresholdMeters: cfg.Engine.AccuracyThresholdMeters,
		LocationTimeout:         cfg.Engine.LocationTimeout,
		FallbackOffice:          client.DefaultOffice,
		Now:                     func() time.Time { return time.Now().In(loc) },
	})

	// 4. 引擎主循环（定位流 + 定期记录刷新）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := orch.Run(ctx, cfg.Engine.RecordRefreshInterval); err != nil && ctx.Err() == nil {
			logger.Error("引擎主循环退出", zap.Error(err))
		}
	}()

	// 5. 启动桥接服务（仅监听回环地址）
	srv := &http.Server{
		Addr:         cfg.Engine.BridgeAddr,
		Handler:      bridge.NewServer(orch, provider, logger).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // 生物识别等待用户交互，放宽写超时
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("桥接服务已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("桥接服务异常", zap.Error(err))
		}
	}()

	// 6. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("桥接服务关闭异常", zap.Error(err))
	}

	logger.Info("打卡引擎已退出")
}
