package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cmci-cr/backend/config"
	"cmci-cr/backend/internal/api/handler"
	"cmci-cr/backend/internal/api/middleware"
	"cmci-cr/backend/pkg/jwt"
	"cmci-cr/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单跳过检查，限流降级为进程内令牌桶
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	// 避免把 nil *redis.Client 装进非 nil 接口
	var (
		checker middleware.TokenChecker
		limiter middleware.WindowLimiter
	)
	if rdb != nil {
		checker = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	r.Use(middleware.RateLimit(limiter, "global", cfg.RateLimit.Global.Limit, cfg.RateLimit.Global.Window, logger))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			loginLimit := middleware.RateLimit(limiter, "login", cfg.RateLimit.Login.Limit, cfg.RateLimit.Login.Window, logger)
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/refresh", loginLimit, h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// CR 报告模块
			reports := authorized.Group("/reports")
			{
				reports.POST("", h.Report.Create)
				reports.GET("/mine", h.Report.ListMine)
				reports.GET("/mine/statistics", h.Report.MyStatistics)
				reports.GET("/unseen", h.Report.ListUnseen)
				reports.GET("/:id", h.Report.GetByID) // 本人、上级或管理员（Handler 层鉴权）
				reports.PUT("/:id", h.Report.Update)
				reports.DELETE("/:id", h.Report.Delete)
				reports.POST("/:id/submit", h.Report.Submit)
				reports.POST("/:id/validate", middleware.RoleAuth("fd", "leader", "pastor", "admin"), h.Report.Validate)
				reports.POST("/:id/view", middleware.RoleAuth("fd", "leader", "pastor", "admin"), h.Report.MarkViewed)
			}

			// 监督模块
			oversight := authorized.Group("/oversight")
			oversight.Use(middleware.RoleAuth("fd", "leader", "pastor", "admin"))
			{
				oversight.GET("/reports", h.Oversight.ListSubordinateReports)
				oversight.GET("/statistics", h.Oversight.ListSubordinateStatistics)
				oversight.GET("/group-statistics", h.Oversight.GroupStatistics)
				oversight.GET("/disciples", middleware.RoleAuth("fd"), h.Oversight.DiscipleStatus)
				oversight.GET("/alerts", h.Oversight.Alerts)
				oversight.GET("/subordinates/:id/check", h.Oversight.CheckSubordinate)
			}

			// 成员管理模块（仅管理员）
			members := authorized.Group("/members")
			members.Use(middleware.RoleAuth("admin"))
			{
				members.POST("", h.Member.Create)
				members.GET("", h.Member.List)
				members.GET("/:id", h.Member.GetByID)
				members.PUT("/:id/role", h.Member.AssignRole)
				members.PUT("/:id/overseer", h.Member.AssignOverseer)
				members.PUT("/:id/status", h.Member.SetStatus)
			}
		}
	}

	return r
}
