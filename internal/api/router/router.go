package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/api/handler"
	"crane-intelligence/backend/internal/api/middleware"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/pkg/jwt"
)

// Options 可选的 Redis 能力，未连接 Redis 时保持 nil
type Options struct {
	Blacklist middleware.TokenChecker
	Limiter   middleware.RateLimiter
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, opts Options, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.JWTAuth(jwtMgr, opts.Blacklist)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		public := v1.Group("/auth")
		public.Use(middleware.RateLimit(opts.Limiter, 10, time.Minute))
		{
			public.POST("/register", h.Auth.Register)
			public.POST("/login", h.Auth.Login)
		}

		// 人工估值申请：匿名可提交
		v1.POST("/fallback-requests", middleware.OptionalJWTAuth(jwtMgr, opts.Blacklist), h.FallbackRequest.Create)

		// 支付回调（签名校验在 Handler 内完成）
		v1.POST("/payments/webhook/mercadopago",
			middleware.RateLimit(opts.Limiter, 120, time.Minute),
			h.Payment.MercadoPagoWebhook,
		)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(auth)
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			requests := authorized.Group("/fallback-requests")
			{
				requests.GET("/my", h.FallbackRequest.My)
				requests.GET("/:id", h.FallbackRequest.Get)
				requests.POST("/:id/cancel", h.FallbackRequest.Cancel)
			}

			reports := authorized.Group("/fmv-reports")
			{
				reports.POST("", h.FMVReport.Create)
				reports.GET("/my", h.FMVReport.My)
				reports.GET("/:id", h.FMVReport.Get)
				reports.POST("/:id/submit", h.FMVReport.Submit)
				reports.POST("/:id/cancel", h.FMVReport.Cancel)
			}
		}

		// 管理端
		admin := v1.Group("/admin")
		admin.Use(auth, adminOnly)
		{
			requests := admin.Group("/fallback-requests")
			{
				requests.GET("", h.FallbackRequest.List)
				requests.GET("/all", h.FallbackRequest.GetAll)
				requests.GET("/stats", h.FallbackRequest.Stats)
				requests.GET("/export", h.Export.ExportFallbackRequests)
				requests.GET("/:id", h.FallbackRequest.Get)
				requests.PUT("/:id/status", h.FallbackRequest.Transition)
			}

			reports := admin.Group("/fmv-reports")
			{
				reports.GET("", h.FMVReport.List)
				reports.PUT("/:id/status", h.FMVReport.Transition)
				reports.POST("/:id/payment", h.Payment.AttachPayment)
			}

			payments := admin.Group("/payments")
			{
				payments.POST("/reconcile", h.Payment.Reconcile)
				payments.GET("/unmatched", h.Payment.Unmatched)
			}
		}
	}

	return r
}
