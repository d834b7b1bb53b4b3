package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/api/handler"
	"crane-intelligence/backend/internal/api/router"
	"crane-intelligence/backend/internal/dto"
	"crane-intelligence/backend/internal/repository"
	"crane-intelligence/backend/internal/service"
	"crane-intelligence/backend/pkg/database"
	"crane-intelligence/backend/pkg/jwt"
	applogger "crane-intelligence/backend/pkg/logger"
	"crane-intelligence/backend/pkg/mailer"
	"crane-intelligence/backend/pkg/payment"
	"crane-intelligence/backend/pkg/redis"
)

func main() {
	// 0. 本地开发时预加载 .env，文件不存在不影响启动
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("CRANE_CONFIG"))
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

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	if err := dto.RegisterValidators(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	deps := service.Deps{}
	opts := router.Options{}
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与对账锁将不可用", zap.Error(err))
		rdb = nil
	} else {
		// 仅在连接成功时赋值，避免接口持有 nil 指针
		deps.Blacklist = rdb
		deps.Locker = rdb
		opts.Blacklist = rdb
		opts.Limiter = rdb
	}

	// 5. 初始化 JWT、邮件与支付网关
	jwtMgr := jwt.NewManager(&cfg.Auth)
	deps.JWT = jwtMgr
	deps.Mailer = mailer.New(&cfg.Mail, logger)

	if cfg.Payment.AccessToken != "" {
		gateway, err := payment.NewMercadoPagoGateway(cfg.Payment.AccessToken, logger)
		if err != nil {
			logger.Fatal("初始化 Mercado Pago 网关失败", zap.Error(err))
		}
		deps.Gateway = gateway
	} else {
		logger.Warn("未配置 payment.access_token，Mercado Pago 回调将返回 503")
	}
	if cfg.Payment.WebhookSecret == "" {
		logger.Warn("未配置 payment.webhook_secret，回调签名校验已关闭")
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, deps, logger)
	h := handler.NewHandler(cfg, svc, logger)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, opts, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
