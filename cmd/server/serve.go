package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cmci-cr/backend/internal/api/handler"
	"cmci-cr/backend/internal/api/router"
	"cmci-cr/backend/internal/job"
	"cmci-cr/backend/internal/repository"
	"cmci-cr/backend/internal/service"
	"cmci-cr/backend/pkg/database"
	"cmci-cr/backend/pkg/jwt"
	"cmci-cr/backend/pkg/redis"
	"cmci-cr/backend/pkg/telemetry"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务与预警扫描任务",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "启动时不执行数据库迁移")
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. 配置、日志、数据库
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db, logger)

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("report_timezone", cfg.Report.Timezone),
	)

	// 2. 数据库迁移
	if !skipMigrate {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	// 3. 链路追踪
	shutdownTracing, err := telemetry.Setup(cmd.Context(), &cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单与预警缓存将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 依赖注入: Repository → Service → Handler
	loc, err := cfg.Report.Location()
	if err != nil {
		return fmt.Errorf("解析报告时区失败: %w", err)
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, jwtMgr, rdb, loc, logger)
	h := handler.NewHandler(svc, loc)

	// 6. 预警扫描任务
	var sweep *job.AlertSweep
	if cfg.Alert.SweepEnabled {
		sweep, err = job.NewAlertSweep(cfg.Alert.Cron, loc, repo.Member, svc.Oversight, logger)
		if err != nil {
			return err
		}
		sweep.Start()
	}

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Setup(cfg, h, jwtMgr, rdb, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("HTTP 服务器异常: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	if sweep != nil {
		sweep.Stop(ctx)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("关闭链路追踪失败", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
	return runErr
}
