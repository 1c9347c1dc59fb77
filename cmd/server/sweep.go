package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cmci-cr/backend/internal/job"
	"cmci-cr/backend/internal/repository"
	"cmci-cr/backend/internal/service"
	"cmci-cr/backend/pkg/jwt"
	"cmci-cr/backend/pkg/redis"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "立即执行一次预警扫描并刷新快照缓存",
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db, logger)

	// 无 Redis 时快照只计算不缓存
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，快照不会写入缓存", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	loc, err := cfg.Report.Location()
	if err != nil {
		return fmt.Errorf("解析报告时区失败: %w", err)
	}
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, jwt.NewManager(&cfg.Auth), rdb, loc, logger)

	// 仅执行一次，调度表达式不生效；定时扫描关闭时 alert.cron 未经校验
	spec := cfg.Alert.Cron
	if !cfg.Alert.SweepEnabled {
		spec = "@daily"
	}
	sweep, err := job.NewAlertSweep(spec, loc, repo.Member, svc.Oversight, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	summary, err := sweep.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "监督人 %d（失败 %d），WARNING %d，CRITICAL %d\n",
		summary.Overseers, summary.Failed, summary.WarningCount, summary.CriticalCount)
	return nil
}
