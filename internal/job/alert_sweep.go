package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/internal/model"
)

// sweepTimeout 单次扫描的最长耗时
const sweepTimeout = 5 * time.Minute

// overseerRoles 参与预警扫描的监督角色
var overseerRoles = []model.Role{model.RoleFD, model.RoleLeader, model.RolePastor}

// MemberLister 按角色列出成员；repository.MemberRepository 满足该接口
type MemberLister interface {
	ListByRole(ctx context.Context, role model.Role) ([]model.Member, error)
}

// SnapshotRefresher 重算并缓存预警快照；service.OversightService 满足该接口
type SnapshotRefresher interface {
	AlertSnapshot(ctx context.Context, overseerID string, refresh bool) (*dto.AlertSnapshot, error)
}

// SweepSummary 单次扫描结果
type SweepSummary struct {
	Overseers     int
	Failed        int
	WarningCount  int
	CriticalCount int
}

// AlertSweep 预警扫描定时任务
// 按 cron 表达式为每个活跃监督人重算预警快照并写入缓存
type AlertSweep struct {
	members   MemberLister
	refresher SnapshotRefresher
	cron      *cron.Cron
	logger    *zap.Logger
}

// NewAlertSweep 创建预警扫描任务；spec 为标准 5 段 cron 表达式，按 loc 时区触发
func NewAlertSweep(spec string, loc *time.Location, members MemberLister, refresher SnapshotRefresher, logger *zap.Logger) (*AlertSweep, error) {
	s := &AlertSweep{
		members:   members,
		refresher: refresher,
		cron:      cron.New(cron.WithLocation(loc)),
		logger:    logger.Named("alert_sweep"),
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("注册预警扫描任务失败: %w", err)
	}
	return s, nil
}

// Start 启动调度（非阻塞）
func (s *AlertSweep) Start() {
	s.cron.Start()
	s.logger.Info("预警扫描任务已启动", zap.Time("next_run", s.nextRun()))
}

// Stop 停止调度并等待正在执行的扫描结束，ctx 到期则提前返回
func (s *AlertSweep) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("预警扫描任务已停止")
	case <-ctx.Done():
		s.logger.Warn("等待预警扫描结束超时", zap.Error(ctx.Err()))
	}
}

func (s *AlertSweep) nextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *AlertSweep) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("预警扫描失败", zap.Error(err))
	}
}

// RunOnce 立即执行一次扫描
// 单个监督人失败只记录日志，不影响其余监督人
func (s *AlertSweep) RunOnce(ctx context.Context) (SweepSummary, error) {
	start := time.Now()
	var summary SweepSummary

	for _, role := range overseerRoles {
		members, err := s.members.ListByRole(ctx, role)
		if err != nil {
			return summary, fmt.Errorf("查询角色 %s 的成员失败: %w", role, err)
		}

		for _, m := range members {
			if !m.IsActive() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			summary.Overseers++
			snapshot, err := s.refresher.AlertSnapshot(ctx, m.MemberID, true)
			if err != nil {
				summary.Failed++
				s.logger.Warn("生成预警快照失败",
					zap.String("overseer_id", m.MemberID),
					zap.String("role", string(role)),
					zap.Error(err),
				)
				continue
			}
			summary.WarningCount += snapshot.WarningCount
			summary.CriticalCount += snapshot.CriticalCount
		}
	}

	s.logger.Info("预警扫描完成",
		zap.Int("overseers", summary.Overseers),
		zap.Int("failed", summary.Failed),
		zap.Int("warning", summary.WarningCount),
		zap.Int("critical", summary.CriticalCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}
