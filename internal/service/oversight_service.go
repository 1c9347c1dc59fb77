package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/internal/model"
	"cmci-cr/backend/internal/repository"
	apperrors "cmci-cr/backend/pkg/errors"
)

// MaxRangeDays 单次查询允许的最大区间天数
const MaxRangeDays = 366

// ── 监督模块业务错误 ──

var (
	ErrOverseerNotFound  = apperrors.Wrap(apperrors.ErrNotFound, "监督人不存在")
	ErrInvalidDateRange  = apperrors.Wrap(apperrors.ErrValidation, "开始日期不能晚于结束日期")
	ErrDateRangeTooLong  = apperrors.Wrap(apperrors.ErrValidation, "查询区间不能超过 366 天")
	ErrNotDiscipleMaker  = apperrors.Wrap(apperrors.ErrInvalidState, "仅 FD 可查看门徒状态")
	ErrSubordinateAccess = apperrors.Wrap(apperrors.ErrForbidden, "该成员不在你的监督范围内")
)

// OversightService 监督业务接口。
// 层级授权（调用者是否为报告作者的监督人）由调用方负责，本服务只按 overseerID 解析范围。
type OversightService interface {
	ListSubordinateReports(ctx context.Context, overseerID string, start, end time.Time) ([]dto.SubordinateReportsResponse, error)
	ListSubordinateStatistics(ctx context.Context, overseerID string, start, end time.Time) ([]dto.SubordinateStatisticsResponse, error)
	DiscipleStatus(ctx context.Context, fdID string) (*dto.DiscipleStatusSummary, error)
	GroupStatistics(ctx context.Context, overseerID string, start, end time.Time) (*dto.GroupStatistics, error)
	IsSubordinate(ctx context.Context, overseerID, memberID string) (bool, error)
	// AlertSnapshot 返回监督人名下的预警快照；refresh 为 false 时优先读缓存
	AlertSnapshot(ctx context.Context, overseerID string, refresh bool) (*dto.AlertSnapshot, error)
}

type oversightService struct {
	repo     *repository.Repository
	resolver HierarchyResolver
	cache    AlertCache // 可为 nil
	clock    Clock
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewOversightService 创建 OversightService 实例；cache 为 nil 时每次实时计算
func NewOversightService(
	repo *repository.Repository,
	resolver HierarchyResolver,
	cache AlertCache,
	clock Clock,
	logger *zap.Logger,
) OversightService {
	return &oversightService{
		repo:     repo,
		resolver: resolver,
		cache:    cache,
		clock:    clock,
		tracer:   otel.Tracer("cmci-cr/oversight"),
		logger:   logger,
	}
}

// ────────────────────── ListSubordinateReports ──────────────────────

func (s *oversightService) ListSubordinateReports(ctx context.Context, overseerID string, start, end time.Time) ([]dto.SubordinateReportsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "oversight.list_subordinate_reports",
		trace.WithAttributes(
			attribute.String("overseer.id", overseerID),
			attribute.String("range.start", model.DateKey(start)),
			attribute.String("range.end", model.DateKey(end)),
		),
	)
	defer span.End()

	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	subs, err := s.subordinatesOf(ctx, overseerID)
	if err != nil {
		return nil, recordErr(span, err)
	}
	span.SetAttributes(attribute.Int("subordinate.count", len(subs)))

	reports, err := s.repo.Report.ListByMembersAndRange(ctx, memberIDs(subs), start, end)
	if err != nil {
		s.logger.Error("批量查询下属报告失败", zap.String("overseer_id", overseerID), zap.Error(err))
		return nil, recordErr(span, err)
	}
	byMember := groupByMember(inRange(reports, start, end))

	now := s.clock()
	today := model.DateOf(now)

	result := make([]dto.SubordinateReportsResponse, 0, len(subs))
	for _, m := range subs {
		own := byMember[m.MemberID]
		sortReportsDesc(own)

		last := LatestReportDate(own)
		daysSince := DaysSinceLastReport(last, today)
		level := AlertLevelFor(daysSince)

		items := make([]dto.ReportResponse, 0, len(own))
		for _, r := range own {
			items = append(items, toReportResponse(r, now))
		}

		result = append(result, dto.SubordinateReportsResponse{
			Member:              toMemberBrief(m),
			LastReportDate:      dateKeyPtr(last),
			DaysSinceLastReport: daysSince,
			RegularityRate:      RegularityRate(own, start, end),
			TotalReports:        len(own),
			AlertLevel:          string(level),
			HasAlert:            level.HasAlert(),
			Reports:             items,
		})
	}
	return result, nil
}

// ────────────────────── ListSubordinateStatistics ──────────────────────

func (s *oversightService) ListSubordinateStatistics(ctx context.Context, overseerID string, start, end time.Time) ([]dto.SubordinateStatisticsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "oversight.list_subordinate_statistics",
		trace.WithAttributes(attribute.String("overseer.id", overseerID)),
	)
	defer span.End()

	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	subs, err := s.subordinatesOf(ctx, overseerID)
	if err != nil {
		return nil, recordErr(span, err)
	}

	// 预警固定按 30 天回溯计算，与查询区间无关；两段区间合并为一次批量查询
	today := model.DateOf(s.clock())
	lbStart, lbEnd := LookbackWindow(today)
	from, to := unionRange(start, end, lbStart, lbEnd)

	reports, err := s.repo.Report.ListByMembersAndRange(ctx, memberIDs(subs), from, to)
	if err != nil {
		s.logger.Error("批量查询下属报告失败", zap.String("overseer_id", overseerID), zap.Error(err))
		return nil, recordErr(span, err)
	}
	byMember := groupByMember(reports)

	result := make([]dto.SubordinateStatisticsResponse, 0, len(subs))
	for _, m := range subs {
		own := byMember[m.MemberID]
		level := AlertLevelFor(DaysSinceLastReport(LatestReportDate(inRange(own, lbStart, lbEnd)), today))

		result = append(result, dto.SubordinateStatisticsResponse{
			Member:     toMemberBrief(m),
			Statistics: ComputePersonalStatistics(m.MemberID, own, start, end),
			AlertLevel: string(level),
			HasAlert:   level.HasAlert(),
		})
	}
	return result, nil
}

// ────────────────────── DiscipleStatus ──────────────────────

func (s *oversightService) DiscipleStatus(ctx context.Context, fdID string) (*dto.DiscipleStatusSummary, error) {
	ctx, span := s.tracer.Start(ctx, "oversight.disciple_status",
		trace.WithAttributes(attribute.String("fd.id", fdID)),
	)
	defer span.End()

	fd, err := s.loadOverseer(ctx, fdID)
	if err != nil {
		return nil, recordErr(span, err)
	}
	if fd.Role != model.RoleFD {
		return nil, ErrNotDiscipleMaker
	}

	disciples, err := s.resolver.Subordinates(ctx, *fd)
	if err != nil {
		return nil, recordErr(span, err)
	}
	sortMembersByName(disciples)

	today := model.DateOf(s.clock())
	lbStart, lbEnd := LookbackWindow(today)

	reports, err := s.repo.Report.ListByMembersAndRange(ctx, memberIDs(disciples), lbStart, lbEnd)
	if err != nil {
		s.logger.Error("查询门徒报告失败", zap.String("fd_id", fdID), zap.Error(err))
		return nil, recordErr(span, err)
	}
	byMember := groupByMember(inRange(reports, lbStart, lbEnd))

	summary := &dto.DiscipleStatusSummary{
		FDID:          fdID,
		DiscipleCount: len(disciples),
		Disciples:     make([]dto.DiscipleStatus, 0, len(disciples)),
	}
	for _, m := range disciples {
		own := byMember[m.MemberID]
		last := LatestReportDate(own)
		daysSince := DaysSinceLastReport(last, today)
		level := AlertLevelFor(daysSince)
		reportedToday := last != nil && model.SameDay(*last, today)

		if reportedToday {
			summary.ReportedTodayCount++
		}
		if level.HasAlert() {
			summary.AlertCount++
		}
		summary.Disciples = append(summary.Disciples, dto.DiscipleStatus{
			Member:              toMemberBrief(m),
			ReportedToday:       reportedToday,
			LastReportDate:      dateKeyPtr(last),
			DaysSinceLastReport: daysSince,
			RegularityRate:      RegularityRate(own, lbStart, lbEnd),
			AlertLevel:          string(level),
			HasAlert:            level.HasAlert(),
		})
	}
	return summary, nil
}

// ────────────────────── GroupStatistics ──────────────────────

func (s *oversightService) GroupStatistics(ctx context.Context, overseerID string, start, end time.Time) (*dto.GroupStatistics, error) {
	ctx, span := s.tracer.Start(ctx, "oversight.group_statistics",
		trace.WithAttributes(attribute.String("overseer.id", overseerID)),
	)
	defer span.End()

	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	subs, err := s.subordinatesOf(ctx, overseerID)
	if err != nil {
		return nil, recordErr(span, err)
	}

	today := model.DateOf(s.clock())
	lbStart, lbEnd := LookbackWindow(today)
	from, to := unionRange(start, end, lbStart, lbEnd)

	reports, err := s.repo.Report.ListByMembersAndRange(ctx, memberIDs(subs), from, to)
	if err != nil {
		s.logger.Error("查询群体报告失败", zap.String("overseer_id", overseerID), zap.Error(err))
		return nil, recordErr(span, err)
	}

	stats := ComputeGroupStatistics(subs, reports, start, end, today)
	return &stats, nil
}

// ────────────────────── IsSubordinate ──────────────────────

func (s *oversightService) IsSubordinate(ctx context.Context, overseerID, memberID string) (bool, error) {
	subs, err := s.subordinatesOf(ctx, overseerID)
	if err != nil {
		return false, err
	}
	for _, m := range subs {
		if m.MemberID == memberID {
			return true, nil
		}
	}
	return false, nil
}

// ────────────────────── AlertSnapshot ──────────────────────

func (s *oversightService) AlertSnapshot(ctx context.Context, overseerID string, refresh bool) (*dto.AlertSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "oversight.alert_snapshot",
		trace.WithAttributes(
			attribute.String("overseer.id", overseerID),
			attribute.Bool("refresh", refresh),
		),
	)
	defer span.End()

	if !refresh && s.cache != nil {
		snap, err := s.cache.GetSnapshot(ctx, overseerID)
		if err != nil {
			s.logger.Warn("读取预警快照缓存失败，改为实时计算", zap.String("overseer_id", overseerID), zap.Error(err))
		} else if snap != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return snap, nil
		}
	}

	subs, err := s.subordinatesOf(ctx, overseerID)
	if err != nil {
		return nil, recordErr(span, err)
	}

	now := s.clock()
	today := model.DateOf(now)
	lbStart, lbEnd := LookbackWindow(today)

	reports, err := s.repo.Report.ListByMembersAndRange(ctx, memberIDs(subs), lbStart, lbEnd)
	if err != nil {
		s.logger.Error("查询预警数据失败", zap.String("overseer_id", overseerID), zap.Error(err))
		return nil, recordErr(span, err)
	}
	byMember := groupByMember(inRange(reports, lbStart, lbEnd))

	snap := &dto.AlertSnapshot{
		OverseerID:  overseerID,
		GeneratedAt: now.Format(time.RFC3339),
		MemberCount: len(subs),
		Entries:     []dto.AlertEntry{},
	}
	for _, m := range subs {
		daysSince := DaysSinceLastReport(LatestReportDate(byMember[m.MemberID]), today)
		level := AlertLevelFor(daysSince)
		switch level {
		case model.AlertLevelNone:
			continue
		case model.AlertLevelWarning:
			snap.WarningCount++
		case model.AlertLevelCritical:
			snap.CriticalCount++
		}
		snap.Entries = append(snap.Entries, dto.AlertEntry{
			Member:              toMemberBrief(m),
			DaysSinceLastReport: daysSince,
			AlertLevel:          string(level),
		})
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, snap, AlertSnapshotTTL); err != nil {
			s.logger.Warn("写入预警快照缓存失败", zap.String("overseer_id", overseerID), zap.Error(err))
		}
	}
	return snap, nil
}

// ── 内部工具 ──

func (s *oversightService) loadOverseer(ctx context.Context, id string) (*model.Member, error) {
	m, err := s.repo.Member.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOverseerNotFound
		}
		s.logger.Error("查询监督人失败", zap.String("overseer_id", id), zap.Error(err))
		return nil, err
	}
	return m, nil
}

// subordinatesOf 解析下属并按姓名排序
func (s *oversightService) subordinatesOf(ctx context.Context, overseerID string) ([]model.Member, error) {
	overseer, err := s.loadOverseer(ctx, overseerID)
	if err != nil {
		return nil, err
	}
	subs, err := s.resolver.Subordinates(ctx, *overseer)
	if err != nil {
		return nil, err
	}
	sortMembersByName(subs)
	return subs, nil
}

func checkRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || model.DaysBetween(start, end) < 0 {
		return ErrInvalidDateRange
	}
	if DaysInRange(start, end) > MaxRangeDays {
		return ErrDateRangeTooLong
	}
	return nil
}

// unionRange 覆盖两个闭区间的最小区间
func unionRange(aStart, aEnd, bStart, bEnd time.Time) (time.Time, time.Time) {
	from, to := aStart, aEnd
	if model.DaysBetween(bStart, from) > 0 {
		from = bStart
	}
	if model.DaysBetween(to, bEnd) > 0 {
		to = bEnd
	}
	return from, to
}

func memberIDs(members []model.Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.MemberID)
	}
	return ids
}

func sortMembersByName(members []model.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].FullName != members[j].FullName {
			return members[i].FullName < members[j].FullName
		}
		return members[i].MemberID < members[j].MemberID
	})
}

func sortReportsDesc(reports []model.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].ReportDate.After(reports[j].ReportDate)
	})
}

func dateKeyPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	k := model.DateKey(*t)
	return &k
}

func recordErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
