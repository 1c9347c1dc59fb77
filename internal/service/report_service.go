package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/internal/model"
	"cmci-cr/backend/internal/repository"
	apperrors "cmci-cr/backend/pkg/errors"
)

// ── CR 报告模块业务错误 ──

var (
	ErrReportNotFound      = apperrors.Wrap(apperrors.ErrNotFound, "报告不存在")
	ErrReportDuplicateDate = apperrors.Wrap(apperrors.ErrValidation, "该日期已提交过报告")
	ErrReportInvalidDate   = apperrors.Wrap(apperrors.ErrValidation, "报告日期格式应为 YYYY-MM-DD")
	ErrReportNotOwner      = apperrors.Wrap(apperrors.ErrForbidden, "只能修改自己的报告")
	ErrReportNotEditable   = apperrors.Wrap(apperrors.ErrInvalidState, "报告已超出可编辑期限或已被校验")
	ErrReportNotSubmitted  = apperrors.Wrap(apperrors.ErrInvalidState, "仅已提交的报告可执行该操作")
	ErrMemberInactive      = apperrors.Wrap(apperrors.ErrForbidden, "成员账号未激活")
)

// ReportService CR 报告业务接口。
// Validate 与 MarkViewed 是受信调用：监督关系由调用方校验。
type ReportService interface {
	Create(ctx context.Context, memberID string, req *dto.CreateReportRequest) (*dto.ReportResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ReportResponse, error)
	ListMine(ctx context.Context, memberID string, start, end time.Time) ([]dto.ReportResponse, error)
	ListUnseen(ctx context.Context, memberID string) ([]dto.ReportResponse, error)
	MyStatistics(ctx context.Context, memberID string, start, end time.Time) (*dto.PersonalStatistics, error)
	Update(ctx context.Context, id, requesterID string, req *dto.UpdateReportRequest) (*dto.ReportResponse, error)
	Delete(ctx context.Context, id, requesterID string) error
	Submit(ctx context.Context, id, requesterID string) (*dto.ReportResponse, error)
	Validate(ctx context.Context, id, validatorID string) (*dto.ReportResponse, error)
	MarkViewed(ctx context.Context, id, viewerID string) (*dto.ReportResponse, error)
}

type reportService struct {
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, clock Clock, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, clock: clock, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *reportService) Create(ctx context.Context, memberID string, req *dto.CreateReportRequest) (*dto.ReportResponse, error) {
	member, err := s.repo.Member.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if !member.IsActive() {
		return nil, ErrMemberInactive
	}

	now := s.clock()
	date, err := time.ParseInLocation("2006-01-02", req.ReportDate, now.Location())
	if err != nil {
		return nil, ErrReportInvalidDate
	}
	ratio, err := model.ParseDevotionalRatio(req.DevotionalRatio)
	if err != nil {
		return nil, err
	}

	report, err := model.NewReport(memberID, model.ReportInput{
		ReportDate:      date,
		DevotionalRatio: &ratio,
		PrayerMinutes:   req.PrayerMinutes,
		ChaptersRead:    req.ChaptersRead,
		Optional: model.ReportOptional{
			OtherPrayerMinutes: req.OtherPrayerMinutes,
			ReadingMaterial:    req.ReadingMaterial,
			ReadingPages:       req.ReadingPages,
			Confessed:          req.Confessed,
			Fasted:             req.Fasted,
			FastingType:        req.FastingType,
			EvangelismCount:    req.EvangelismCount,
			GaveOffering:       req.GaveOffering,
			Notes:              req.Notes,
		},
	}, now)
	if err != nil {
		return nil, err
	}

	// 预检查给出友好错误；唯一索引是最终保证
	exists, err := s.repo.Report.ExistsByMemberAndDate(ctx, memberID, report.ReportDate)
	if err != nil {
		s.logger.Error("检查报告重复失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrReportDuplicateDate
	}

	report.CreatedBy = &memberID
	if err := s.repo.Report.Create(ctx, &report); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrReportDuplicateDate
		}
		s.logger.Error("创建报告失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("报告已提交",
		zap.String("report_id", report.ReportID),
		zap.String("member_id", memberID),
		zap.String("report_date", model.DateKey(report.ReportDate)),
	)
	resp := toReportResponse(report, now)
	return &resp, nil
}

// ────────────────────── Queries ──────────────────────

func (s *reportService) GetByID(ctx context.Context, id string) (*dto.ReportResponse, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toReportResponse(*report, s.clock())
	return &resp, nil
}

func (s *reportService) ListMine(ctx context.Context, memberID string, start, end time.Time) ([]dto.ReportResponse, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	reports, err := s.repo.Report.ListByMemberAndRange(ctx, memberID, start, end)
	if err != nil {
		return nil, err
	}
	return toReportResponses(reports, s.clock()), nil
}

func (s *reportService) ListUnseen(ctx context.Context, memberID string) ([]dto.ReportResponse, error) {
	reports, err := s.repo.Report.ListUnseenByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return toReportResponses(reports, s.clock()), nil
}

func (s *reportService) MyStatistics(ctx context.Context, memberID string, start, end time.Time) (*dto.PersonalStatistics, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	reports, err := s.repo.Report.ListByMemberAndRange(ctx, memberID, start, end)
	if err != nil {
		return nil, err
	}
	stats := ComputePersonalStatistics(memberID, reports, start, end)
	return &stats, nil
}

// ────────────────────── Owner operations ──────────────────────

func (s *reportService) Update(ctx context.Context, id, requesterID string, req *dto.UpdateReportRequest) (*dto.ReportResponse, error) {
	report, err := s.loadEditable(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	patch, err := toReportPatch(req)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	next, err := report.ApplyPatch(patch, now)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, next, requesterID, now)
}

func (s *reportService) Delete(ctx context.Context, id, requesterID string) error {
	if _, err := s.loadEditable(ctx, id, requesterID); err != nil {
		return err
	}
	if err := s.repo.Report.SoftDelete(ctx, id, requesterID); err != nil {
		s.logger.Error("删除报告失败", zap.String("report_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("报告已删除", zap.String("report_id", id), zap.String("member_id", requesterID))
	return nil
}

func (s *reportService) Submit(ctx context.Context, id, requesterID string) (*dto.ReportResponse, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.MemberID != requesterID {
		return nil, ErrReportNotOwner
	}

	now := s.clock()
	next, err := report.Submit(now)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, next, requesterID, now)
}

// ────────────────────── Overseer operations ──────────────────────

func (s *reportService) Validate(ctx context.Context, id, validatorID string) (*dto.ReportResponse, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != model.ReportStatusSubmitted {
		return nil, ErrReportNotSubmitted
	}

	now := s.clock()
	next, err := report.ValidateTransition(validatorID, now)
	if err != nil {
		return nil, err
	}
	resp, err := s.persist(ctx, next, validatorID, now)
	if err != nil {
		return nil, err
	}
	s.logger.Info("报告已校验", zap.String("report_id", id), zap.String("validator_id", validatorID))
	return resp, nil
}

func (s *reportService) MarkViewed(ctx context.Context, id, viewerID string) (*dto.ReportResponse, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != model.ReportStatusSubmitted {
		return nil, ErrReportNotSubmitted
	}

	now := s.clock()
	next, err := report.MarkSeenByOverseer(now)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, next, viewerID, now)
}

// ── 内部工具 ──

func (s *reportService) load(ctx context.Context, id string) (*model.Report, error) {
	report, err := s.repo.Report.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("查询报告失败", zap.String("report_id", id), zap.Error(err))
		return nil, err
	}
	return report, nil
}

// loadEditable 更新与删除共用的前置检查：存在 → 本人 → 可编辑
func (s *reportService) loadEditable(ctx context.Context, id, requesterID string) (*model.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.MemberID != requesterID {
		return nil, ErrReportNotOwner
	}
	if !report.IsEditable(s.clock()) {
		return nil, ErrReportNotEditable
	}
	return report, nil
}

func (s *reportService) persist(ctx context.Context, next model.Report, actorID string, now time.Time) (*dto.ReportResponse, error) {
	next.UpdatedBy = &actorID
	if err := s.repo.Report.Update(ctx, &next); err != nil {
		s.logger.Error("保存报告失败", zap.String("report_id", next.ReportID), zap.Error(err))
		return nil, err
	}
	resp := toReportResponse(next, now)
	return &resp, nil
}

func toReportPatch(req *dto.UpdateReportRequest) (model.ReportPatch, error) {
	patch := model.ReportPatch{
		PrayerMinutes:      req.PrayerMinutes,
		ChaptersRead:       req.ChaptersRead,
		OtherPrayerMinutes: req.OtherPrayerMinutes,
		ReadingMaterial:    req.ReadingMaterial,
		ReadingPages:       req.ReadingPages,
		Confessed:          req.Confessed,
		Fasted:             req.Fasted,
		FastingType:        req.FastingType,
		EvangelismCount:    req.EvangelismCount,
		GaveOffering:       req.GaveOffering,
		Notes:              req.Notes,
	}
	if req.DevotionalRatio != nil {
		ratio, err := model.ParseDevotionalRatio(*req.DevotionalRatio)
		if err != nil {
			return model.ReportPatch{}, err
		}
		patch.DevotionalRatio = &ratio
	}
	return patch, nil
}

func toReportResponse(r model.Report, now time.Time) dto.ReportResponse {
	resp := dto.ReportResponse{
		ID:                 r.ReportID,
		MemberID:           r.MemberID,
		ReportDate:         model.DateKey(r.ReportDate),
		DevotionalRatio:    r.DevotionalRatio.String(),
		PrayerMinutes:      r.PrayerMinutes,
		ChaptersRead:       r.ChaptersRead,
		OtherPrayerMinutes: r.OtherPrayerMinutes,
		ReadingMaterial:    r.ReadingMaterial,
		ReadingPages:       r.ReadingPages,
		Confessed:          r.Confessed,
		Fasted:             r.Fasted,
		FastingType:        r.FastingType,
		EvangelismCount:    r.EvangelismCount,
		GaveOffering:       r.GaveOffering,
		Notes:              r.Notes,
		Status:             string(r.Status),
		SeenByOverseer:     r.SeenByOverseer,
		ValidatedBy:        r.ValidatedBy,
		Editable:           r.IsEditable(now),
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ValidatedAt != nil {
		resp.ValidatedAt = r.ValidatedAt.Format(time.RFC3339)
	}
	return resp
}

func toReportResponses(reports []model.Report, now time.Time) []dto.ReportResponse {
	list := make([]dto.ReportResponse, 0, len(reports))
	for _, r := range reports {
		list = append(list, toReportResponse(r, now))
	}
	return list
}
