package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"cmci-cr/backend/internal/model"
	pkgerrors "cmci-cr/backend/pkg/errors"
)

// ErrDuplicateKey 违反唯一约束（依赖 gorm.Config.TranslateError）
var ErrDuplicateKey = errors.New("违反唯一约束")

// ReportRepository CR 报告数据访问接口
type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	Update(ctx context.Context, report *model.Report) error
	SoftDelete(ctx context.Context, id string, deletedBy string) error
	GetByID(ctx context.Context, id string) (*model.Report, error)
	ListByMemberAndRange(ctx context.Context, memberID string, start, end time.Time) ([]model.Report, error)
	ExistsByMemberAndDate(ctx context.Context, memberID string, date time.Time) (bool, error)
	ListUnseenByMember(ctx context.Context, memberID string) ([]model.Report, error)
	// ListByMembersAndRange 批量查询一组成员在日期区间内的报告，避免 N+1
	ListByMembersAndRange(ctx context.Context, memberIDs []string, start, end time.Time) ([]model.Report, error)
}

// reportRepo ReportRepository 的 GORM 实现
type reportRepo struct {
	db *gorm.DB
}

// NewReportRepo 创建 ReportRepository 实例
func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) Create(ctx context.Context, report *model.Report) error {
	err := r.db.WithContext(ctx).Create(report).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

func (r *reportRepo) Update(ctx context.Context, report *model.Report) error {
	oldVersion := report.Version
	result := r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("report_id = ? AND version = ?", report.ReportID, oldVersion).
		Updates(map[string]interface{}{
			"rdqd_accomplished":    report.DevotionalRatio.Accomplished,
			"rdqd_expected":        report.DevotionalRatio.Expected,
			"prayer_minutes":       report.PrayerMinutes,
			"chapters_read":        report.ChaptersRead,
			"other_prayer_minutes": report.OtherPrayerMinutes,
			"reading_material":     report.ReadingMaterial,
			"reading_pages":        report.ReadingPages,
			"confessed":            report.Confessed,
			"fasted":               report.Fasted,
			"fasting_type":         report.FastingType,
			"evangelism_count":     report.EvangelismCount,
			"gave_offering":        report.GaveOffering,
			"notes":                report.Notes,
			"status":               report.Status,
			"seen_by_overseer":     report.SeenByOverseer,
			"seen_at":              report.SeenAt,
			"validated_by":         report.ValidatedBy,
			"validated_at":         report.ValidatedAt,
			"updated_by":           report.UpdatedBy,
			"updated_at":           report.UpdatedAt,
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	report.Version = oldVersion + 1
	return nil
}

func (r *reportRepo) SoftDelete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("report_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	err := r.db.WithContext(ctx).
		Where("report_id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ListByMemberAndRange(ctx context.Context, memberID string, start, end time.Time) ([]model.Report, error) {
	var reports []model.Report
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND report_date BETWEEN ? AND ?", memberID, model.DateKey(start), model.DateKey(end)).
		Order("report_date DESC").
		Find(&reports).Error
	return reports, err
}

func (r *reportRepo) ExistsByMemberAndDate(ctx context.Context, memberID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("member_id = ? AND report_date = ?", memberID, model.DateKey(date)).
		Count(&count).Error
	return count > 0, err
}

func (r *reportRepo) ListUnseenByMember(ctx context.Context, memberID string) ([]model.Report, error) {
	var reports []model.Report
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND status = ? AND seen_by_overseer = ?", memberID, model.ReportStatusSubmitted, false).
		Order("report_date DESC").
		Find(&reports).Error
	return reports, err
}

func (r *reportRepo) ListByMembersAndRange(ctx context.Context, memberIDs []string, start, end time.Time) ([]model.Report, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	var reports []model.Report
	err := r.db.WithContext(ctx).
		Where("member_id IN ? AND report_date BETWEEN ? AND ?", memberIDs, model.DateKey(start), model.DateKey(end)).
		Order("report_date DESC").
		Find(&reports).Error
	return reports, err
}
