package model

import (
	"time"

	apperrors "cmci-cr/backend/pkg/errors"
)

// ReportStatus CR 报告生命周期状态
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusSubmitted ReportStatus = "submitted"
	ReportStatusValidated ReportStatus = "validated"
)

// EditWindow 已提交报告自创建起的可编辑宽限期（按创建时间滚动计算，而非报告日期）
const EditWindow = 7 * 24 * time.Hour

// ── 报告实体错误 ──

var (
	ErrReportMemberRequired  = apperrors.Wrap(apperrors.ErrValidation, "报告所属成员不能为空")
	ErrReportDateRequired    = apperrors.Wrap(apperrors.ErrValidation, "报告日期不能为空")
	ErrReportFutureDate      = apperrors.Wrap(apperrors.ErrValidation, "报告日期不能晚于今天")
	ErrPrayerMinutesRequired = apperrors.Wrap(apperrors.ErrValidation, "祷告时长不能为空")
	ErrPrayerMinutesNegative = apperrors.Wrap(apperrors.ErrValidation, "祷告时长不能为负数")
	ErrChaptersReadRequired  = apperrors.Wrap(apperrors.ErrValidation, "读经章数不能为空")
	ErrChaptersReadNegative  = apperrors.Wrap(apperrors.ErrValidation, "读经章数不能为负数")
	ErrOptionalCountNegative = apperrors.Wrap(apperrors.ErrValidation, "可选计数字段不能为负数")
	ErrInvalidTransition     = apperrors.Wrap(apperrors.ErrInvalidState, "报告当前状态不允许该流转")
)

// Report CR 日报表 — 对应 reports
//
// 实体按值使用：所有变更方法均返回新副本，不修改接收者。
type Report struct {
	ReportID        string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"report_id"`
	MemberID        string          `gorm:"type:uuid;not null;index"                      json:"member_id"`
	ReportDate      time.Time       `gorm:"type:date;not null"                             json:"report_date"`
	DevotionalRatio DevotionalRatio `gorm:"embedded;embeddedPrefix:rdqd_"                  json:"devotional_ratio"`
	PrayerMinutes   int             `gorm:"not null"                                       json:"prayer_minutes"`
	ChaptersRead    int             `gorm:"not null"                                       json:"chapters_read"`

	// 可选字段
	OtherPrayerMinutes *int    `json:"other_prayer_minutes,omitempty"`
	ReadingMaterial    *string `gorm:"type:varchar(200)" json:"reading_material,omitempty"`
	ReadingPages       *int    `json:"reading_pages,omitempty"`
	Confessed          bool    `gorm:"not null;default:false" json:"confessed"`
	Fasted             bool    `gorm:"not null;default:false" json:"fasted"`
	FastingType        *string `gorm:"type:varchar(50)"  json:"fasting_type,omitempty"`
	EvangelismCount    *int    `json:"evangelism_count,omitempty"`
	GaveOffering       bool    `gorm:"not null;default:false" json:"gave_offering"`
	Notes              *string `gorm:"type:text"         json:"notes,omitempty"`

	Status         ReportStatus `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	SeenByOverseer bool         `gorm:"not null;default:false"                        json:"seen_by_overseer"`
	SeenAt         *time.Time   `json:"seen_at,omitempty"`
	ValidatedBy    *string      `gorm:"type:uuid" json:"validated_by,omitempty"`
	ValidatedAt    *time.Time   `json:"validated_at,omitempty"`
	VersionedModel

	// 关联
	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

// TableName 指定表名
func (Report) TableName() string { return "reports" }

// ReportInput 创建报告的输入；必填项用指针区分“未填写”与零值
type ReportInput struct {
	ReportDate      time.Time
	DevotionalRatio *DevotionalRatio
	PrayerMinutes   *int
	ChaptersRead    *int
	Optional        ReportOptional
}

// ReportOptional 报告可选字段
type ReportOptional struct {
	OtherPrayerMinutes *int
	ReadingMaterial    *string
	ReadingPages       *int
	Confessed          bool
	Fasted             bool
	FastingType        *string
	EvangelismCount    *int
	GaveOffering       bool
	Notes              *string
}

// ReportPatch 部分更新；nil 表示保留原值。报告日期不可修改。
type ReportPatch struct {
	DevotionalRatio    *DevotionalRatio
	PrayerMinutes      *int
	ChaptersRead       *int
	OtherPrayerMinutes *int
	ReadingMaterial    *string
	ReadingPages       *int
	Confessed          *bool
	Fasted             *bool
	FastingType        *string
	EvangelismCount    *int
	GaveOffering       *bool
	Notes              *string
}

// NewReport 通过公开创建路径构造报告：创建即提交（submitted）
func NewReport(memberID string, in ReportInput, now time.Time) (Report, error) {
	return newReport(memberID, in, ReportStatusSubmitted, now)
}

// NewDraftReport 构造草稿报告。
// 公开创建流程不会产生草稿，此构造器仅供直接构造场景使用。
func NewDraftReport(memberID string, in ReportInput, now time.Time) (Report, error) {
	return newReport(memberID, in, ReportStatusDraft, now)
}

func newReport(memberID string, in ReportInput, status ReportStatus, now time.Time) (Report, error) {
	if in.DevotionalRatio == nil {
		return Report{}, ErrDevotionalRatioRequired
	}
	if in.PrayerMinutes == nil {
		return Report{}, ErrPrayerMinutesRequired
	}
	if in.ChaptersRead == nil {
		return Report{}, ErrChaptersReadRequired
	}

	r := Report{
		MemberID:           memberID,
		ReportDate:         DateOf(in.ReportDate),
		DevotionalRatio:    *in.DevotionalRatio,
		PrayerMinutes:      *in.PrayerMinutes,
		ChaptersRead:       *in.ChaptersRead,
		OtherPrayerMinutes: in.Optional.OtherPrayerMinutes,
		ReadingMaterial:    in.Optional.ReadingMaterial,
		ReadingPages:       in.Optional.ReadingPages,
		Confessed:          in.Optional.Confessed,
		Fasted:             in.Optional.Fasted,
		FastingType:        in.Optional.FastingType,
		EvangelismCount:    in.Optional.EvangelismCount,
		GaveOffering:       in.Optional.GaveOffering,
		Notes:              in.Optional.Notes,
		Status:             status,
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	r.Version = 1

	if err := r.Validate(now); err != nil {
		return Report{}, err
	}
	return r, nil
}

// Validate 字段校验，每次持久化前调用
func (r Report) Validate(now time.Time) error {
	if r.MemberID == "" {
		return ErrReportMemberRequired
	}
	if r.ReportDate.IsZero() {
		return ErrReportDateRequired
	}
	if DaysBetween(now, r.ReportDate) > 0 {
		return ErrReportFutureDate
	}
	if err := r.DevotionalRatio.Validate(); err != nil {
		return err
	}
	if r.PrayerMinutes < 0 {
		return ErrPrayerMinutesNegative
	}
	if r.ChaptersRead < 0 {
		return ErrChaptersReadNegative
	}
	for _, v := range []*int{r.OtherPrayerMinutes, r.ReadingPages, r.EvangelismCount} {
		if v != nil && *v < 0 {
			return ErrOptionalCountNegative
		}
	}
	return nil
}

// IsEditable 草稿恒可编辑；已提交报告在创建后 7 天内可编辑；已校验报告不可编辑。
// 同时约束更新与删除。
func (r Report) IsEditable(now time.Time) bool {
	switch r.Status {
	case ReportStatusDraft:
		return true
	case ReportStatusSubmitted:
		return now.Sub(r.CreatedAt) <= EditWindow
	default:
		return false
	}
}

// Submit 草稿 → 已提交，会重新执行字段校验
func (r Report) Submit(now time.Time) (Report, error) {
	if r.Status != ReportStatusDraft {
		return Report{}, ErrInvalidTransition
	}
	if err := r.Validate(now); err != nil {
		return Report{}, err
	}
	r.Status = ReportStatusSubmitted
	r.UpdatedAt = now
	return r, nil
}

// ValidateTransition 已提交 → 已校验，并标记监督人已查看。
// 对已校验报告重复调用同样被拒绝。
func (r Report) ValidateTransition(validatorID string, now time.Time) (Report, error) {
	if r.Status != ReportStatusSubmitted {
		return Report{}, ErrInvalidTransition
	}
	r.Status = ReportStatusValidated
	r.SeenByOverseer = true
	if r.SeenAt == nil {
		r.SeenAt = &now
	}
	r.ValidatedBy = &validatorID
	r.ValidatedAt = &now
	r.UpdatedAt = now
	return r, nil
}

// MarkSeenByOverseer 仅在已提交状态下合法，只改变已查看标记
func (r Report) MarkSeenByOverseer(now time.Time) (Report, error) {
	if r.Status != ReportStatusSubmitted {
		return Report{}, ErrInvalidTransition
	}
	r.SeenByOverseer = true
	r.SeenAt = &now
	r.UpdatedAt = now
	return r, nil
}

// ── withers ──

// WithDevotionalRatio 返回替换 RDQD 后的副本
func (r Report) WithDevotionalRatio(ratio DevotionalRatio, now time.Time) Report {
	r.DevotionalRatio = ratio
	r.UpdatedAt = now
	return r
}

// WithPrayerMinutes 返回替换祷告时长后的副本
func (r Report) WithPrayerMinutes(minutes int, now time.Time) Report {
	r.PrayerMinutes = minutes
	r.UpdatedAt = now
	return r
}

// WithChaptersRead 返回替换读经章数后的副本
func (r Report) WithChaptersRead(chapters int, now time.Time) Report {
	r.ChaptersRead = chapters
	r.UpdatedAt = now
	return r
}

// WithOptional 返回替换全部可选字段后的副本
func (r Report) WithOptional(opt ReportOptional, now time.Time) Report {
	r.OtherPrayerMinutes = opt.OtherPrayerMinutes
	r.ReadingMaterial = opt.ReadingMaterial
	r.ReadingPages = opt.ReadingPages
	r.Confessed = opt.Confessed
	r.Fasted = opt.Fasted
	r.FastingType = opt.FastingType
	r.EvangelismCount = opt.EvangelismCount
	r.GaveOffering = opt.GaveOffering
	r.Notes = opt.Notes
	r.UpdatedAt = now
	return r
}

// Optional 当前可选字段快照
func (r Report) Optional() ReportOptional {
	return ReportOptional{
		OtherPrayerMinutes: r.OtherPrayerMinutes,
		ReadingMaterial:    r.ReadingMaterial,
		ReadingPages:       r.ReadingPages,
		Confessed:          r.Confessed,
		Fasted:             r.Fasted,
		FastingType:        r.FastingType,
		EvangelismCount:    r.EvangelismCount,
		GaveOffering:       r.GaveOffering,
		Notes:              r.Notes,
	}
}

// ApplyPatch 应用部分更新并重新校验，返回新副本
func (r Report) ApplyPatch(p ReportPatch, now time.Time) (Report, error) {
	next := r
	if p.DevotionalRatio != nil {
		next = next.WithDevotionalRatio(*p.DevotionalRatio, now)
	}
	if p.PrayerMinutes != nil {
		next = next.WithPrayerMinutes(*p.PrayerMinutes, now)
	}
	if p.ChaptersRead != nil {
		next = next.WithChaptersRead(*p.ChaptersRead, now)
	}

	opt := next.Optional()
	if p.OtherPrayerMinutes != nil {
		opt.OtherPrayerMinutes = p.OtherPrayerMinutes
	}
	if p.ReadingMaterial != nil {
		opt.ReadingMaterial = p.ReadingMaterial
	}
	if p.ReadingPages != nil {
		opt.ReadingPages = p.ReadingPages
	}
	if p.Confessed != nil {
		opt.Confessed = *p.Confessed
	}
	if p.Fasted != nil {
		opt.Fasted = *p.Fasted
		if !opt.Fasted {
			opt.FastingType = nil
		}
	}
	if p.FastingType != nil {
		opt.FastingType = p.FastingType
	}
	if p.EvangelismCount != nil {
		opt.EvangelismCount = p.EvangelismCount
	}
	if p.GaveOffering != nil {
		opt.GaveOffering = *p.GaveOffering
	}
	if p.Notes != nil {
		opt.Notes = p.Notes
	}
	next = next.WithOptional(opt, now)

	if err := next.Validate(now); err != nil {
		return Report{}, err
	}
	return next, nil
}
