package dto

// ── 统计与监督模块 DTO ──

// PersonalStatistics 个人统计（日期闭区间）
type PersonalStatistics struct {
	MemberID           string  `json:"member_id"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	TotalDays          int     `json:"total_days"`
	TotalReports       int     `json:"total_reports"`
	ReportedDays       int     `json:"reported_days"`
	RegularityRate     float64 `json:"regularity_rate"` // 百分比，保留两位小数
	RDQDCompletedCount int     `json:"rdqd_completed_count"`
	RDQDCompletionRate float64 `json:"rdqd_completion_rate"`
	TotalPrayerMinutes int     `json:"total_prayer_minutes"`
	AvgPrayerMinutes   float64 `json:"avg_prayer_minutes"` // 按报告数平均
	TotalChaptersRead  int     `json:"total_chapters_read"`
	AvgChaptersPerDay  float64 `json:"avg_chapters_per_day"` // 按区间天数平均
	EvangelismTotal    int     `json:"evangelism_total"`
	ConfessionCount    int     `json:"confession_count"`
	FastingCount       int     `json:"fasting_count"`
}

// GroupStatistics 成员集合的聚合统计
type GroupStatistics struct {
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	TotalDays          int     `json:"total_days"`
	MemberCount        int     `json:"member_count"`
	TotalReports       int     `json:"total_reports"`
	RegularityRate     float64 `json:"regularity_rate"` // 已报告的（成员,日）数 / (成员数 × 天数)
	RDQDCompletedCount int     `json:"rdqd_completed_count"`
	RDQDCompletionRate float64 `json:"rdqd_completion_rate"`
	TotalPrayerMinutes int     `json:"total_prayer_minutes"`
	AvgPrayerMinutes   float64 `json:"avg_prayer_minutes"`
	TotalChaptersRead  int     `json:"total_chapters_read"`
	AvgChaptersPerDay  float64 `json:"avg_chapters_per_day"` // 按（成员 × 天）平均
	EvangelismTotal    int     `json:"evangelism_total"`
	ConfessionCount    int     `json:"confession_count"`
	FastingCount       int     `json:"fasting_count"`
	TodayCount         int     `json:"today_count"`
	TodayRate          float64 `json:"today_rate"`
	AlertCount         int     `json:"alert_count"`    // ≥3 天未报告
	InactiveCount      int     `json:"inactive_count"` // ≥7 天未报告
}

// MemberBrief 成员简要信息
type MemberBrief struct {
	ID            string  `json:"id"`
	FullName      string  `json:"full_name"`
	Role          string  `json:"role"`
	HouseChurchID *string `json:"house_church_id,omitempty"`
}

// SubordinateReportsResponse 下属 CR 报告汇总
type SubordinateReportsResponse struct {
	Member              MemberBrief      `json:"member"`
	LastReportDate      *string          `json:"last_report_date"`
	DaysSinceLastReport *int             `json:"days_since_last_report"`
	RegularityRate      float64          `json:"regularity_rate"`
	TotalReports        int              `json:"total_reports"`
	AlertLevel          string           `json:"alert_level"`
	HasAlert            bool             `json:"has_alert"`
	Reports             []ReportResponse `json:"reports"`
}

// SubordinateStatisticsResponse 下属个人统计
type SubordinateStatisticsResponse struct {
	Member     MemberBrief        `json:"member"`
	Statistics PersonalStatistics `json:"statistics"`
	AlertLevel string             `json:"alert_level"` // 固定 30 天回溯，与查询区间无关
	HasAlert   bool               `json:"has_alert"`
}

// DiscipleStatus FD 门徒状态
type DiscipleStatus struct {
	Member              MemberBrief `json:"member"`
	ReportedToday       bool        `json:"reported_today"`
	LastReportDate      *string     `json:"last_report_date"`
	DaysSinceLastReport *int        `json:"days_since_last_report"`
	RegularityRate      float64     `json:"regularity_rate"` // 近 30 天
	AlertLevel          string      `json:"alert_level"`
	HasAlert            bool        `json:"has_alert"`
}

// DiscipleStatusSummary FD 门徒状态面板
type DiscipleStatusSummary struct {
	FDID               string           `json:"fd_id"`
	DiscipleCount      int              `json:"disciple_count"`
	ReportedTodayCount int              `json:"reported_today_count"`
	AlertCount         int              `json:"alert_count"`
	Disciples          []DiscipleStatus `json:"disciples"`
}

// AlertEntry 预警成员
type AlertEntry struct {
	Member              MemberBrief `json:"member"`
	DaysSinceLastReport *int        `json:"days_since_last_report"`
	AlertLevel          string      `json:"alert_level"`
}

// AlertSnapshot 监督人名下的预警快照（由定时任务写入缓存）
type AlertSnapshot struct {
	OverseerID    string       `json:"overseer_id"`
	GeneratedAt   string       `json:"generated_at"`
	MemberCount   int          `json:"member_count"`
	WarningCount  int          `json:"warning_count"`
	CriticalCount int          `json:"critical_count"`
	Entries       []AlertEntry `json:"entries"`
}
