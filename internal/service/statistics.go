package service

import (
	"math"
	"time"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/internal/model"
)

// ── 统计引擎 ──
// 纯函数，不访问存储；所有日期按自然日比较。

const (
	// WarningAfterDays 连续未报告达到该天数进入 WARNING
	WarningAfterDays = 3
	// CriticalAfterDays 连续未报告达到该天数进入 CRITICAL
	CriticalAfterDays = 7
	// LookbackDays 预警与门徒状态使用的固定回溯窗口（含今天）
	LookbackDays = 30
)

// AlertLevelFor 唯一的预警判定规则。
// daysSince 为 nil 表示回溯窗口内没有任何报告，按 CRITICAL 处理。
func AlertLevelFor(daysSince *int) model.AlertLevel {
	switch {
	case daysSince == nil || *daysSince >= CriticalAfterDays:
		return model.AlertLevelCritical
	case *daysSince >= WarningAfterDays:
		return model.AlertLevelWarning
	default:
		return model.AlertLevelNone
	}
}

// DaysInRange 闭区间 [start, end] 包含的天数；调用方保证 start <= end
func DaysInRange(start, end time.Time) int {
	return model.DaysBetween(start, end) + 1
}

// LookbackWindow 以 today 结尾、共 LookbackDays 天的回溯窗口
func LookbackWindow(today time.Time) (start, end time.Time) {
	end = model.DateOf(today)
	return end.AddDate(0, 0, -(LookbackDays - 1)), end
}

// LatestReportDate 返回报告中最近的报告日期，无报告时返回 nil
func LatestReportDate(reports []model.Report) *time.Time {
	var latest *time.Time
	for i := range reports {
		if !counted(reports[i]) {
			continue
		}
		d := reports[i].ReportDate
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest
}

// DaysSinceLastReport 距最近一次报告的天数；last 为 nil 时返回 nil
func DaysSinceLastReport(last *time.Time, today time.Time) *int {
	if last == nil {
		return nil
	}
	d := model.DaysBetween(*last, today)
	return &d
}

// RegularityRate 区间内有报告的天数占比（百分比，两位小数）
func RegularityRate(reports []model.Report, start, end time.Time) float64 {
	days := DaysInRange(start, end)
	return round2(percent(len(reportedDays(inRange(reports, start, end))), days))
}

// ComputePersonalStatistics 计算单个成员在 [start, end] 内的个人统计；区间外的报告会被忽略
func ComputePersonalStatistics(memberID string, reports []model.Report, start, end time.Time) dto.PersonalStatistics {
	days := DaysInRange(start, end)
	ranged := inRange(reports, start, end)
	reported := len(reportedDays(ranged))
	agg := aggregate(ranged)

	return dto.PersonalStatistics{
		MemberID:           memberID,
		StartDate:          model.DateKey(start),
		EndDate:            model.DateKey(end),
		TotalDays:          days,
		TotalReports:       agg.total,
		ReportedDays:       reported,
		RegularityRate:     round2(percent(reported, days)),
		RDQDCompletedCount: agg.rdqdCompleted,
		RDQDCompletionRate: round2(percent(agg.rdqdCompleted, agg.total)),
		TotalPrayerMinutes: agg.prayerMinutes,
		AvgPrayerMinutes:   round2(ratio(agg.prayerMinutes, agg.total)),
		TotalChaptersRead:  agg.chapters,
		AvgChaptersPerDay:  round2(ratio(agg.chapters, days)),
		EvangelismTotal:    agg.evangelism,
		ConfessionCount:    agg.confessions,
		FastingCount:       agg.fastings,
	}
}

// ComputeGroupStatistics 计算成员集合的聚合统计。
// reports 需覆盖 [start, end] 与以 today 结尾的回溯窗口，二者在函数内分别筛选。
func ComputeGroupStatistics(members []model.Member, reports []model.Report, start, end, today time.Time) dto.GroupStatistics {
	days := DaysInRange(start, end)
	memberCount := len(members)

	inGroup := make(map[string]struct{}, memberCount)
	for _, m := range members {
		inGroup[m.MemberID] = struct{}{}
	}
	var own []model.Report
	for _, r := range reports {
		if _, ok := inGroup[r.MemberID]; ok {
			own = append(own, r)
		}
	}

	ranged := inRange(own, start, end)
	agg := aggregate(ranged)

	memberDays := make(map[string]struct{}, len(ranged))
	for _, r := range ranged {
		memberDays[r.MemberID+"|"+model.DateKey(r.ReportDate)] = struct{}{}
	}

	lbStart, lbEnd := LookbackWindow(today)
	byMember := groupByMember(inRange(own, lbStart, lbEnd))

	todayCount, alertCount, inactiveCount := 0, 0, 0
	for _, m := range members {
		last := LatestReportDate(byMember[m.MemberID])
		if last != nil && model.SameDay(*last, today) {
			todayCount++
		}
		switch AlertLevelFor(DaysSinceLastReport(last, today)) {
		case model.AlertLevelCritical:
			alertCount++
			inactiveCount++
		case model.AlertLevelWarning:
			alertCount++
		}
	}

	return dto.GroupStatistics{
		StartDate:          model.DateKey(start),
		EndDate:            model.DateKey(end),
		TotalDays:          days,
		MemberCount:        memberCount,
		TotalReports:       agg.total,
		RegularityRate:     round2(percent(len(memberDays), memberCount*days)),
		RDQDCompletedCount: agg.rdqdCompleted,
		RDQDCompletionRate: round2(percent(agg.rdqdCompleted, agg.total)),
		TotalPrayerMinutes: agg.prayerMinutes,
		AvgPrayerMinutes:   round2(ratio(agg.prayerMinutes, agg.total)),
		TotalChaptersRead:  agg.chapters,
		AvgChaptersPerDay:  round2(ratio(agg.chapters, memberCount*days)),
		EvangelismTotal:    agg.evangelism,
		ConfessionCount:    agg.confessions,
		FastingCount:       agg.fastings,
		TodayCount:         todayCount,
		TodayRate:          round2(percent(todayCount, memberCount)),
		AlertCount:         alertCount,
		InactiveCount:      inactiveCount,
	}
}

// ── 内部工具 ──

type totals struct {
	total         int
	rdqdCompleted int
	prayerMinutes int
	chapters      int
	evangelism    int
	confessions   int
	fastings      int
}

func aggregate(reports []model.Report) totals {
	var t totals
	for _, r := range reports {
		t.total++
		if r.DevotionalRatio.IsComplete() {
			t.rdqdCompleted++
		}
		t.prayerMinutes += r.PrayerMinutes
		t.chapters += r.ChaptersRead
		if r.EvangelismCount != nil {
			t.evangelism += *r.EvangelismCount
		}
		if r.Confessed {
			t.confessions++
		}
		if r.Fasted {
			t.fastings++
		}
	}
	return t
}

// counted 草稿不计入任何统计
func counted(r model.Report) bool {
	return r.Status != model.ReportStatusDraft
}

func inRange(reports []model.Report, start, end time.Time) []model.Report {
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if !counted(r) {
			continue
		}
		if model.DaysBetween(start, r.ReportDate) >= 0 && model.DaysBetween(r.ReportDate, end) >= 0 {
			out = append(out, r)
		}
	}
	return out
}

func reportedDays(reports []model.Report) map[string]struct{} {
	days := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		days[model.DateKey(r.ReportDate)] = struct{}{}
	}
	return days
}

func groupByMember(reports []model.Report) map[string][]model.Report {
	out := make(map[string][]model.Report)
	for _, r := range reports {
		out[r.MemberID] = append(out[r.MemberID], r)
	}
	return out
}

func percent(part, whole int) float64 {
	return ratio(part, whole) * 100
}

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
