package service

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"cmci-cr/backend/internal/model"
)

func reportOn(memberID string, date time.Time, ratio model.DevotionalRatio, prayer, chapters int) model.Report {
	r := model.Report{
		ReportID:        memberID + "-" + model.DateKey(date),
		MemberID:        memberID,
		ReportDate:      model.DateOf(date),
		DevotionalRatio: ratio,
		PrayerMinutes:   prayer,
		ChaptersRead:    chapters,
		Status:          model.ReportStatusSubmitted,
	}
	return r
}

var fullRatio = model.DevotionalRatio{Accomplished: 7, Expected: 7}

// ── AlertLevelFor ──

func TestAlertLevelFor(t *testing.T) {
	tests := []struct {
		name string
		days *int
		want model.AlertLevel
	}{
		{"从未报告", nil, model.AlertLevelCritical},
		{"今天已报告", intPtr(0), model.AlertLevelNone},
		{"2天", intPtr(2), model.AlertLevelNone},
		{"3天", intPtr(3), model.AlertLevelWarning},
		{"6天", intPtr(6), model.AlertLevelWarning},
		{"7天", intPtr(7), model.AlertLevelCritical},
		{"30天", intPtr(30), model.AlertLevelCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlertLevelFor(tt.days); got != tt.want {
				t.Errorf("期望 %s，实际 %s", tt.want, got)
			}
		})
	}
}

func TestAlertLevelFor_MonotonicInDays(t *testing.T) {
	rank := map[model.AlertLevel]int{
		model.AlertLevelNone:     0,
		model.AlertLevelWarning:  1,
		model.AlertLevelCritical: 2,
	}
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 400).Draw(t, "a")
		b := rapid.IntRange(a, 400).Draw(t, "b")
		if rank[AlertLevelFor(&a)] > rank[AlertLevelFor(&b)] {
			t.Fatalf("间隔更长的预警级别不应更低: %d→%s, %d→%s", a, AlertLevelFor(&a), b, AlertLevelFor(&b))
		}
		if AlertLevelFor(&b).HasAlert() != (b >= WarningAfterDays) {
			t.Fatalf("HasAlert 与阈值不一致: days=%d", b)
		}
	})
}

// ── Regularity ──

func TestRegularityRate_FiveOfSeven(t *testing.T) {
	start := daysAgo(6)
	end := daysAgo(0)
	var reports []model.Report
	for _, n := range []int{0, 1, 2, 4, 6} {
		reports = append(reports, reportOn("m1", daysAgo(n), fullRatio, 10, 1))
	}

	if got := RegularityRate(reports, start, end); got != 71.43 {
		t.Errorf("期望 71.43，实际 %v", got)
	}
}

func TestRegularityRate_IgnoresOutOfRangeAndDrafts(t *testing.T) {
	start := daysAgo(6)
	end := daysAgo(0)
	draft := reportOn("m1", daysAgo(1), fullRatio, 10, 1)
	draft.Status = model.ReportStatusDraft
	reports := []model.Report{
		reportOn("m1", daysAgo(0), fullRatio, 10, 1),
		reportOn("m1", daysAgo(10), fullRatio, 10, 1),
		draft,
	}

	if got := RegularityRate(reports, start, end); got != 14.29 {
		t.Errorf("期望 14.29，实际 %v", got)
	}
}

func TestRegularityRate_Bounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		span := rapid.IntRange(0, 60).Draw(t, "span")
		offsets := rapid.SliceOf(rapid.IntRange(0, 90)).Draw(t, "offsets")
		var reports []model.Report
		for _, o := range offsets {
			reports = append(reports, reportOn("m1", daysAgo(o), fullRatio, 0, 0))
		}
		rate := RegularityRate(reports, daysAgo(span), daysAgo(0))
		if rate < 0 || rate > 100 {
			t.Fatalf("规律率越界: %v", rate)
		}
	})
}

// ── Personal statistics ──

func TestComputePersonalStatistics(t *testing.T) {
	start := daysAgo(9)
	end := daysAgo(0)

	r1 := reportOn("m1", daysAgo(0), fullRatio, 60, 3)
	r1.Confessed = true
	r1.EvangelismCount = intPtr(2)
	r2 := reportOn("m1", daysAgo(1), model.DevotionalRatio{Accomplished: 3, Expected: 7}, 30, 2)
	r2.Fasted = true
	r2.FastingType = strPtr("partial")
	r3 := reportOn("m1", daysAgo(5), fullRatio, 0, 0)
	outside := reportOn("m1", daysAgo(20), fullRatio, 999, 999)

	stats := ComputePersonalStatistics("m1", []model.Report{r1, r2, r3, outside}, start, end)

	if stats.TotalDays != 10 {
		t.Errorf("期望 TotalDays=10，实际 %d", stats.TotalDays)
	}
	if stats.TotalReports != 3 {
		t.Errorf("期望 TotalReports=3，实际 %d", stats.TotalReports)
	}
	if stats.RegularityRate != 30 {
		t.Errorf("期望 RegularityRate=30，实际 %v", stats.RegularityRate)
	}
	if stats.RDQDCompletedCount != 2 || stats.RDQDCompletionRate != 66.67 {
		t.Errorf("期望 RDQD 2 / 66.67，实际 %d / %v", stats.RDQDCompletedCount, stats.RDQDCompletionRate)
	}
	if stats.TotalPrayerMinutes != 90 || stats.AvgPrayerMinutes != 30 {
		t.Errorf("期望祷告 90 / 30，实际 %d / %v", stats.TotalPrayerMinutes, stats.AvgPrayerMinutes)
	}
	if stats.TotalChaptersRead != 5 || stats.AvgChaptersPerDay != 0.5 {
		t.Errorf("期望读经 5 / 0.5，实际 %d / %v", stats.TotalChaptersRead, stats.AvgChaptersPerDay)
	}
	if stats.EvangelismTotal != 2 || stats.ConfessionCount != 1 || stats.FastingCount != 1 {
		t.Errorf("可选字段统计错误: %+v", stats)
	}
	if stats.StartDate != model.DateKey(start) || stats.EndDate != model.DateKey(end) {
		t.Errorf("区间回显错误: %s ~ %s", stats.StartDate, stats.EndDate)
	}
}

func TestComputePersonalStatistics_NoReports(t *testing.T) {
	stats := ComputePersonalStatistics("m1", nil, daysAgo(0), daysAgo(0))
	if stats.TotalDays != 1 {
		t.Errorf("单日区间 TotalDays 应为 1，实际 %d", stats.TotalDays)
	}
	if stats.RegularityRate != 0 || stats.AvgPrayerMinutes != 0 || stats.RDQDCompletionRate != 0 {
		t.Errorf("无报告时比率应为 0: %+v", stats)
	}
}

// ── Group statistics ──

func TestComputeGroupStatistics_EmptyGroup(t *testing.T) {
	stats := ComputeGroupStatistics(nil, nil, daysAgo(6), daysAgo(0), testNow)
	if stats.MemberCount != 0 {
		t.Errorf("期望 MemberCount=0，实际 %d", stats.MemberCount)
	}
	if stats.RegularityRate != 0 || stats.TodayRate != 0 || stats.AvgChaptersPerDay != 0 {
		t.Errorf("空集合比率应为 0 而非 NaN: %+v", stats)
	}
}

func TestComputeGroupStatistics_AlertsAndToday(t *testing.T) {
	members := []model.Member{
		{MemberID: "d1", FullName: "D1", Status: model.MemberStatusActive},
		{MemberID: "d2", FullName: "D2", Status: model.MemberStatusActive},
		{MemberID: "d3", FullName: "D3", Status: model.MemberStatusActive},
		{MemberID: "d4", FullName: "D4", Status: model.MemberStatusActive},
	}
	reports := []model.Report{
		reportOn("d1", daysAgo(0), fullRatio, 10, 2),
		reportOn("d2", daysAgo(0), fullRatio, 10, 2),
		reportOn("d3", daysAgo(10), fullRatio, 10, 2), // CRITICAL
		reportOn("d4", daysAgo(4), fullRatio, 10, 2),  // WARNING
		reportOn("outsider", daysAgo(0), fullRatio, 10, 2),
	}

	stats := ComputeGroupStatistics(members, reports, daysAgo(6), daysAgo(0), testNow)

	if stats.TodayCount != 2 || stats.TodayRate != 50 {
		t.Errorf("期望今日 2 / 50，实际 %d / %v", stats.TodayCount, stats.TodayRate)
	}
	if stats.AlertCount != 2 {
		t.Errorf("期望 AlertCount=2，实际 %d", stats.AlertCount)
	}
	if stats.InactiveCount != 1 {
		t.Errorf("期望 InactiveCount=1，实际 %d", stats.InactiveCount)
	}
	// 区间内：d1、d2、d4 各 1 条
	if stats.TotalReports != 3 {
		t.Errorf("期望 TotalReports=3，实际 %d", stats.TotalReports)
	}
	// 3 个（成员,日） / (4 × 7)
	if stats.RegularityRate != 10.71 {
		t.Errorf("期望 RegularityRate=10.71，实际 %v", stats.RegularityRate)
	}
}

func TestComputeGroupStatistics_AlertIgnoresRange(t *testing.T) {
	members := []model.Member{{MemberID: "d1", FullName: "D1", Status: model.MemberStatusActive}}
	reports := []model.Report{reportOn("d1", daysAgo(1), fullRatio, 10, 2)}

	// 查询一个很早的区间，预警仍按今天往回 30 天计算
	stats := ComputeGroupStatistics(members, reports, daysAgo(90), daysAgo(60), testNow)
	if stats.TotalReports != 0 {
		t.Errorf("区间外报告不应计入，实际 %d", stats.TotalReports)
	}
	if stats.AlertCount != 0 {
		t.Errorf("昨天报告过的成员不应预警，实际 AlertCount=%d", stats.AlertCount)
	}
}

// ── Helpers ──

func TestDaysInRangeAndLookback(t *testing.T) {
	if got := DaysInRange(daysAgo(6), daysAgo(0)); got != 7 {
		t.Errorf("期望 7，实际 %d", got)
	}
	start, end := LookbackWindow(testNow)
	if got := DaysInRange(start, end); got != LookbackDays {
		t.Errorf("回溯窗口应为 %d 天，实际 %d", LookbackDays, got)
	}
	if !model.SameDay(end, testNow) {
		t.Error("回溯窗口应以今天结尾")
	}
}

func TestDaysSinceLastReport(t *testing.T) {
	if DaysSinceLastReport(nil, testNow) != nil {
		t.Error("无报告时应返回 nil")
	}
	last := daysAgo(4)
	if got := DaysSinceLastReport(&last, testNow); got == nil || *got != 4 {
		t.Errorf("期望 4，实际 %v", got)
	}
}
