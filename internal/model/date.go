package model

import "time"

// DateOf 截取 t 所在的自然日（保留时区）
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween 返回 from 到 to 相隔的自然日数，只比较年月日，不受时区与夏令时影响
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// SameDay 判断两个时间是否落在同一自然日
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// DateKey 自然日的字符串键（YYYY-MM-DD），用于按日去重
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
