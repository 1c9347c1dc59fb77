package service

import "time"

// Clock 当前时间来源；“今天”按教会所在时区判定
type Clock func() time.Time

// NewClock 返回位于 loc 时区的系统时钟
func NewClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// FixedClock 固定时间的时钟，用于测试与离线重算
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
