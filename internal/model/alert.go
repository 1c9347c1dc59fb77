package model

// AlertLevel 成员报告间隔的预警级别
type AlertLevel string

const (
	AlertLevelNone     AlertLevel = "NONE"
	AlertLevelWarning  AlertLevel = "WARNING"
	AlertLevelCritical AlertLevel = "CRITICAL"
)

// HasAlert 是否处于预警状态
func (l AlertLevel) HasAlert() bool { return l != AlertLevelNone }
