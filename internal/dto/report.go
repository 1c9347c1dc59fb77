package dto

// ── CR 报告模块 DTO ──

// CreateReportRequest 提交 CR 报告请求
type CreateReportRequest struct {
	ReportDate         string  `json:"report_date"          binding:"required,datetime=2006-01-02"`
	DevotionalRatio    string  `json:"devotional_ratio"     binding:"required"` // RDQD，如 "5/7"
	PrayerMinutes      *int    `json:"prayer_minutes"       binding:"required,min=0"`
	ChaptersRead       *int    `json:"chapters_read"        binding:"required,min=0"`
	OtherPrayerMinutes *int    `json:"other_prayer_minutes" binding:"omitempty,min=0"`
	ReadingMaterial    *string `json:"reading_material"     binding:"omitempty,max=200"`
	ReadingPages       *int    `json:"reading_pages"        binding:"omitempty,min=0"`
	Confessed          bool    `json:"confessed"`
	Fasted             bool    `json:"fasted"`
	FastingType        *string `json:"fasting_type"         binding:"omitempty,max=50"`
	EvangelismCount    *int    `json:"evangelism_count"     binding:"omitempty,min=0"`
	GaveOffering       bool    `json:"gave_offering"`
	Notes              *string `json:"notes"                binding:"omitempty,max=2000"`
}

// UpdateReportRequest 部分更新 CR 报告（nil 表示保留原值）
type UpdateReportRequest struct {
	DevotionalRatio    *string `json:"devotional_ratio"`
	PrayerMinutes      *int    `json:"prayer_minutes"       binding:"omitempty,min=0"`
	ChaptersRead       *int    `json:"chapters_read"        binding:"omitempty,min=0"`
	OtherPrayerMinutes *int    `json:"other_prayer_minutes" binding:"omitempty,min=0"`
	ReadingMaterial    *string `json:"reading_material"     binding:"omitempty,max=200"`
	ReadingPages       *int    `json:"reading_pages"        binding:"omitempty,min=0"`
	Confessed          *bool   `json:"confessed"`
	Fasted             *bool   `json:"fasted"`
	FastingType        *string `json:"fasting_type"         binding:"omitempty,max=50"`
	EvangelismCount    *int    `json:"evangelism_count"     binding:"omitempty,min=0"`
	GaveOffering       *bool   `json:"gave_offering"`
	Notes              *string `json:"notes"                binding:"omitempty,max=2000"`
}

// DateRangeRequest 日期区间查询参数（闭区间）
type DateRangeRequest struct {
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"required,datetime=2006-01-02"`
}

// ReportResponse CR 报告响应
type ReportResponse struct {
	ID                 string  `json:"id"`
	MemberID           string  `json:"member_id"`
	ReportDate         string  `json:"report_date"`
	DevotionalRatio    string  `json:"devotional_ratio"`
	PrayerMinutes      int     `json:"prayer_minutes"`
	ChaptersRead       int     `json:"chapters_read"`
	OtherPrayerMinutes *int    `json:"other_prayer_minutes,omitempty"`
	ReadingMaterial    *string `json:"reading_material,omitempty"`
	ReadingPages       *int    `json:"reading_pages,omitempty"`
	Confessed          bool    `json:"confessed"`
	Fasted             bool    `json:"fasted"`
	FastingType        *string `json:"fasting_type,omitempty"`
	EvangelismCount    *int    `json:"evangelism_count,omitempty"`
	GaveOffering       bool    `json:"gave_offering"`
	Notes              *string `json:"notes,omitempty"`
	Status             string  `json:"status"`
	SeenByOverseer     bool    `json:"seen_by_overseer"`
	ValidatedBy        *string `json:"validated_by,omitempty"`
	ValidatedAt        string  `json:"validated_at,omitempty"`
	Editable           bool    `json:"editable"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}
