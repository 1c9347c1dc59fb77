package handler

import (
	"time"

	"cmci-cr/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Report    *ReportHandler
	Oversight *OversightHandler
	Member    *MemberHandler
}

// NewHandler 创建 Handler 聚合
// loc 为报告时区，用于解析日期查询参数
func NewHandler(svc *service.Service, loc *time.Location) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Report:    NewReportHandler(svc.Report, svc.Oversight, loc),
		Oversight: NewOversightHandler(svc.Oversight, loc),
		Member:    NewMemberHandler(svc.Member),
	}
}
