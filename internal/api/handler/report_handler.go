package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/internal/model"
	"cmci-cr/backend/internal/service"
	"cmci-cr/backend/pkg/response"
)

// ReportHandler CR 报告模块 HTTP 处理器
type ReportHandler struct {
	reportSvc    service.ReportService
	oversightSvc service.OversightService
	loc          *time.Location
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, oversightSvc service.OversightService, loc *time.Location) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, oversightSvc: oversightSvc, loc: loc}
}

// Create 提交 CR 报告
// POST /api/v1/reports
func (h *ReportHandler) Create(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reportSvc.Create(c.Request.Context(), memberID, &req)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.Created(c, result)
}

// GetByID 获取报告详情（本人、其监督人或管理员）
// GET /api/v1/reports/:id
func (h *ReportHandler) GetByID(c *gin.Context) {
	report, ok := h.loadAuthorized(c, true)
	if !ok {
		return
	}
	response.OK(c, report)
}

// ListMine 获取本人区间内的报告
// GET /api/v1/reports/mine?start_date=&end_date=
func (h *ReportHandler) ListMine(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}
	start, end, ok := bindDateRange(c, h.loc)
	if !ok {
		return
	}

	list, err := h.reportSvc.ListMine(c.Request.Context(), memberID, start, end)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, list)
}

// MyStatistics 获取本人区间统计
// GET /api/v1/reports/mine/statistics?start_date=&end_date=
func (h *ReportHandler) MyStatistics(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}
	start, end, ok := bindDateRange(c, h.loc)
	if !ok {
		return
	}

	stats, err := h.reportSvc.MyStatistics(c.Request.Context(), memberID, start, end)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, stats)
}

// ListUnseen 获取本人尚未被监督人查看的报告
// GET /api/v1/reports/unseen
func (h *ReportHandler) ListUnseen(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	list, err := h.reportSvc.ListUnseen(c.Request.Context(), memberID)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, list)
}

// Update 修改本人报告（编辑窗口内）
// PUT /api/v1/reports/:id
func (h *ReportHandler) Update(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reportSvc.Update(c.Request.Context(), c.Param("id"), memberID, &req)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除本人报告（编辑窗口内）
// DELETE /api/v1/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	if err := h.reportSvc.Delete(c.Request.Context(), c.Param("id"), memberID); err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, nil)
}

// Submit 将草稿提交
// POST /api/v1/reports/:id/submit
func (h *ReportHandler) Submit(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	result, err := h.reportSvc.Submit(c.Request.Context(), c.Param("id"), memberID)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// Validate 监督人校验下属报告
// POST /api/v1/reports/:id/validate
func (h *ReportHandler) Validate(c *gin.Context) {
	if _, ok := h.loadAuthorized(c, false); !ok {
		return
	}
	validatorID, _ := MustGetMemberID(c)

	result, err := h.reportSvc.Validate(c.Request.Context(), c.Param("id"), validatorID)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// MarkViewed 监督人标记下属报告为已查看
// POST /api/v1/reports/:id/view
func (h *ReportHandler) MarkViewed(c *gin.Context) {
	if _, ok := h.loadAuthorized(c, false); !ok {
		return
	}
	viewerID, _ := MustGetMemberID(c)

	result, err := h.reportSvc.MarkViewed(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// loadAuthorized 加载报告并校验访问范围：管理员放行，其余须为报告作者的上级；
// allowOwner 为 true 时作者本人也可访问
func (h *ReportHandler) loadAuthorized(c *gin.Context, allowOwner bool) (*dto.ReportResponse, bool) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return nil, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return nil, false
	}

	report, err := h.reportSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleReportError(c, err)
		return nil, false
	}

	if role == model.RoleAdmin || (allowOwner && report.MemberID == memberID) {
		return report, true
	}

	sub, err := h.oversightSvc.IsSubordinate(c.Request.Context(), memberID, report.MemberID)
	if err != nil {
		handleReportError(c, err)
		return nil, false
	}
	if !sub {
		response.Forbidden(c, 12005, "该报告不在你的监督范围内")
		return nil, false
	}
	return report, true
}

// handleReportError 报告模块错误映射
func handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, 12001, "报告不存在")
	case errors.Is(err, service.ErrReportDuplicateDate):
		response.Conflict(c, 12002, "该日期已提交过报告")
	case errors.Is(err, service.ErrReportNotEditable):
		response.Conflict(c, 12003, "报告已超出可编辑期限或已被校验")
	case errors.Is(err, service.ErrReportNotSubmitted):
		response.Conflict(c, 12004, "仅已提交的报告可执行该操作")
	case errors.Is(err, service.ErrReportNotOwner):
		response.Forbidden(c, 12005, "只能修改自己的报告")
	case errors.Is(err, service.ErrMemberInactive):
		response.Forbidden(c, 12006, "成员账号未激活")
	default:
		respondByKind(c, err)
	}
}
