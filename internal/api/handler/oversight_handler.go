package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cmci-cr/backend/internal/service"
	"cmci-cr/backend/pkg/response"
)

// OversightHandler 监督模块 HTTP 处理器
type OversightHandler struct {
	oversightSvc service.OversightService
	loc          *time.Location
}

// NewOversightHandler 创建 OversightHandler
func NewOversightHandler(oversightSvc service.OversightService, loc *time.Location) *OversightHandler {
	return &OversightHandler{oversightSvc: oversightSvc, loc: loc}
}

// ListSubordinateReports 获取下属区间内的报告汇总
// GET /api/v1/oversight/reports?start_date=&end_date=
func (h *OversightHandler) ListSubordinateReports(c *gin.Context) {
	overseerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}
	start, end, ok := bindDateRange(c, h.loc)
	if !ok {
		return
	}

	list, err := h.oversightSvc.ListSubordinateReports(c.Request.Context(), overseerID, start, end)
	if err != nil {
		handleOversightError(c, err)
		return
	}

	response.OK(c, list)
}

// ListSubordinateStatistics 获取下属个人统计
// GET /api/v1/oversight/statistics?start_date=&end_date=
func (h *OversightHandler) ListSubordinateStatistics(c *gin.Context) {
	overseerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}
	start, end, ok := bindDateRange(c, h.loc)
	if !ok {
		return
	}

	list, err := h.oversightSvc.ListSubordinateStatistics(c.Request.Context(), overseerID, start, end)
	if err != nil {
		handleOversightError(c, err)
		return
	}

	response.OK(c, list)
}

// GroupStatistics 获取下属整体统计
// GET /api/v1/oversight/group-statistics?start_date=&end_date=
func (h *OversightHandler) GroupStatistics(c *gin.Context) {
	overseerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}
	start, end, ok := bindDateRange(c, h.loc)
	if !ok {
		return
	}

	stats, err := h.oversightSvc.GroupStatistics(c.Request.Context(), overseerID, start, end)
	if err != nil {
		handleOversightError(c, err)
		return
	}

	response.OK(c, stats)
}

// DiscipleStatus FD 门徒状态面板
// GET /api/v1/oversight/disciples
func (h *OversightHandler) DiscipleStatus(c *gin.Context) {
	fdID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	summary, err := h.oversightSvc.DiscipleStatus(c.Request.Context(), fdID)
	if err != nil {
		handleOversightError(c, err)
		return
	}

	response.OK(c, summary)
}

// Alerts 获取预警快照；refresh=true 时强制重算
// GET /api/v1/oversight/alerts?refresh=
func (h *OversightHandler) Alerts(c *gin.Context) {
	overseerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	refresh := false
	if raw := c.Query("refresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, 10001, "refresh 参数无效")
			return
		}
		refresh = v
	}

	snapshot, err := h.oversightSvc.AlertSnapshot(c.Request.Context(), overseerID, refresh)
	if err != nil {
		handleOversightError(c, err)
		return
	}

	response.OK(c, snapshot)
}

// CheckSubordinate 判断指定成员是否在当前成员的监督范围内
// GET /api/v1/oversight/subordinates/:id/check
func (h *OversightHandler) CheckSubordinate(c *gin.Context) {
	overseerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	sub, err := h.oversightSvc.IsSubordinate(c.Request.Context(), overseerID, c.Param("id"))
	if err != nil {
		handleOversightError(c, err)
		return
	}

	response.OK(c, gin.H{"member_id": c.Param("id"), "is_subordinate": sub})
}

// handleOversightError 监督模块错误映射
func handleOversightError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOverseerNotFound):
		response.NotFound(c, 13001, "监督人不存在")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 13002, "开始日期不能晚于结束日期")
	case errors.Is(err, service.ErrDateRangeTooLong):
		response.BadRequest(c, 13003, "查询区间不能超过 366 天")
	case errors.Is(err, service.ErrNotDiscipleMaker):
		response.Forbidden(c, 13004, "仅 FD 可查看门徒状态")
	default:
		respondByKind(c, err)
	}
}
