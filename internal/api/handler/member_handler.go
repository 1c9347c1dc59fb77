package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/internal/service"
	"cmci-cr/backend/pkg/response"
)

// MemberHandler 成员管理 HTTP 处理器（仅管理员）
type MemberHandler struct {
	memberSvc service.MemberService
}

// NewMemberHandler 创建 MemberHandler
func NewMemberHandler(memberSvc service.MemberService) *MemberHandler {
	return &MemberHandler{memberSvc: memberSvc}
}

// Create 创建成员
// POST /api/v1/members
func (h *MemberHandler) Create(c *gin.Context) {
	callerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.memberSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleMemberError(c, err)
		return
	}

	response.Created(c, result)
}

// List 成员列表（分页）
// GET /api/v1/members
func (h *MemberHandler) List(c *gin.Context) {
	var req dto.MemberListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.memberSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleMemberError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetByID 获取成员详情
// GET /api/v1/members/:id
func (h *MemberHandler) GetByID(c *gin.Context) {
	result, err := h.memberSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleMemberError(c, err)
		return
	}

	response.OK(c, result)
}

// AssignRole 分配角色
// PUT /api/v1/members/:id/role
func (h *MemberHandler) AssignRole(c *gin.Context) {
	callerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.memberSvc.AssignRole(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleMemberError(c, err)
		return
	}

	response.OK(c, result)
}

// AssignOverseer 指定或解除直属 FD
// PUT /api/v1/members/:id/overseer
func (h *MemberHandler) AssignOverseer(c *gin.Context) {
	callerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	var req dto.AssignOverseerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.memberSvc.AssignOverseer(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleMemberError(c, err)
		return
	}

	response.OK(c, result)
}

// SetStatus 设置成员状态
// PUT /api/v1/members/:id/status
func (h *MemberHandler) SetStatus(c *gin.Context) {
	callerID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.memberSvc.SetStatus(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleMemberError(c, err)
		return
	}

	response.OK(c, result)
}

// handleMemberError 成员模块错误映射
func handleMemberError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 14001, "成员不存在")
	case errors.Is(err, service.ErrHouseChurchNotFound):
		response.NotFound(c, 14002, "家庭教会不存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 14003, "邮箱已被使用")
	case errors.Is(err, service.ErrMemberSelfRoleChange):
		response.Forbidden(c, 14004, "不能修改自己的角色")
	default:
		respondByKind(c, err)
	}
}
