package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/internal/service"
	"cmci-cr/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 成员登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// RefreshToken 使用 Refresh Token 换取新的 Token 对
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout 注销当前 Access Token；请求体可附带 Refresh Token 一并注销
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshTokenRequest
	// 请求体可选
	_ = c.ShouldBindJSON(&req)

	if err := h.authSvc.Logout(c.Request.Context(), GetClaims(c), req.RefreshToken); err != nil {
		handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// Me 获取当前登录成员信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	result, err := h.authSvc.GetCurrentMember(c.Request.Context(), memberID)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	memberID, ok := MustGetMemberID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), memberID, &req); err != nil {
		handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleAuthError 认证模块错误映射
func handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrAccountDisabled):
		response.Forbidden(c, 11002, "账号已停用")
	case errors.Is(err, service.ErrInvalidRefresh):
		response.Unauthorized(c, 11003, "Refresh Token 无效或已失效")
	case errors.Is(err, service.ErrWrongPassword):
		response.BadRequest(c, 11004, "原密码错误")
	default:
		respondByKind(c, err)
	}
}
