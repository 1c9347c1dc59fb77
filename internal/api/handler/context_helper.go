package handler

import (
	"github.com/gin-gonic/gin"

	"cmci-cr/backend/internal/api/middleware"
	"cmci-cr/backend/internal/model"
	"cmci-cr/backend/pkg/jwt"
	"cmci-cr/backend/pkg/response"
)

// MustGetMemberID 从 Gin 上下文中安全提取 member_id。
// 如果 JWT 中间件未正确注入 member_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetMemberID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxMemberID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (model.Role, bool) {
	v, exists := c.Get(middleware.CtxRole)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return model.Role(s), true
}

// GetClaims 读取当前请求的 Access Token Claims，未认证时返回 nil
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(middleware.CtxClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
