package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 成功响应的业务码与消息
const (
	CodeOK    = 0
	MessageOK = "success"

	codeInternal    = 50000
	messageInternal = "服务器内部错误"
)

// Response 统一响应信封：成功时 code=0 并携带 data，失败时只有业务码与消息
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData 分页响应数据（成员名册等列表接口）
type PageData struct {
	List       any        `json:"list"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination 计算总页数；pageSize 非正时视为单页
func NewPagination(total int64, page, pageSize int) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize <= 0 {
		if total > 0 {
			p.TotalPages = 1
		}
		return p
	}
	p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	return p
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Code: CodeOK, Message: MessageOK, Data: data})
}

// OK 200
func OK(c *gin.Context, data any) {
	success(c, http.StatusOK, data)
}

// Created 201，用于创建报告与成员
func Created(c *gin.Context, data any) {
	success(c, http.StatusCreated, data)
}

// OKPage 200 分页
func OKPage(c *gin.Context, list any, total int64, page, pageSize int) {
	success(c, http.StatusOK, PageData{List: list, Pagination: NewPagination(total, page, pageSize)})
}

// Error 错误响应，httpStatus 与业务码由调用方的错误映射决定
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{Code: code, Message: message})
}

// BadRequest 400 参数校验失败
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未登录或凭证失效
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403 角色或层级不允许
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409 状态不允许（重复日期、超出编辑期限、乐观锁冲突）
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// TooManyRequests 429 限流
func TooManyRequests(c *gin.Context, code int, message string) {
	Error(c, http.StatusTooManyRequests, code, message)
}

// InternalError 500，不向客户端暴露内部错误
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, codeInternal, messageInternal)
}
