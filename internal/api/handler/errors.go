package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"cmci-cr/backend/internal/dto"
	apperrors "cmci-cr/backend/pkg/errors"
	"cmci-cr/backend/pkg/response"
)

// ── 通用错误码 ──
// 模块内的具体错误码见各 Handler 的 handleXxxError

const (
	codeInvalidParams = 10001
	codeForbidden     = 10003
	codeNotFound      = 10006
	codeInvalidState  = 10007
	codeConflict      = 10008
)

// respondByKind 按错误类别兜底映射 HTTP 状态码
func respondByKind(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	switch {
	case errors.Is(kind, apperrors.ErrNotFound):
		response.NotFound(c, codeNotFound, err.Error())
	case errors.Is(kind, apperrors.ErrValidation):
		response.BadRequest(c, codeInvalidParams, err.Error())
	case errors.Is(kind, apperrors.ErrForbidden):
		response.Forbidden(c, codeForbidden, err.Error())
	case errors.Is(kind, apperrors.ErrInvalidState):
		response.Conflict(c, codeInvalidState, err.Error())
	case errors.Is(kind, apperrors.ErrOptimisticLock):
		response.Conflict(c, codeConflict, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindDateRange 解析 start_date/end_date 查询参数（按报告时区的自然日）
func bindDateRange(c *gin.Context, loc *time.Location) (time.Time, time.Time, bool) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return time.Time{}, time.Time{}, false
	}
	start, err := time.ParseInLocation(time.DateOnly, req.StartDate, loc)
	if err != nil {
		response.BadRequest(c, codeInvalidParams, "start_date 格式应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.ParseInLocation(time.DateOnly, req.EndDate, loc)
	if err != nil {
		response.BadRequest(c, codeInvalidParams, "end_date 格式应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
