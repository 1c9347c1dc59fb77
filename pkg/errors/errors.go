package errors

import (
	"errors"
	"fmt"
)

// ── 错误类别 ──
// 业务模块的哨兵错误通过 Wrap 挂到以下类别之一，
// Handler 层既可按具体哨兵匹配，也可按类别兜底映射 HTTP 状态码。

var (
	// ErrNotFound 引用的报告/成员/组织节点不存在
	ErrNotFound = errors.New("资源不存在")
	// ErrInvalidState 当前状态不允许该操作（如校验草稿报告、超出可编辑窗口）
	ErrInvalidState = errors.New("当前状态不允许该操作")
	// ErrValidation 必填字段缺失、取值越界、未来日期等
	ErrValidation = errors.New("数据校验失败")
	// ErrForbidden 请求者不是所有者或无权操作
	ErrForbidden = errors.New("无权操作")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// Wrap 创建归属于 kind 类别的业务错误，errors.Is 对 kind 与返回值本身均成立
func Wrap(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

// KindOf 返回 err 所属的错误类别，无法归类时返回 nil
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrInvalidState, ErrValidation, ErrForbidden, ErrOptimisticLock} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
