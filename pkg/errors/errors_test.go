package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap_MatchesKindAndSentinel(t *testing.T) {
	errNotOwner := Wrap(ErrForbidden, "只能修改自己的报告")
	wrapped := fmt.Errorf("更新报告: %w", errNotOwner)

	if !errors.Is(wrapped, errNotOwner) {
		t.Error("应匹配具体哨兵")
	}
	if !errors.Is(wrapped, ErrForbidden) {
		t.Error("应匹配错误类别")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Error("不应匹配其他类别")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", Wrap(ErrNotFound, "报告不存在"), ErrNotFound},
		{"invalid state", Wrap(ErrInvalidState, "草稿"), ErrInvalidState},
		{"validation", fmt.Errorf("x: %w", Wrap(ErrValidation, "未来日期")), ErrValidation},
		{"optimistic lock", ErrOptimisticLock, ErrOptimisticLock},
		{"无法归类", errors.New("db down"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}
