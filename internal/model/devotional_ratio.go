package model

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "cmci-cr/backend/pkg/errors"
)

var (
	ErrDevotionalRatioRequired = apperrors.Wrap(apperrors.ErrValidation, "RDQD 不能为空")
	ErrDevotionalRatioInvalid  = apperrors.Wrap(apperrors.ErrValidation, "RDQD 格式无效，应为 完成数/应完成数")
)

// DevotionalRatio RDQD 完成比（值对象），如 "5/7"
type DevotionalRatio struct {
	Accomplished int `gorm:"not null" json:"accomplished"`
	Expected     int `gorm:"not null" json:"expected"`
}

// NewDevotionalRatio 构造并校验 RDQD
func NewDevotionalRatio(accomplished, expected int) (DevotionalRatio, error) {
	r := DevotionalRatio{Accomplished: accomplished, Expected: expected}
	if err := r.Validate(); err != nil {
		return DevotionalRatio{}, err
	}
	return r, nil
}

// ParseDevotionalRatio 解析 "a/b" 形式的 RDQD 文本
func ParseDevotionalRatio(s string) (DevotionalRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DevotionalRatio{}, ErrDevotionalRatioRequired
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return DevotionalRatio{}, ErrDevotionalRatioInvalid
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return DevotionalRatio{}, ErrDevotionalRatioInvalid
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return DevotionalRatio{}, ErrDevotionalRatioInvalid
	}
	return NewDevotionalRatio(a, b)
}

// IsZero 未填写（零值）
func (r DevotionalRatio) IsZero() bool {
	return r.Accomplished == 0 && r.Expected == 0
}

// Validate 应完成数 ≥ 1，0 ≤ 完成数 ≤ 应完成数
func (r DevotionalRatio) Validate() error {
	if r.IsZero() {
		return ErrDevotionalRatioRequired
	}
	if r.Expected < 1 || r.Accomplished < 0 || r.Accomplished > r.Expected {
		return ErrDevotionalRatioInvalid
	}
	return nil
}

// IsComplete 当日 RDQD 是否全部完成
func (r DevotionalRatio) IsComplete() bool {
	return r.Expected > 0 && r.Accomplished >= r.Expected
}

func (r DevotionalRatio) String() string {
	return fmt.Sprintf("%d/%d", r.Accomplished, r.Expected)
}
