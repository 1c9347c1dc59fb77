package model

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestParseDevotionalRatio(t *testing.T) {
	tests := []struct {
		in      string
		want    DevotionalRatio
		wantErr error
	}{
		{"5/7", DevotionalRatio{5, 7}, nil},
		{" 1 / 1 ", DevotionalRatio{1, 1}, nil},
		{"0/3", DevotionalRatio{0, 3}, nil},
		{"", DevotionalRatio{}, ErrDevotionalRatioRequired},
		{"5", DevotionalRatio{}, ErrDevotionalRatioInvalid},
		{"a/7", DevotionalRatio{}, ErrDevotionalRatioInvalid},
		{"5/7/9", DevotionalRatio{}, ErrDevotionalRatioInvalid},
		{"8/7", DevotionalRatio{}, ErrDevotionalRatioInvalid},
		{"1/0", DevotionalRatio{}, ErrDevotionalRatioInvalid},
		{"-1/7", DevotionalRatio{}, ErrDevotionalRatioInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDevotionalRatio(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("解析应成功: %v", err)
			}
			if got != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

func TestDevotionalRatio_StringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expected := rapid.IntRange(1, 50).Draw(t, "expected")
		accomplished := rapid.IntRange(0, expected).Draw(t, "accomplished")

		r, err := ParseDevotionalRatio(fmt.Sprintf("%d/%d", accomplished, expected))
		if err != nil {
			t.Fatalf("合法 RDQD 解析失败: %v", err)
		}
		if r.String() != fmt.Sprintf("%d/%d", accomplished, expected) {
			t.Fatalf("String() 不一致: %s", r.String())
		}
		if r.IsComplete() != (accomplished == expected) {
			t.Fatalf("IsComplete 判定错误: %s", r)
		}
	})
}
