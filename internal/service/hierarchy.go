package service

import (
	"context"

	"cmci-cr/backend/internal/model"
	"cmci-cr/backend/internal/repository"
	apperrors "cmci-cr/backend/pkg/errors"
)

// ErrUnknownRole 无法识别的成员角色
var ErrUnknownRole = apperrors.Wrap(apperrors.ErrValidation, "未知的成员角色")

// HierarchyResolver 下属解析器。
// 下属报告、下属统计、门徒状态、群体统计与预警扫描共用这一套规则。
type HierarchyResolver interface {
	// Subordinates 返回 overseer 权限范围内的活跃成员（不保证顺序）。
	// 管理员得到完整名册（含本人），其余角色不含本人。
	Subordinates(ctx context.Context, overseer model.Member) ([]model.Member, error)
}

type hierarchyResolver struct {
	repo *repository.Repository
}

// NewHierarchyResolver 创建 HierarchyResolver 实例
func NewHierarchyResolver(repo *repository.Repository) HierarchyResolver {
	return &hierarchyResolver{repo: repo}
}

func (h *hierarchyResolver) Subordinates(ctx context.Context, overseer model.Member) ([]model.Member, error) {
	var (
		candidates []model.Member
		err        error
	)

	switch overseer.Role {
	case model.RoleMember:
		return nil, nil
	case model.RoleFD:
		candidates, err = h.repo.Member.ListByOverseer(ctx, overseer.MemberID)
	case model.RoleLeader:
		candidates, err = h.leaderScope(ctx, overseer)
	case model.RolePastor:
		candidates, err = h.pastorScope(ctx, overseer)
	case model.RoleAdmin:
		all, err := h.repo.Member.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return activeExcluding(all, ""), nil
	default:
		return nil, ErrUnknownRole
	}
	if err != nil {
		return nil, err
	}

	return activeExcluding(candidates, overseer.MemberID), nil
}

// leaderScope 所领导家庭教会的全部成员；尚未被指派为任何家庭教会领袖时，
// 退化为与自己同一家庭教会的成员。
func (h *hierarchyResolver) leaderScope(ctx context.Context, leader model.Member) ([]model.Member, error) {
	houses, err := h.repo.HouseChurch.ListByLeader(ctx, leader.MemberID)
	if err != nil {
		return nil, err
	}
	if len(houses) == 0 {
		if leader.HouseChurchID == nil {
			return nil, nil
		}
		return h.repo.Member.ListByHouseChurch(ctx, *leader.HouseChurchID)
	}

	ids := make([]string, 0, len(houses))
	for _, hc := range houses {
		ids = append(ids, hc.HouseChurchID)
	}
	return h.repo.Member.ListByHouseChurches(ctx, ids)
}

// pastorScope 所牧养地方教会 → 其下家庭教会 → 其中成员
func (h *hierarchyResolver) pastorScope(ctx context.Context, pastor model.Member) ([]model.Member, error) {
	churches, err := h.repo.LocalChurch.ListByPastor(ctx, pastor.MemberID)
	if err != nil {
		return nil, err
	}
	if len(churches) == 0 {
		return nil, nil
	}

	churchIDs := make([]string, 0, len(churches))
	for _, lc := range churches {
		churchIDs = append(churchIDs, lc.LocalChurchID)
	}
	houses, err := h.repo.HouseChurch.ListByLocalChurches(ctx, churchIDs)
	if err != nil {
		return nil, err
	}
	if len(houses) == 0 {
		return nil, nil
	}

	houseIDs := make([]string, 0, len(houses))
	for _, hc := range houses {
		houseIDs = append(houseIDs, hc.HouseChurchID)
	}
	return h.repo.Member.ListByHouseChurches(ctx, houseIDs)
}

// activeExcluding 过滤出活跃成员，剔除 selfID（为空则不剔除）并按 ID 去重
func activeExcluding(members []model.Member, selfID string) []model.Member {
	seen := make(map[string]struct{}, len(members))
	out := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.MemberID == selfID || !m.IsActive() {
			continue
		}
		if _, dup := seen[m.MemberID]; dup {
			continue
		}
		seen[m.MemberID] = struct{}{}
		out = append(out, m)
	}
	return out
}
