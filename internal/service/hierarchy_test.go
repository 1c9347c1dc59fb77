package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"cmci-cr/backend/internal/model"
	apperrors "cmci-cr/backend/pkg/errors"
)

func idsOf(members []model.Member) []string {
	ids := memberIDs(members)
	sort.Strings(ids)
	return ids
}

func equalIDs(got []model.Member, want ...string) bool {
	ids := idsOf(got)
	sort.Strings(want)
	if len(ids) != len(want) {
		return false
	}
	for i := range ids {
		if ids[i] != want[i] {
			return false
		}
	}
	return true
}

func mustSubordinates(t *testing.T, r HierarchyResolver, tr *testRepos, id string) []model.Member {
	t.Helper()
	overseer, err := tr.members.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("查询监督人 %s 失败: %v", id, err)
	}
	subs, err := r.Subordinates(context.Background(), *overseer)
	if err != nil {
		t.Fatalf("Subordinates(%s) 失败: %v", id, err)
	}
	return subs
}

// ── FD ──

func TestHierarchy_FD_ReassignmentMovesDisciple(t *testing.T) {
	repo, tr := newTestRepos()
	tr.members.add(model.Member{MemberID: "fd1", FullName: "FD One", Role: model.RoleFD})
	tr.members.add(model.Member{MemberID: "fd2", FullName: "FD Two", Role: model.RoleFD})
	tr.members.add(model.Member{MemberID: "a", FullName: "A", Role: model.RoleMember, OverseerID: strPtr("fd1")})
	tr.members.add(model.Member{MemberID: "b", FullName: "B", Role: model.RoleMember, OverseerID: strPtr("fd1")})
	tr.members.add(model.Member{MemberID: "c", FullName: "C", Role: model.RoleMember, OverseerID: strPtr("fd2")})
	resolver := NewHierarchyResolver(repo)

	if subs := mustSubordinates(t, resolver, tr, "fd1"); !equalIDs(subs, "a", "b") {
		t.Fatalf("fd1 期望 {a,b}，实际 %v", idsOf(subs))
	}

	a := *tr.members.members["a"]
	tr.members.add(a.WithOverseer(strPtr("fd2")))

	if subs := mustSubordinates(t, resolver, tr, "fd1"); !equalIDs(subs, "b") {
		t.Errorf("改派后 fd1 期望 {b}，实际 %v", idsOf(subs))
	}
	if subs := mustSubordinates(t, resolver, tr, "fd2"); !equalIDs(subs, "a", "c") {
		t.Errorf("改派后 fd2 期望 {a,c}，实际 %v", idsOf(subs))
	}
}

func TestHierarchy_FD_ExcludesInactive(t *testing.T) {
	repo, tr := newTestRepos()
	tr.members.add(model.Member{MemberID: "fd1", Role: model.RoleFD})
	tr.members.add(model.Member{MemberID: "a", Role: model.RoleMember, OverseerID: strPtr("fd1")})
	tr.members.add(model.Member{MemberID: "b", Role: model.RoleMember, OverseerID: strPtr("fd1"), Status: model.MemberStatusSuspended})
	tr.members.add(model.Member{MemberID: "c", Role: model.RoleMember, OverseerID: strPtr("fd1"), Status: model.MemberStatusInactive})

	subs := mustSubordinates(t, NewHierarchyResolver(repo), tr, "fd1")
	if !equalIDs(subs, "a") {
		t.Errorf("只应包含活跃成员，实际 %v", idsOf(subs))
	}
}

// ── Leader ──

func TestHierarchy_Leader_LedHouseChurches(t *testing.T) {
	repo, tr := newTestRepos()
	tr.houses.houses["h1"] = &model.HouseChurch{HouseChurchID: "h1", LocalChurchID: "lc1", LeaderID: strPtr("leader")}
	tr.houses.houses["h2"] = &model.HouseChurch{HouseChurchID: "h2", LocalChurchID: "lc1", LeaderID: strPtr("leader")}
	tr.houses.houses["h3"] = &model.HouseChurch{HouseChurchID: "h3", LocalChurchID: "lc1"}
	tr.members.add(model.Member{MemberID: "leader", Role: model.RoleLeader, HouseChurchID: strPtr("h1")})
	tr.members.add(model.Member{MemberID: "x", Role: model.RoleMember, HouseChurchID: strPtr("h1")})
	tr.members.add(model.Member{MemberID: "y", Role: model.RoleFD, HouseChurchID: strPtr("h2")})
	tr.members.add(model.Member{MemberID: "z", Role: model.RoleMember, HouseChurchID: strPtr("h3")})

	subs := mustSubordinates(t, NewHierarchyResolver(repo), tr, "leader")
	if !equalIDs(subs, "x", "y") {
		t.Errorf("期望 {x,y}，实际 %v", idsOf(subs))
	}
}

func TestHierarchy_Leader_FallbackToOwnHouseChurch(t *testing.T) {
	repo, tr := newTestRepos()
	tr.houses.houses["h1"] = &model.HouseChurch{HouseChurchID: "h1", LocalChurchID: "lc1"}
	tr.members.add(model.Member{MemberID: "leader", Role: model.RoleLeader, HouseChurchID: strPtr("h1")})
	tr.members.add(model.Member{MemberID: "x", Role: model.RoleMember, HouseChurchID: strPtr("h1")})
	tr.members.add(model.Member{MemberID: "z", Role: model.RoleMember, HouseChurchID: strPtr("h2")})

	subs := mustSubordinates(t, NewHierarchyResolver(repo), tr, "leader")
	if !equalIDs(subs, "x") {
		t.Errorf("未被指派的领袖应退化为本家庭教会成员，实际 %v", idsOf(subs))
	}
}

func TestHierarchy_Leader_NoHouseChurchAtAll(t *testing.T) {
	repo, tr := newTestRepos()
	tr.members.add(model.Member{MemberID: "leader", Role: model.RoleLeader})
	tr.members.add(model.Member{MemberID: "x", Role: model.RoleMember, HouseChurchID: strPtr("h1")})

	if subs := mustSubordinates(t, NewHierarchyResolver(repo), tr, "leader"); len(subs) != 0 {
		t.Errorf("无家庭教会的领袖应返回空集，实际 %v", idsOf(subs))
	}
}

// ── Pastor ──

func TestHierarchy_Pastor(t *testing.T) {
	repo, tr := newTestRepos()
	tr.locals.churches["lc1"] = &model.LocalChurch{LocalChurchID: "lc1", PastorID: strPtr("pastor")}
	tr.locals.churches["lc2"] = &model.LocalChurch{LocalChurchID: "lc2"}
	tr.houses.houses["h1"] = &model.HouseChurch{HouseChurchID: "h1", LocalChurchID: "lc1"}
	tr.houses.houses["h2"] = &model.HouseChurch{HouseChurchID: "h2", LocalChurchID: "lc1"}
	tr.houses.houses["h3"] = &model.HouseChurch{HouseChurchID: "h3", LocalChurchID: "lc2"}
	tr.members.add(model.Member{MemberID: "pastor", Role: model.RolePastor, HouseChurchID: strPtr("h1")})
	tr.members.add(model.Member{MemberID: "p", Role: model.RoleLeader, HouseChurchID: strPtr("h1")})
	tr.members.add(model.Member{MemberID: "q", Role: model.RoleMember, HouseChurchID: strPtr("h2")})
	tr.members.add(model.Member{MemberID: "r", Role: model.RoleMember, HouseChurchID: strPtr("h3")})

	subs := mustSubordinates(t, NewHierarchyResolver(repo), tr, "pastor")
	if !equalIDs(subs, "p", "q") {
		t.Errorf("期望 {p,q}，实际 %v", idsOf(subs))
	}
}

// ── Admin / Member / unknown ──

func TestHierarchy_Admin_FullActiveRoster(t *testing.T) {
	repo, tr := newTestRepos()
	tr.members.add(model.Member{MemberID: "admin", Role: model.RoleAdmin})
	tr.members.add(model.Member{MemberID: "a", Role: model.RoleMember})
	tr.members.add(model.Member{MemberID: "b", Role: model.RolePastor})
	tr.members.add(model.Member{MemberID: "c", Role: model.RoleMember, Status: model.MemberStatusInactive})

	subs := mustSubordinates(t, NewHierarchyResolver(repo), tr, "admin")
	if !equalIDs(subs, "admin", "a", "b") {
		t.Errorf("期望 {admin,a,b}，实际 %v", idsOf(subs))
	}
}

func TestHierarchy_BaseMemberHasNoSubordinates(t *testing.T) {
	repo, tr := newTestRepos()
	tr.members.add(model.Member{MemberID: "m", Role: model.RoleMember})
	tr.members.add(model.Member{MemberID: "n", Role: model.RoleMember, OverseerID: strPtr("m")})

	if subs := mustSubordinates(t, NewHierarchyResolver(repo), tr, "m"); len(subs) != 0 {
		t.Errorf("普通成员不应有下属，实际 %v", idsOf(subs))
	}
}

func TestHierarchy_UnknownRole(t *testing.T) {
	repo, _ := newTestRepos()
	_, err := NewHierarchyResolver(repo).Subordinates(context.Background(), model.Member{MemberID: "x", Role: "bishop"})
	if !errors.Is(err, ErrUnknownRole) || !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("期望 ErrUnknownRole，实际: %v", err)
	}
}
