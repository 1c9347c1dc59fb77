package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"cmci-cr/backend/internal/model"
	"cmci-cr/backend/internal/repository"
	pkgerrors "cmci-cr/backend/pkg/errors"
)

// ── Mock MemberRepository ──

type mockMemberRepo struct {
	members map[string]*model.Member
	seq     int
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{members: make(map[string]*model.Member)}
}

func (m *mockMemberRepo) add(member model.Member) {
	if member.Status == "" {
		member.Status = model.MemberStatusActive
	}
	m.members[member.MemberID] = &member
}

func (m *mockMemberRepo) Create(_ context.Context, member *model.Member) error {
	for _, existing := range m.members {
		if existing.Email == member.Email {
			return repository.ErrDuplicateKey
		}
	}
	if member.MemberID == "" {
		m.seq++
		member.MemberID = fmt.Sprintf("member-%d", m.seq)
	}
	cp := *member
	m.members[member.MemberID] = &cp
	return nil
}

func (m *mockMemberRepo) Update(_ context.Context, member *model.Member) error {
	current, ok := m.members[member.MemberID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if current.Version != member.Version {
		return pkgerrors.ErrOptimisticLock
	}
	member.Version++
	cp := *member
	m.members[member.MemberID] = &cp
	return nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, id string) (*model.Member, error) {
	if member, ok := m.members[id]; ok {
		cp := *member
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) GetByEmail(_ context.Context, email string) (*model.Member, error) {
	for _, member := range m.members {
		if member.Email == email {
			cp := *member
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) filter(keep func(*model.Member) bool) []model.Member {
	var result []model.Member
	for _, member := range m.members {
		if keep(member) {
			result = append(result, *member)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })
	return result
}

func (m *mockMemberRepo) ListByOverseer(_ context.Context, overseerID string) ([]model.Member, error) {
	return m.filter(func(member *model.Member) bool {
		return member.OverseerID != nil && *member.OverseerID == overseerID
	}), nil
}

func (m *mockMemberRepo) ListByRole(_ context.Context, role model.Role) ([]model.Member, error) {
	return m.filter(func(member *model.Member) bool { return member.Role == role }), nil
}

func (m *mockMemberRepo) ListByHouseChurch(_ context.Context, houseChurchID string) ([]model.Member, error) {
	return m.filter(func(member *model.Member) bool { return member.InHouseChurch(houseChurchID) }), nil
}

func (m *mockMemberRepo) ListByHouseChurches(_ context.Context, houseChurchIDs []string) ([]model.Member, error) {
	return m.filter(func(member *model.Member) bool {
		for _, id := range houseChurchIDs {
			if member.InHouseChurch(id) {
				return true
			}
		}
		return false
	}), nil
}

func (m *mockMemberRepo) ListAll(_ context.Context) ([]model.Member, error) {
	return m.filter(func(*model.Member) bool { return true }), nil
}

func (m *mockMemberRepo) ListWithFilters(_ context.Context, filters *repository.MemberListFilters, offset, limit int) ([]model.Member, int64, error) {
	all := m.filter(func(member *model.Member) bool {
		if filters.Role != "" && string(member.Role) != filters.Role {
			return false
		}
		if filters.Status != "" && string(member.Status) != filters.Status {
			return false
		}
		if filters.HouseChurchID != "" && !member.InHouseChurch(filters.HouseChurchID) {
			return false
		}
		if filters.Keyword != "" && !strings.Contains(member.FullName, filters.Keyword) {
			return false
		}
		return true
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock ReportRepository ──

type mockReportRepo struct {
	reports map[string]*model.Report
	seq     int
	failErr error // 非 nil 时所有查询返回该错误
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]*model.Report)}
}

// seed 直接写入一条已提交报告，绕过服务层
func (m *mockReportRepo) seed(memberID string, date time.Time, createdAt time.Time) *model.Report {
	m.seq++
	r := &model.Report{
		ReportID:        fmt.Sprintf("report-%d", m.seq),
		MemberID:        memberID,
		ReportDate:      model.DateOf(date),
		DevotionalRatio: model.DevotionalRatio{Accomplished: 1, Expected: 1},
		PrayerMinutes:   30,
		ChaptersRead:    2,
		Status:          model.ReportStatusSubmitted,
	}
	r.CreatedAt = createdAt
	r.UpdatedAt = createdAt
	r.Version = 1
	m.reports[r.ReportID] = r
	return r
}

func (m *mockReportRepo) live() []*model.Report {
	var result []*model.Report
	for _, r := range m.reports {
		if !r.DeletedAt.Valid {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReportDate.After(result[j].ReportDate)
	})
	return result
}

func (m *mockReportRepo) Create(_ context.Context, report *model.Report) error {
	for _, r := range m.live() {
		if r.MemberID == report.MemberID && model.SameDay(r.ReportDate, report.ReportDate) {
			return repository.ErrDuplicateKey
		}
	}
	m.seq++
	report.ReportID = fmt.Sprintf("report-%d", m.seq)
	cp := *report
	m.reports[report.ReportID] = &cp
	return nil
}

func (m *mockReportRepo) Update(_ context.Context, report *model.Report) error {
	existing, ok := m.reports[report.ReportID]
	if !ok || existing.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != report.Version {
		return pkgerrors.ErrOptimisticLock
	}
	report.Version++
	cp := *report
	m.reports[report.ReportID] = &cp
	return nil
}

func (m *mockReportRepo) SoftDelete(_ context.Context, id string, deletedBy string) error {
	if r, ok := m.reports[id]; ok {
		r.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		r.DeletedBy = &deletedBy
	}
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id string) (*model.Report, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	if r, ok := m.reports[id]; ok && !r.DeletedAt.Valid {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func inDateRange(d, start, end time.Time) bool {
	return model.DaysBetween(start, d) >= 0 && model.DaysBetween(d, end) >= 0
}

func (m *mockReportRepo) ListByMemberAndRange(_ context.Context, memberID string, start, end time.Time) ([]model.Report, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var result []model.Report
	for _, r := range m.live() {
		if r.MemberID == memberID && inDateRange(r.ReportDate, start, end) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReportRepo) ExistsByMemberAndDate(_ context.Context, memberID string, date time.Time) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	for _, r := range m.live() {
		if r.MemberID == memberID && model.SameDay(r.ReportDate, date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReportRepo) ListUnseenByMember(_ context.Context, memberID string) ([]model.Report, error) {
	var result []model.Report
	for _, r := range m.live() {
		if r.MemberID == memberID && r.Status == model.ReportStatusSubmitted && !r.SeenByOverseer {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReportRepo) ListByMembersAndRange(_ context.Context, memberIDs []string, start, end time.Time) ([]model.Report, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	ids := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		ids[id] = struct{}{}
	}
	var result []model.Report
	for _, r := range m.live() {
		if _, ok := ids[r.MemberID]; ok && inDateRange(r.ReportDate, start, end) {
			result = append(result, *r)
		}
	}
	return result, nil
}

// ── Mock HouseChurchRepository / LocalChurchRepository ──

type mockHouseChurchRepo struct {
	houses map[string]*model.HouseChurch
}

func newMockHouseChurchRepo() *mockHouseChurchRepo {
	return &mockHouseChurchRepo{houses: make(map[string]*model.HouseChurch)}
}

func (m *mockHouseChurchRepo) GetByID(_ context.Context, id string) (*model.HouseChurch, error) {
	if hc, ok := m.houses[id]; ok {
		return hc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHouseChurchRepo) ListByLeader(_ context.Context, leaderID string) ([]model.HouseChurch, error) {
	var result []model.HouseChurch
	for _, hc := range m.houses {
		if hc.LeaderID != nil && *hc.LeaderID == leaderID {
			result = append(result, *hc)
		}
	}
	return result, nil
}

func (m *mockHouseChurchRepo) ListByLocalChurches(_ context.Context, localChurchIDs []string) ([]model.HouseChurch, error) {
	var result []model.HouseChurch
	for _, hc := range m.houses {
		for _, id := range localChurchIDs {
			if hc.LocalChurchID == id {
				result = append(result, *hc)
			}
		}
	}
	return result, nil
}

type mockLocalChurchRepo struct {
	churches map[string]*model.LocalChurch
}

func newMockLocalChurchRepo() *mockLocalChurchRepo {
	return &mockLocalChurchRepo{churches: make(map[string]*model.LocalChurch)}
}

func (m *mockLocalChurchRepo) GetByID(_ context.Context, id string) (*model.LocalChurch, error) {
	if lc, ok := m.churches[id]; ok {
		return lc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLocalChurchRepo) ListByPastor(_ context.Context, pastorID string) ([]model.LocalChurch, error) {
	var result []model.LocalChurch
	for _, lc := range m.churches {
		if lc.PastorID != nil && *lc.PastorID == pastorID {
			result = append(result, *lc)
		}
	}
	return result, nil
}

// ── 测试仓库集合 ──

type testRepos struct {
	members *mockMemberRepo
	reports *mockReportRepo
	houses  *mockHouseChurchRepo
	locals  *mockLocalChurchRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	tr := &testRepos{
		members: newMockMemberRepo(),
		reports: newMockReportRepo(),
		houses:  newMockHouseChurchRepo(),
		locals:  newMockLocalChurchRepo(),
	}
	repo := &repository.Repository{
		Member:      tr.members,
		Report:      tr.reports,
		HouseChurch: tr.houses,
		LocalChurch: tr.locals,
	}
	return repo, tr
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// testNow 所有服务测试共用的“当前时间”
var testNow = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return model.DateOf(testNow).AddDate(0, 0, -n)
}
