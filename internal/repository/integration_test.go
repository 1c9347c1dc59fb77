//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cmci-cr/backend/internal/model"
	"cmci-cr/backend/internal/repository"
	"cmci-cr/backend/pkg/database"
	pkgerrors "cmci-cr/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=cmci password=cmci_password dbname=cmci_cr_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用与生产一致的迁移脚本建表（含部分唯一索引）
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "数据库迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// createMember 创建测试成员并在测试结束时清理
func createMember(t *testing.T, repo *repository.Repository, role model.Role) *model.Member {
	t.Helper()
	m := &model.Member{
		FullName:     "测试成员",
		Email:        fmt.Sprintf("member-%d@cmci.test", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         role,
		Status:       model.MemberStatusActive,
	}
	require.NoError(t, repo.Member.Create(context.Background(), m))
	t.Cleanup(func() {
		testDB.Exec("DELETE FROM reports WHERE member_id = ?", m.MemberID)
		testDB.Exec("DELETE FROM members WHERE member_id = ?", m.MemberID)
	})
	return m
}

func newTestReport(t *testing.T, memberID string, date time.Time) *model.Report {
	t.Helper()
	ratio, err := model.NewDevotionalRatio(5, 7)
	require.NoError(t, err)
	prayer, chapters := 30, 3
	r, err := model.NewReport(memberID, model.ReportInput{
		ReportDate:      date,
		DevotionalRatio: &ratio,
		PrayerMinutes:   &prayer,
		ChaptersRead:    &chapters,
	}, date.Add(12*time.Hour))
	require.NoError(t, err)
	return &r
}

func day(offset int) time.Time {
	return model.DateOf(time.Now().UTC()).AddDate(0, 0, offset)
}

// ═══════════════════════════════════════════════════════════
// Member
// ═══════════════════════════════════════════════════════════

func TestMemberRepo_CreateAndGetByEmail(t *testing.T) {
	repo := repository.NewRepository(testDB)
	m := createMember(t, repo, model.RoleFD)

	got, err := repo.Member.GetByEmail(context.Background(), m.Email)
	require.NoError(t, err)
	assert.Equal(t, m.MemberID, got.MemberID)
	assert.Equal(t, model.RoleFD, got.Role)

	dup := &model.Member{FullName: "重复", Email: m.Email, PasswordHash: "x", Role: model.RoleMember, Status: model.MemberStatusActive}
	assert.ErrorIs(t, repo.Member.Create(context.Background(), dup), repository.ErrDuplicateKey)
}

func TestMemberRepo_ListByOverseer(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	fd := createMember(t, repo, model.RoleFD)
	disciple := createMember(t, repo, model.RoleMember)

	updated := disciple.WithOverseer(&fd.MemberID)
	require.NoError(t, repo.Member.Update(ctx, &updated))

	list, err := repo.Member.ListByOverseer(ctx, fd.MemberID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, disciple.MemberID, list[0].MemberID)
}

// ═══════════════════════════════════════════════════════════
// Report
// ═══════════════════════════════════════════════════════════

func TestReportRepo_UniquePerMemberAndDate(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	m := createMember(t, repo, model.RoleMember)

	first := newTestReport(t, m.MemberID, day(-1))
	require.NoError(t, repo.Report.Create(ctx, first))

	exists, err := repo.Report.ExistsByMemberAndDate(ctx, m.MemberID, day(-1))
	require.NoError(t, err)
	assert.True(t, exists)

	second := newTestReport(t, m.MemberID, day(-1))
	assert.ErrorIs(t, repo.Report.Create(ctx, second), repository.ErrDuplicateKey)

	// 软删除后同一天可重新提交
	require.NoError(t, repo.Report.SoftDelete(ctx, first.ReportID, m.MemberID))
	third := newTestReport(t, m.MemberID, day(-1))
	assert.NoError(t, repo.Report.Create(ctx, third))
}

func TestReportRepo_UpdateOptimisticLock(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	m := createMember(t, repo, model.RoleMember)

	r := newTestReport(t, m.MemberID, day(0))
	require.NoError(t, repo.Report.Create(ctx, r))

	stale := *r
	r.PrayerMinutes = 45
	require.NoError(t, repo.Report.Update(ctx, r))
	assert.Equal(t, 2, r.Version)

	stale.PrayerMinutes = 60
	assert.ErrorIs(t, repo.Report.Update(ctx, &stale), pkgerrors.ErrOptimisticLock)

	got, err := repo.Report.GetByID(ctx, r.ReportID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.PrayerMinutes)
}

func TestReportRepo_ListByMembersAndRange_Inclusive(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	a := createMember(t, repo, model.RoleMember)
	b := createMember(t, repo, model.RoleMember)

	for _, offset := range []int{-6, -3, 0} {
		require.NoError(t, repo.Report.Create(ctx, newTestReport(t, a.MemberID, day(offset))))
	}
	require.NoError(t, repo.Report.Create(ctx, newTestReport(t, b.MemberID, day(-7))))

	list, err := repo.Report.ListByMembersAndRange(ctx, []string{a.MemberID, b.MemberID}, day(-6), day(0))
	require.NoError(t, err)
	assert.Len(t, list, 3, "区间两端均应包含，区间外的报告不应返回")

	unseen, err := repo.Report.ListUnseenByMember(ctx, a.MemberID)
	require.NoError(t, err)
	assert.Len(t, unseen, 3)
}

func TestMemberRepo_UpdateOptimisticLock(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	fd := createMember(t, repo, model.RoleFD)
	m := createMember(t, repo, model.RoleMember)

	current, err := repo.Member.GetByID(ctx, m.MemberID)
	require.NoError(t, err)
	stale := *current

	current.OverseerID = &fd.MemberID
	require.NoError(t, repo.Member.Update(ctx, current))
	assert.Equal(t, stale.Version+1, current.Version)

	stale.Role = model.RoleLeader
	assert.ErrorIs(t, repo.Member.Update(ctx, &stale), pkgerrors.ErrOptimisticLock)

	got, err := repo.Member.GetByID(ctx, m.MemberID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, got.Role)
	require.NotNil(t, got.OverseerID)
	assert.Equal(t, fd.MemberID, *got.OverseerID)
}
