package service

import (
	"time"

	"go.uber.org/zap"

	"cmci-cr/backend/internal/repository"
	"cmci-cr/backend/pkg/jwt"
	"cmci-cr/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	Member    MemberService
	Report    ReportService
	Oversight OversightService
	Hierarchy HierarchyResolver
}

// NewService 创建 Service 聚合
// rdb 为 nil 时 Token 黑名单与预警快照缓存降级为不可用
func NewService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	loc *time.Location,
	logger *zap.Logger,
) *Service {
	var (
		blacklist TokenBlacklist
		cache     AlertCache
	)
	if rdb != nil {
		blacklist = rdb
		cache = NewRedisAlertCache(rdb)
	}

	clock := NewClock(loc)
	resolver := NewHierarchyResolver(repo)

	return &Service{
		Auth:      NewAuthService(repo, jwtMgr, blacklist, logger),
		Member:    NewMemberService(repo, logger),
		Report:    NewReportService(repo, clock, logger),
		Oversight: NewOversightService(repo, resolver, cache, clock, logger),
		Hierarchy: resolver,
	}
}
