package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/internal/model"
	"cmci-cr/backend/internal/repository"
	"cmci-cr/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrAccountDisabled    = errors.New("账号已停用")
	ErrInvalidRefresh     = errors.New("Refresh Token 无效或已失效")
	ErrWrongPassword      = errors.New("原密码错误")
)

// TokenBlacklist 已注销 Token 的黑名单存储
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 将当前 Access Token（以及可选的 Refresh Token）加入黑名单
	Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error
	GetCurrentMember(ctx context.Context, memberID string) (*dto.MemberResponse, error)
	ChangePassword(ctx context.Context, memberID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist // 可为 nil：Redis 不可用时注销仅在客户端生效
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询成员
	member, err := s.repo.Member.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询成员失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !member.IsActive() {
		return nil, ErrAccountDisabled
	}

	// 3. 签发 Token 对
	return s.issue(member, req.RememberMe)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidRefresh
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, ErrInvalidRefresh
		}
	}

	member, err := s.repo.Member.GetByID(ctx, claims.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if !member.IsActive() {
		return nil, ErrAccountDisabled
	}

	// 轮换：旧 Refresh Token 立即失效
	s.revoke(ctx, claims)
	return s.issue(member, claims.RememberMe)
}

func (s *authService) Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error {
	if access == nil {
		return nil
	}
	s.revoke(ctx, access)
	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.MemberID == access.MemberID {
			s.revoke(ctx, claims)
		}
	}
	return nil
}

func (s *authService) GetCurrentMember(ctx context.Context, memberID string) (*dto.MemberResponse, error) {
	member, err := s.repo.Member.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	resp := toMemberResponse(*member)
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, memberID string, req *dto.ChangePasswordRequest) error {
	member, err := s.repo.Member.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	member.PasswordHash = string(hash)
	member.UpdatedBy = &memberID

	if err := s.repo.Member.Update(ctx, member); err != nil {
		s.logger.Error("修改密码失败", zap.String("member_id", memberID), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) issue(member *model.Member, rememberMe bool) (*dto.TokenResponse, error) {
	sub := jwt.Subject{MemberID: member.MemberID, Role: string(member.Role)}
	if member.HouseChurchID != nil {
		sub.HouseChurchID = *member.HouseChurchID
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(sub)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(sub, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Member:       toMemberResponse(*member),
	}, nil
}

// revoke 加入黑名单；失败只记录日志，Token 仍会按有效期自然过期
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, claims.RemainingTTL(time.Now())); err != nil {
		s.logger.Warn("Token 加入黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}
