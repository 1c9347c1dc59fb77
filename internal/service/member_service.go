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
	apperrors "cmci-cr/backend/pkg/errors"
)

// ── 成员模块业务错误 ──

var (
	ErrMemberNotFound       = apperrors.Wrap(apperrors.ErrNotFound, "成员不存在")
	ErrHouseChurchNotFound  = apperrors.Wrap(apperrors.ErrNotFound, "家庭教会不存在")
	ErrEmailExists          = apperrors.Wrap(apperrors.ErrValidation, "邮箱已被使用")
	ErrInvalidRole          = apperrors.Wrap(apperrors.ErrValidation, "无效的角色")
	ErrInvalidStatus        = apperrors.Wrap(apperrors.ErrValidation, "无效的成员状态")
	ErrMemberSelfRoleChange = apperrors.Wrap(apperrors.ErrForbidden, "不能修改自己的角色")
	ErrOverseerSelf         = apperrors.Wrap(apperrors.ErrValidation, "不能指定自己为监督人")
	ErrOverseerNotFD        = apperrors.Wrap(apperrors.ErrValidation, "直属监督人必须是活跃的 FD")
	ErrOverseeNotBaseMember = apperrors.Wrap(apperrors.ErrValidation, "只有普通成员可以指定直属 FD")
)

// MemberService 成员管理业务接口（管理员操作）
type MemberService interface {
	Create(ctx context.Context, req *dto.CreateMemberRequest, callerID string) (*dto.MemberResponse, error)
	GetByID(ctx context.Context, id string) (*dto.MemberResponse, error)
	List(ctx context.Context, req *dto.MemberListRequest) ([]dto.MemberResponse, int64, error)
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) (*dto.MemberResponse, error)
	AssignOverseer(ctx context.Context, id string, req *dto.AssignOverseerRequest, callerID string) (*dto.MemberResponse, error)
	SetStatus(ctx context.Context, id string, req *dto.SetStatusRequest, callerID string) (*dto.MemberResponse, error)
}

type memberService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMemberService 创建 MemberService 实例
func NewMemberService(repo *repository.Repository, logger *zap.Logger) MemberService {
	return &memberService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *memberService) Create(ctx context.Context, req *dto.CreateMemberRequest, callerID string) (*dto.MemberResponse, error) {
	role := model.Role(req.Role)
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.Member.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if req.HouseChurchID != nil {
		if _, err := s.repo.HouseChurch.GetByID(ctx, *req.HouseChurchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrHouseChurchNotFound
			}
			return nil, err
		}
	}

	if req.OverseerID != nil {
		if role != model.RoleMember {
			return nil, ErrOverseeNotBaseMember
		}
		if err := s.checkOverseer(ctx, *req.OverseerID); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	member := &model.Member{
		FullName:      strings.TrimSpace(req.FullName),
		Email:         email,
		Phone:         req.Phone,
		PasswordHash:  string(hash),
		Role:          role,
		HouseChurchID: req.HouseChurchID,
		OverseerID:    req.OverseerID,
		Status:        model.MemberStatusActive,
	}
	member.CreatedBy = &callerID

	if err := s.repo.Member.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建成员失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("成员已创建", zap.String("member_id", member.MemberID), zap.String("role", string(role)))
	return s.reload(ctx, member.MemberID)
}

// ────────────────────── GetByID ──────────────────────

func (s *memberService) GetByID(ctx context.Context, id string) (*dto.MemberResponse, error) {
	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toMemberResponse(*member)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *memberService) List(ctx context.Context, req *dto.MemberListRequest) ([]dto.MemberResponse, int64, error) {
	filters := &repository.MemberListFilters{
		Role:          req.Role,
		Status:        req.Status,
		HouseChurchID: req.HouseChurchID,
		Keyword:       req.Keyword,
	}

	members, total, err := s.repo.Member.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出成员失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		result = append(result, toMemberResponse(m))
	}
	return result, total, nil
}

// ────────────────────── AssignRole ──────────────────────

func (s *memberService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) (*dto.MemberResponse, error) {
	if id == callerID {
		return nil, ErrMemberSelfRoleChange
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next := member.WithRole(role)
	// 直属监督关系只对普通成员有意义
	if role != model.RoleMember {
		next = next.WithOverseer(nil)
	}
	return s.save(ctx, next, callerID, "分配角色失败")
}

// ────────────────────── AssignOverseer ──────────────────────

func (s *memberService) AssignOverseer(ctx context.Context, id string, req *dto.AssignOverseerRequest, callerID string) (*dto.MemberResponse, error) {
	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if member.Role != model.RoleMember {
		return nil, ErrOverseeNotBaseMember
	}

	if req.OverseerID != nil {
		if *req.OverseerID == id {
			return nil, ErrOverseerSelf
		}
		if err := s.checkOverseer(ctx, *req.OverseerID); err != nil {
			return nil, err
		}
	}

	return s.save(ctx, member.WithOverseer(req.OverseerID), callerID, "指定直属 FD 失败")
}

// ────────────────────── SetStatus ──────────────────────

func (s *memberService) SetStatus(ctx context.Context, id string, req *dto.SetStatusRequest, callerID string) (*dto.MemberResponse, error) {
	status := model.MemberStatus(req.Status)
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, member.WithStatus(status), callerID, "设置成员状态失败")
}

// ── 内部工具 ──

func (s *memberService) load(ctx context.Context, id string) (*model.Member, error) {
	member, err := s.repo.Member.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		s.logger.Error("查询成员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return member, nil
}

func (s *memberService) reload(ctx context.Context, id string) (*dto.MemberResponse, error) {
	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toMemberResponse(*member)
	return &resp, nil
}

func (s *memberService) save(ctx context.Context, next model.Member, callerID, failMsg string) (*dto.MemberResponse, error) {
	next.UpdatedBy = &callerID
	if err := s.repo.Member.Update(ctx, &next); err != nil {
		s.logger.Error(failMsg, zap.String("id", next.MemberID), zap.Error(err))
		return nil, err
	}
	return s.reload(ctx, next.MemberID)
}

func (s *memberService) checkOverseer(ctx context.Context, overseerID string) error {
	overseer, err := s.repo.Member.GetByID(ctx, overseerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOverseerNotFD
		}
		return err
	}
	if overseer.Role != model.RoleFD || !overseer.IsActive() {
		return ErrOverseerNotFD
	}
	return nil
}

func toMemberResponse(m model.Member) dto.MemberResponse {
	resp := dto.MemberResponse{
		ID:         m.MemberID,
		FullName:   m.FullName,
		Email:      m.Email,
		Phone:      m.Phone,
		Role:       string(m.Role),
		Status:     string(m.Status),
		OverseerID: m.OverseerID,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
	if m.HouseChurch != nil {
		resp.HouseChurch = &dto.HouseChurchResponse{
			ID:   m.HouseChurch.HouseChurchID,
			Name: m.HouseChurch.Name,
		}
	}
	return resp
}

func toMemberBrief(m model.Member) dto.MemberBrief {
	return dto.MemberBrief{
		ID:            m.MemberID,
		FullName:      m.FullName,
		Role:          string(m.Role),
		HouseChurchID: m.HouseChurchID,
	}
}
