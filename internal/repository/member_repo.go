package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"cmci-cr/backend/internal/model"
	pkgerrors "cmci-cr/backend/pkg/errors"
)

// MemberListFilters 成员列表筛选条件
type MemberListFilters struct {
	Role          string
	Status        string
	HouseChurchID string
	Keyword       string
}

// MemberRepository 成员数据访问接口
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	Update(ctx context.Context, member *model.Member) error
	GetByID(ctx context.Context, id string) (*model.Member, error)
	GetByEmail(ctx context.Context, email string) (*model.Member, error)
	ListByOverseer(ctx context.Context, overseerID string) ([]model.Member, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.Member, error)
	ListByHouseChurch(ctx context.Context, houseChurchID string) ([]model.Member, error)
	ListByHouseChurches(ctx context.Context, houseChurchIDs []string) ([]model.Member, error)
	ListAll(ctx context.Context) ([]model.Member, error)
	ListWithFilters(ctx context.Context, filters *MemberListFilters, offset, limit int) ([]model.Member, int64, error)
}

// memberRepo MemberRepository 的 GORM 实现
type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepo 创建 MemberRepository 实例
func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Create(ctx context.Context, member *model.Member) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// Update 按版本号更新，版本不一致时返回 ErrOptimisticLock
func (r *memberRepo) Update(ctx context.Context, member *model.Member) error {
	oldVersion := member.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("member_id = ? AND version = ?", member.MemberID, oldVersion).
		Updates(map[string]interface{}{
			"full_name":       member.FullName,
			"email":           member.Email,
			"phone":           member.Phone,
			"password_hash":   member.PasswordHash,
			"role":            member.Role,
			"house_church_id": member.HouseChurchID,
			"overseer_id":     member.OverseerID,
			"status":          member.Status,
			"updated_by":      member.UpdatedBy,
			"updated_at":      now,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	member.UpdatedAt = now
	member.Version = oldVersion + 1
	return nil
}

func (r *memberRepo) GetByID(ctx context.Context, id string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Preload("HouseChurch").
		Where("member_id = ?", id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) ListByOverseer(ctx context.Context, overseerID string) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("overseer_id = ?", overseerID).
		Find(&members).Error
	return members, err
}

func (r *memberRepo) ListByRole(ctx context.Context, role model.Role) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Find(&members).Error
	return members, err
}

func (r *memberRepo) ListByHouseChurch(ctx context.Context, houseChurchID string) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("house_church_id = ?", houseChurchID).
		Find(&members).Error
	return members, err
}

func (r *memberRepo) ListByHouseChurches(ctx context.Context, houseChurchIDs []string) ([]model.Member, error) {
	if len(houseChurchIDs) == 0 {
		return nil, nil
	}
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("house_church_id IN ?", houseChurchIDs).
		Find(&members).Error
	return members, err
}

func (r *memberRepo) ListAll(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Order("full_name ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepo) ListWithFilters(ctx context.Context, filters *MemberListFilters, offset, limit int) ([]model.Member, int64, error) {
	var members []model.Member
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Member{})
	if filters != nil {
		if filters.Role != "" {
			db = db.Where("role = ?", filters.Role)
		}
		if filters.Status != "" {
			db = db.Where("status = ?", filters.Status)
		}
		if filters.HouseChurchID != "" {
			db = db.Where("house_church_id = ?", filters.HouseChurchID)
		}
		if filters.Keyword != "" {
			kw := "%" + filters.Keyword + "%"
			db = db.Where("full_name ILIKE ? OR email ILIKE ?", kw, kw)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("HouseChurch").
		Offset(offset).Limit(limit).
		Order("full_name ASC").
		Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}
