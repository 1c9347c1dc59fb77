package repository

import (
	"context"

	"gorm.io/gorm"

	"cmci-cr/backend/internal/model"
)

// HouseChurchRepository 家庭教会只读数据访问接口
type HouseChurchRepository interface {
	GetByID(ctx context.Context, id string) (*model.HouseChurch, error)
	ListByLeader(ctx context.Context, leaderID string) ([]model.HouseChurch, error)
	ListByLocalChurches(ctx context.Context, localChurchIDs []string) ([]model.HouseChurch, error)
}

// LocalChurchRepository 地方教会只读数据访问接口
type LocalChurchRepository interface {
	GetByID(ctx context.Context, id string) (*model.LocalChurch, error)
	ListByPastor(ctx context.Context, pastorID string) ([]model.LocalChurch, error)
}

type houseChurchRepo struct {
	db *gorm.DB
}

// NewHouseChurchRepo 创建 HouseChurchRepository 实例
func NewHouseChurchRepo(db *gorm.DB) HouseChurchRepository {
	return &houseChurchRepo{db: db}
}

func (r *houseChurchRepo) GetByID(ctx context.Context, id string) (*model.HouseChurch, error) {
	var hc model.HouseChurch
	err := r.db.WithContext(ctx).
		Preload("LocalChurch").
		Where("house_church_id = ?", id).
		First(&hc).Error
	if err != nil {
		return nil, err
	}
	return &hc, nil
}

func (r *houseChurchRepo) ListByLeader(ctx context.Context, leaderID string) ([]model.HouseChurch, error) {
	var list []model.HouseChurch
	err := r.db.WithContext(ctx).
		Where("leader_id = ?", leaderID).
		Order("name ASC").
		Find(&list).Error
	return list, err
}

func (r *houseChurchRepo) ListByLocalChurches(ctx context.Context, localChurchIDs []string) ([]model.HouseChurch, error) {
	if len(localChurchIDs) == 0 {
		return nil, nil
	}
	var list []model.HouseChurch
	err := r.db.WithContext(ctx).
		Where("local_church_id IN ?", localChurchIDs).
		Order("name ASC").
		Find(&list).Error
	return list, err
}

type localChurchRepo struct {
	db *gorm.DB
}

// NewLocalChurchRepo 创建 LocalChurchRepository 实例
func NewLocalChurchRepo(db *gorm.DB) LocalChurchRepository {
	return &localChurchRepo{db: db}
}

func (r *localChurchRepo) GetByID(ctx context.Context, id string) (*model.LocalChurch, error) {
	var lc model.LocalChurch
	err := r.db.WithContext(ctx).
		Where("local_church_id = ?", id).
		First(&lc).Error
	if err != nil {
		return nil, err
	}
	return &lc, nil
}

func (r *localChurchRepo) ListByPastor(ctx context.Context, pastorID string) ([]model.LocalChurch, error) {
	var list []model.LocalChurch
	err := r.db.WithContext(ctx).
		Where("pastor_id = ?", pastorID).
		Order("name ASC").
		Find(&list).Error
	return list, err
}
