package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Member      MemberRepository
	Report      ReportRepository
	HouseChurch HouseChurchRepository
	LocalChurch LocalChurchRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Member:      NewMemberRepo(db),
		Report:      NewReportRepo(db),
		HouseChurch: NewHouseChurchRepo(db),
		LocalChurch: NewLocalChurchRepo(db),
	}
}

