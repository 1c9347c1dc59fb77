package model

// LocalChurch 地方教会表 — 对应 local_churches（只读，由地理组织管理维护）
type LocalChurch struct {
	LocalChurchID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"local_church_id"`
	Name          string  `gorm:"type:varchar(100);not null"                     json:"name"`
	ZoneID        string  `gorm:"type:uuid;not null"                             json:"zone_id"`
	PastorID      *string `gorm:"type:uuid;index"                                json:"pastor_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (LocalChurch) TableName() string { return "local_churches" }

// HouseChurch 家庭教会表 — 对应 house_churches（只读）
type HouseChurch struct {
	HouseChurchID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"house_church_id"`
	Name          string  `gorm:"type:varchar(100);not null"                     json:"name"`
	LocalChurchID string  `gorm:"type:uuid;not null;index"                       json:"local_church_id"`
	LeaderID      *string `gorm:"type:uuid;index"                                json:"leader_id,omitempty"`
	BaseModel

	// 关联
	LocalChurch *LocalChurch `gorm:"foreignKey:LocalChurchID;references:LocalChurchID" json:"local_church,omitempty"`
}

// TableName 指定表名
func (HouseChurch) TableName() string { return "house_churches" }

