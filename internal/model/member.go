package model

// Role 成员角色
type Role string

const (
	RoleMember Role = "member" // 普通成员
	RoleFD     Role = "fd"     // 门徒训练者（一级监督）
	RoleLeader Role = "leader" // 家庭教会带领人（二级监督）
	RolePastor Role = "pastor" // 地方教会牧师（三级监督）
	RoleAdmin  Role = "admin"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleFD, RoleLeader, RolePastor, RoleAdmin:
		return true
	}
	return false
}

// IsOverseer 是否为监督角色（高于普通成员）
func (r Role) IsOverseer() bool {
	return r.Valid() && r != RoleMember
}

// MemberStatus 成员状态（仅软状态，不物理删除）
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusInactive  MemberStatus = "inactive"
	MemberStatusSuspended MemberStatus = "suspended"
)

// Valid 是否为已知状态
func (s MemberStatus) Valid() bool {
	return s == MemberStatusActive || s == MemberStatusInactive || s == MemberStatusSuspended
}

// Member 成员表 — 对应 members
type Member struct {
	MemberID      string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	FullName      string       `gorm:"type:varchar(100);not null"                     json:"full_name"`
	Email         string       `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Phone         string       `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	PasswordHash  string       `gorm:"type:varchar(255);not null"                     json:"-"`
	Role          Role         `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`
	HouseChurchID *string      `gorm:"type:uuid;index"                                json:"house_church_id,omitempty"`
	OverseerID    *string      `gorm:"type:uuid;index"                                json:"overseer_id,omitempty"` // 仅对普通成员有意义
	Status        MemberStatus `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	VersionedModel

	// 关联
	HouseChurch *HouseChurch `gorm:"foreignKey:HouseChurchID;references:HouseChurchID" json:"house_church,omitempty"`
}

// TableName 指定表名
func (Member) TableName() string { return "members" }

// IsActive 是否为活跃成员；监督视图只包含活跃成员
func (m Member) IsActive() bool { return m.Status == MemberStatusActive }

// InHouseChurch 是否归属指定家庭教会
func (m Member) InHouseChurch(houseChurchID string) bool {
	return m.HouseChurchID != nil && *m.HouseChurchID == houseChurchID
}

// WithRole 返回角色变更后的副本
func (m Member) WithRole(role Role) Member {
	m.Role = role
	return m
}

// WithOverseer 返回直属监督人变更后的副本，overseerID 为 nil 表示解除
func (m Member) WithOverseer(overseerID *string) Member {
	m.OverseerID = overseerID
	return m
}

// WithStatus 返回状态变更后的副本
func (m Member) WithStatus(status MemberStatus) Member {
	m.Status = status
	return m
}
