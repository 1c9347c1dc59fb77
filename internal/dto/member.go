package dto

// ── 成员管理 DTO ──

// CreateMemberRequest 管理员创建成员请求
type CreateMemberRequest struct {
	FullName      string  `json:"full_name"       binding:"required,min=2,max=100"`
	Email         string  `json:"email"           binding:"required,email"`
	Phone         string  `json:"phone"           binding:"omitempty,max=30"`
	Password      string  `json:"password"        binding:"required,min=8,max=64"`
	Role          string  `json:"role"            binding:"required,oneof=member fd leader pastor admin"`
	HouseChurchID *string `json:"house_church_id" binding:"omitempty,uuid"`
	OverseerID    *string `json:"overseer_id"     binding:"omitempty,uuid"`
}

// MemberListRequest 成员列表查询参数
type MemberListRequest struct {
	PaginationRequest
	Role          string `form:"role"            binding:"omitempty,oneof=member fd leader pastor admin"`
	Status        string `form:"status"          binding:"omitempty,oneof=active inactive suspended"`
	HouseChurchID string `form:"house_church_id" binding:"omitempty,uuid"`
	Keyword       string `form:"keyword"         binding:"omitempty,max=50"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=member fd leader pastor admin"`
}

// AssignOverseerRequest 指定直属 FD 请求（overseer_id 为空表示解除）
type AssignOverseerRequest struct {
	OverseerID *string `json:"overseer_id" binding:"omitempty,uuid"`
}

// SetStatusRequest 设置成员状态请求
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive suspended"`
}
