package dto

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	ExpiresIn    int            `json:"expires_in"`              // Access Token 有效期（秒）
	Member       MemberResponse `json:"member"`
}

// ── 成员模块响应 ──

// MemberResponse 成员信息响应（脱敏）
type MemberResponse struct {
	ID          string               `json:"id"`
	FullName    string               `json:"full_name"`
	Email       string               `json:"email"`
	Phone       string               `json:"phone,omitempty"`
	Role        string               `json:"role"`
	Status      string               `json:"status"`
	OverseerID  *string              `json:"overseer_id,omitempty"`
	HouseChurch *HouseChurchResponse `json:"house_church,omitempty"`
	CreatedAt   string               `json:"created_at"`
}

// HouseChurchResponse 家庭教会简要信息
type HouseChurchResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ── 分页 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
