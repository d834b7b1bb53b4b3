package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email"     binding:"required,email,max=255"`
	FullName string `json:"full_name" binding:"required,min=2,max=120"`
	Password string `json:"password"  binding:"required,min=8,max=72"`
}
