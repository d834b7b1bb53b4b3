package model

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户表 — 对应 users
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"                json:"id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"  json:"email"`
	FullName     string `gorm:"type:varchar(120);not null;default:''"   json:"full_name"`
	PasswordHash string `gorm:"type:varchar(255);not null"              json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'user'" json:"role"` // user | admin
	IsActive     bool   `gorm:"not null;default:true"                   json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
