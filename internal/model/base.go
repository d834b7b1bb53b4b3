package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;<-:create" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"           json:"updated_at"`
}

// Touch 刷新 updated_at，保证单调不减
func (m *BaseModel) Touch(now time.Time) {
	if now.Before(m.UpdatedAt) {
		return
	}
	m.UpdatedAt = now
}

// setOnce 仅在时间戳为空时写入，重复进入同一状态不会覆盖首次时间
func setOnce(field **time.Time, now time.Time) {
	if *field != nil {
		return
	}
	t := now
	*field = &t
}
