package errors

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrStorageUnavailable 数据库连接或事务失败，调用方可对只读操作有限重试
	ErrStorageUnavailable = errors.New("存储服务暂不可用")
	// ErrDuplicateKey 违反唯一约束
	ErrDuplicateKey = errors.New("记录已存在，违反唯一约束")
)

// IsDuplicateKey 判断是否为唯一约束冲突（需 gorm.Config.TranslateError=true）
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicateKey)
}

// Storage 将底层驱动错误包装为 ErrStorageUnavailable
// 记录不存在、唯一约束冲突以及已包装的错误原样返回
func Storage(err error) error {
	if err == nil ||
		errors.Is(err, gorm.ErrRecordNotFound) ||
		IsDuplicateKey(err) ||
		errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
