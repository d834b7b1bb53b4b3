package errors

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	if !IsDuplicateKey(fmt.Errorf("attach: %w", gorm.ErrDuplicatedKey)) {
		t.Error("包装后的 gorm.ErrDuplicatedKey 应识别为唯一约束冲突")
	}
	if !IsDuplicateKey(ErrDuplicateKey) {
		t.Error("ErrDuplicateKey 应识别为唯一约束冲突")
	}
	if IsDuplicateKey(errors.New("connection refused")) {
		t.Error("普通错误不应识别为唯一约束冲突")
	}
}

func TestStorage(t *testing.T) {
	if Storage(nil) != nil {
		t.Error("nil 应原样返回")
	}
	if !errors.Is(Storage(gorm.ErrRecordNotFound), gorm.ErrRecordNotFound) {
		t.Error("ErrRecordNotFound 不应被包装为存储错误")
	}
	if errors.Is(Storage(gorm.ErrRecordNotFound), ErrStorageUnavailable) {
		t.Error("ErrRecordNotFound 不应识别为存储不可用")
	}

	wrapped := Storage(errors.New("dial tcp: connection refused"))
	if !errors.Is(wrapped, ErrStorageUnavailable) {
		t.Errorf("驱动错误应包装为 ErrStorageUnavailable，实际: %v", wrapped)
	}
	if Storage(wrapped) != wrapped {
		t.Error("已包装的错误不应重复包装")
	}
}

func TestStorage_KeepsDuplicateKey(t *testing.T) {
	err := Storage(gorm.ErrDuplicatedKey)
	if errors.Is(err, ErrStorageUnavailable) {
		t.Error("唯一约束冲突不应包装为存储不可用")
	}
	if !IsDuplicateKey(err) {
		t.Error("唯一约束冲突应保持可识别")
	}
}
