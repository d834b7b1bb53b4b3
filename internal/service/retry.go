package service

import (
	"context"
	"errors"
	"time"

	pkgerrors "crane-intelligence/backend/pkg/errors"
)

// readRetryBackoff 只读重试的基础退避间隔，第 n 次重试等待 n 倍
var readRetryBackoff = 50 * time.Millisecond

// withReadRetry 对只读操作在存储不可用时线性退避重试
// 写操作不得经由此函数，避免重复提交
func withReadRetry(ctx context.Context, retries int, fn func() error) error {
	err := fn()
	for attempt := 1; attempt <= retries; attempt++ {
		if err == nil || !errors.Is(err, pkgerrors.ErrStorageUnavailable) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * readRetryBackoff):
		}
		err = fn()
	}
	return err
}
