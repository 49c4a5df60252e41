package coordinator

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	// ErrNilTable 路由表为空
	ErrNilTable = errors.New("coordinator: table is nil")

	// ErrNilVerifier 验证权威为空
	ErrNilVerifier = errors.New("coordinator: verifier is nil")

	// ErrNilProber 存活探测器为空
	ErrNilProber = errors.New("coordinator: prober is nil")

	// ErrNotStarted 协调器未启动
	ErrNotStarted = errors.New("coordinator: not started")

	// ErrAlreadyStarted 协调器已启动
	ErrAlreadyStarted = errors.New("coordinator: already started")

	// ErrRateLimitExceeded 发现请求超出速率限制
	ErrRateLimitExceeded = errors.New("coordinator: discovery rate limit exceeded")
)

// DiscoveryError 准入错误类型
type DiscoveryError struct {
	Op      string // 操作名称
	Err     error  // 底层错误
	Message string // 错误消息
}

// Error 实现 error 接口
func (e *DiscoveryError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("discovery %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("discovery %s: %v", e.Op, e.Err)
}

// Unwrap 实现错误解包
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// NewDiscoveryError 创建准入错误
func NewDiscoveryError(op string, err error, message string) *DiscoveryError {
	return &DiscoveryError{
		Op:      op,
		Err:     err,
		Message: message,
	}
}
