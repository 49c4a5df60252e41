package verifier

import "errors"

// 预定义错误
var (
	// ErrNilChecker 身份校验函数为空
	ErrNilChecker = errors.New("verifier: identity checker is nil")

	// ErrAlreadyStarted 验证权威已启动
	ErrAlreadyStarted = errors.New("verifier: already started")

	// ErrNotStarted 验证权威未启动
	ErrNotStarted = errors.New("verifier: not started")

	// ErrQueueFull 验证请求队列已满
	ErrQueueFull = errors.New("verifier: request queue full")

	// ErrUnauthorizedSender 结论投递者不是验证权威
	ErrUnauthorizedSender = errors.New("verifier: sender is not the verification authority")
)
