package liveness

import "errors"

// 预定义错误
var (
	// ErrNilTransport 传输层为空
	ErrNilTransport = errors.New("liveness: transport is nil")

	// ErrAlreadyStarted 探测器已启动
	ErrAlreadyStarted = errors.New("liveness: prober already started")

	// ErrNotStarted 探测器未启动
	ErrNotStarted = errors.New("liveness: prober not started")

	// ErrChallengeExists 该节点已有进行中的挑战
	ErrChallengeExists = errors.New("liveness: challenge already outstanding for peer")

	// ErrUnknownChallenge 应答与任何进行中的挑战不匹配
	ErrUnknownChallenge = errors.New("liveness: no matching outstanding challenge")

	// ErrSendFailed 发送探测失败
	ErrSendFailed = errors.New("liveness: failed to send ping")
)
