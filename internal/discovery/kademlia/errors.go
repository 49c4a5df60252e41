package kademlia

import "errors"

// 预定义错误
//
// 所有错误都是本地可恢复条件：调用方稍后重试、丢弃候选或上报遥测。
// 任何错误路径都不会破坏路由表不变量。
var (
	// ErrStagingAreaFull 暂存区已满（尾部丢弃：拒绝新请求，不驱逐已暂存节点）
	ErrStagingAreaFull = errors.New("kademlia: staging area full")

	// ErrSelfConnection 不能添加本地节点自身
	ErrSelfConnection = errors.New("kademlia: cannot stage local node")

	// ErrPeerBanned 节点处于封禁期
	ErrPeerBanned = errors.New("kademlia: peer is banned")

	// ErrInvalidNodeID 桶索引越界（固定宽度密钥空间下不可达，防御性保留）
	ErrInvalidNodeID = errors.New("kademlia: bucket index out of range")

	// ErrSubnetLimitReached 目标桶中同子网节点已达上限
	ErrSubnetLimitReached = errors.New("kademlia: subnet peer limit reached")

	// ErrBucketFull 桶已满但找不到可挑战的最旧节点（不变量失配的守卫）
	ErrBucketFull = errors.New("kademlia: bucket full with no evictable peer")

	// ErrChallengeInProgress 该桶已有一个进行中的驱逐挑战
	ErrChallengeInProgress = errors.New("kademlia: eviction challenge already in progress")

	// ErrPeerNotFound 节点未找到
	ErrPeerNotFound = errors.New("kademlia: peer not found")
)
