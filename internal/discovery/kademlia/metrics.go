package kademlia

import (
	"sync/atomic"
)

// ============================================================================
//                              指标收集
// ============================================================================

// Metrics 路由表累计指标
//
// 原子计数器，读写两侧均可无锁访问。
type Metrics struct {
	// 准入统计
	staged             atomic.Int64
	stagingRejected    atomic.Int64
	verificationFailed atomic.Int64
	promoted           atomic.Int64

	// 挑战统计
	challengesOpened   atomic.Int64
	challengesSurvived atomic.Int64
	evictions          atomic.Int64
	expiredChallenges  atomic.Int64

	// 封禁统计
	bansIssued atomic.Int64
}

// NewMetrics 创建指标收集器
func NewMetrics() *Metrics {
	return &Metrics{}
}

// MetricsSnapshot 指标快照
type MetricsSnapshot struct {
	Staged             int64
	StagingRejected    int64
	VerificationFailed int64
	Promoted           int64
	ChallengesOpened   int64
	ChallengesSurvived int64
	Evictions          int64
	ExpiredChallenges  int64
	BansIssued         int64
}

// Snapshot 返回当前指标快照
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Staged:             m.staged.Load(),
		StagingRejected:    m.stagingRejected.Load(),
		VerificationFailed: m.verificationFailed.Load(),
		Promoted:           m.promoted.Load(),
		ChallengesOpened:   m.challengesOpened.Load(),
		ChallengesSurvived: m.challengesSurvived.Load(),
		Evictions:          m.evictions.Load(),
		ExpiredChallenges:  m.expiredChallenges.Load(),
		BansIssued:         m.bansIssued.Load(),
	}
}
