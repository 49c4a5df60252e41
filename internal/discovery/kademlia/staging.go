package kademlia

import (
	"time"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// ============================================================================
//                              暂存区
// ============================================================================

// PendingPeer 暂存区中等待身份验证的节点
//
// 只存在于暂存区内；不经过验证绝不直接晋升入桶。
type PendingPeer struct {
	// Peer 节点记录
	Peer types.PeerInfo

	// ReceivedAt 进入暂存区的时间
	ReceivedAt time.Time

	// Deadline 验证截止时间（超时由 GC 回收）
	Deadline time.Time
}

// StagingArea 有界暂存区
//
// 把未验证节点隔离在路由表之外。满时尾部丢弃：拒绝新请求，
// 绝不驱逐已暂存的节点。
type StagingArea struct {
	maxPending int
	pending    map[types.NodeID]PendingPeer
}

// NewStagingArea 创建暂存区
func NewStagingArea(maxPending int) *StagingArea {
	return &StagingArea{
		maxPending: maxPending,
		pending:    make(map[types.NodeID]PendingPeer, maxPending),
	}
}

// Len 返回暂存区中的节点数量
func (s *StagingArea) Len() int {
	return len(s.pending)
}

// IsFull 检查暂存区是否已满
func (s *StagingArea) IsFull() bool {
	return len(s.pending) >= s.maxPending
}

// Contains 检查节点是否已暂存
func (s *StagingArea) Contains(id types.NodeID) bool {
	_, ok := s.pending[id]
	return ok
}

// Get 获取暂存条目
func (s *StagingArea) Get(id types.NodeID) (PendingPeer, bool) {
	entry, ok := s.pending[id]
	return entry, ok
}

// Add 暂存节点
//
// 已满时返回 false；调用方负责区分满与重复（先查 IsFull/Contains）。
func (s *StagingArea) Add(peer types.PeerInfo, now time.Time, timeout time.Duration) bool {
	if len(s.pending) >= s.maxPending {
		return false
	}
	s.pending[peer.ID] = PendingPeer{
		Peer:       peer,
		ReceivedAt: now,
		Deadline:   now.Add(timeout),
	}
	return true
}

// Remove 移除并返回暂存条目
func (s *StagingArea) Remove(id types.NodeID) (PendingPeer, bool) {
	entry, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	return entry, ok
}

// ExpireBefore 移除所有验证截止时间已到的条目，返回移除数量
//
// 安全阀：验证方崩溃等原因导致永不验证的节点不会无限累积。
func (s *StagingArea) ExpireBefore(now time.Time) int {
	removed := 0
	for id, entry := range s.pending {
		if !entry.Deadline.After(now) {
			delete(s.pending, id)
			removed++
		}
	}
	return removed
}
