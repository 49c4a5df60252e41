package kademlia

import (
	"net/netip"
	"time"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// ============================================================================
//                              驱逐挑战
// ============================================================================

// PendingInsertion 进行中的驱逐挑战
//
// 桶满时，候选节点不直接入桶，而是对桶内最旧节点发起存活挑战。
// 每个桶同一时刻至多一个挑战。
type PendingInsertion struct {
	// Candidate 等待入桶的候选节点
	Candidate types.PeerInfo

	// ChallengedPeer 被挑战的最旧节点
	ChallengedPeer types.NodeID

	// ChallengeSentAt 挑战发起时间
	ChallengeSentAt time.Time

	// Deadline 挑战截止时间（超时视为挑战失败，被挑战者被驱逐）
	Deadline time.Time
}

// Expired 检查挑战是否已过期
func (p *PendingInsertion) Expired(now time.Time) bool {
	return !p.Deadline.After(now)
}

// ============================================================================
//                              K 桶
// ============================================================================

// Bucket 某一距离区间的节点桶
//
// 节点按活跃度排序（最近活跃的在前端），容量上限为 k。
// 不做内部同步：桶由 Table 独占持有，Table 由其归属者串行访问。
type Bucket struct {
	// 节点列表（最近活跃的在前）
	peers []types.PeerInfo

	// 进行中的驱逐挑战（至多一个）
	pending *PendingInsertion
}

// NewBucket 创建新桶
func NewBucket(k int) *Bucket {
	return &Bucket{
		peers: make([]types.PeerInfo, 0, k),
	}
}

// Len 返回桶中节点数量
func (b *Bucket) Len() int {
	return len(b.peers)
}

// IsFull 检查桶是否已满
func (b *Bucket) IsFull(k int) bool {
	return len(b.peers) >= k
}

// Peers 返回桶中所有节点的副本
func (b *Bucket) Peers() []types.PeerInfo {
	result := make([]types.PeerInfo, len(b.peers))
	copy(result, b.peers)
	return result
}

// Contains 检查节点是否在桶中
func (b *Bucket) Contains(id types.NodeID) bool {
	for i := range b.peers {
		if b.peers[i].ID == id {
			return true
		}
	}
	return false
}

// Get 获取桶中的节点
func (b *Bucket) Get(id types.NodeID) (types.PeerInfo, bool) {
	for i := range b.peers {
		if b.peers[i].ID == id {
			return b.peers[i], true
		}
	}
	return types.PeerInfo{}, false
}

// AddFront 将节点加入桶前端
//
// 桶已满时静默失败返回 false——调用方必须预先检查容量并改走
// 驱逐挑战路径。
func (b *Bucket) AddFront(peer types.PeerInfo, k int) bool {
	if len(b.peers) >= k {
		return false
	}
	b.peers = append([]types.PeerInfo{peer}, b.peers...)
	return true
}

// Touch 更新节点活跃时间并移到前端
func (b *Bucket) Touch(id types.NodeID, now time.Time) bool {
	for i := range b.peers {
		if b.peers[i].ID == id {
			peer := b.peers[i]
			peer.Touch(now)
			b.peers = append(b.peers[:i], b.peers[i+1:]...)
			b.peers = append([]types.PeerInfo{peer}, b.peers...)
			return true
		}
	}
	return false
}

// Remove 按 NodeID 无条件移除节点
func (b *Bucket) Remove(id types.NodeID) bool {
	for i := range b.peers {
		if b.peers[i].ID == id {
			b.peers = append(b.peers[:i], b.peers[i+1:]...)
			return true
		}
	}
	return false
}

// BumpReputation 给桶中节点加一点信誉分
func (b *Bucket) BumpReputation(id types.NodeID) bool {
	for i := range b.peers {
		if b.peers[i].ID == id {
			b.peers[i].Reputation++
			return true
		}
	}
	return false
}

// OldestPeer 返回活跃时间最早的节点
//
// LastSeen 相同时按 NodeID 字典序取最小者，保证确定性。
func (b *Bucket) OldestPeer() (types.PeerInfo, bool) {
	if len(b.peers) == 0 {
		return types.PeerInfo{}, false
	}

	oldest := b.peers[0]
	for _, peer := range b.peers[1:] {
		if peer.LastSeen.Before(oldest.LastSeen) ||
			(peer.LastSeen.Equal(oldest.LastSeen) && peer.ID.Less(oldest.ID)) {
			oldest = peer
		}
	}
	return oldest, true
}

// SubnetCount 统计桶中与 addr 同子网的节点数
func (b *Bucket) SubnetCount(addr netip.Addr, prefixLen int) int {
	count := 0
	for i := range b.peers {
		if SameSubnet(b.peers[i].IP(), addr, prefixLen) {
			count++
		}
	}
	return count
}

// HasPendingChallenge 检查是否有进行中的驱逐挑战
func (b *Bucket) HasPendingChallenge() bool {
	return b.pending != nil
}

// Pending 返回进行中的驱逐挑战（无则为 nil）
func (b *Bucket) Pending() *PendingInsertion {
	return b.pending
}

// SetPending 安装驱逐挑战
func (b *Bucket) SetPending(p *PendingInsertion) {
	b.pending = p
}

// ClearPending 清除驱逐挑战
func (b *Bucket) ClearPending() {
	b.pending = nil
}
