package kademlia

import (
	"time"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// ============================================================================
//                              封禁表
// ============================================================================

// BanEntry 封禁记录
type BanEntry struct {
	// Until 封禁截止时间
	Until time.Time

	// Reason 封禁原因
	Reason string
}

// BanList 限时封禁表
//
// 封禁期内的节点不得进入暂存区和任何桶。过期条目由 GC 清除；
// IsBanned 按时间判断，GC 之前到期的封禁同样立即失效。
type BanList struct {
	entries map[types.NodeID]BanEntry
}

// NewBanList 创建封禁表
func NewBanList() *BanList {
	return &BanList{
		entries: make(map[types.NodeID]BanEntry),
	}
}

// Len 返回封禁表中的条目数量（含已到期未回收的条目）
func (b *BanList) Len() int {
	return len(b.entries)
}

// Ban 封禁节点到指定时间
//
// 幂等：重复封禁覆盖原截止时间与原因。
func (b *BanList) Ban(id types.NodeID, until time.Time, reason string) {
	b.entries[id] = BanEntry{Until: until, Reason: reason}
}

// IsBanned 检查节点在 now 时刻是否处于封禁期
func (b *BanList) IsBanned(id types.NodeID, now time.Time) bool {
	entry, ok := b.entries[id]
	return ok && now.Before(entry.Until)
}

// Get 获取封禁记录
func (b *BanList) Get(id types.NodeID) (BanEntry, bool) {
	entry, ok := b.entries[id]
	return entry, ok
}

// ExpireBefore 移除所有已到期的封禁条目，返回移除数量
func (b *BanList) ExpireBefore(now time.Time) int {
	removed := 0
	for id, entry := range b.entries {
		if !entry.Until.After(now) {
			delete(b.entries, id)
			removed++
		}
	}
	return removed
}
