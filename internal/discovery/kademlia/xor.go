package kademlia

import (
	"math/bits"
	"sort"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// ============================================================================
//                              XOR 距离度量
// ============================================================================

const (
	// KeyBits 密钥空间位数（256 位）
	KeyBits = types.NodeIDSize * 8

	// NumBuckets K-Bucket 数量 = 密钥位数
	NumBuckets = KeyBits

	// MaxDistance 最大距离值（两个 ID 完全相同时取此值）
	MaxDistance = NumBuckets - 1
)

// Distance 桶索引形式的距离，取值 [0, 255]
//
// 注意：这不是原始 XOR 整数，而是共同前缀位数。
// 值越大表示越近（共享的前导位越多）。
type Distance int

// DistanceBetween 计算两个 NodeID 的距离
//
// XOR 两个 32 字节密钥，从左到右扫描字节；在第一个非零字节处，
// 距离 = 字节下标*8 + 该字节的前导零位数。全部为零（ID 相同）
// 时返回 MaxDistance（最近）。满足对称性：
// DistanceBetween(a,b) == DistanceBetween(b,a)。
func DistanceBetween(a, b types.NodeID) Distance {
	return Distance(BucketIndex(a, b))
}

// BucketIndex 计算 remote 相对 local 应落入的桶索引
//
// 与 DistanceBetween 等价的融合快速路径：不构造中间距离对象，
// 供热路径查桶使用。
func BucketIndex(local, remote types.NodeID) int {
	for i := 0; i < types.NodeIDSize; i++ {
		x := local[i] ^ remote[i]
		if x != 0 {
			return i*8 + bits.LeadingZeros8(x)
		}
	}
	// ID 完全相同：最大共同前缀，钳制到最后一个桶
	return MaxDistance
}

// CommonPrefixLen 计算两个 NodeID 的共同前缀长度（按位计数，不钳制）
func CommonPrefixLen(a, b types.NodeID) int {
	for i := 0; i < types.NodeIDSize; i++ {
		x := a[i] ^ b[i]
		if x != 0 {
			return i*8 + bits.LeadingZeros8(x)
		}
	}
	return KeyBits
}

// SortPeersByDistance 按到 target 的距离降序排序（最近的在前）
//
// 原地排序。距离相同（同一桶）的节点间按 NodeID 字典序，保证确定性。
func SortPeersByDistance(peers []types.PeerInfo, target types.NodeID) {
	sort.Slice(peers, func(i, j int) bool {
		di := BucketIndex(peers[i].ID, target)
		dj := BucketIndex(peers[j].ID, target)
		if di != dj {
			return di > dj
		}
		return peers[i].ID.Less(peers[j].ID)
	})
}

// FindKClosest 返回距 target 最近的至多 k 个节点
//
// 输入为空或不足 k 个时返回现有的全部节点，无错误情形。
func FindKClosest(peers []types.PeerInfo, target types.NodeID, k int) []types.PeerInfo {
	if k <= 0 {
		return nil
	}

	sorted := make([]types.PeerInfo, len(peers))
	copy(sorted, peers)
	SortPeersByDistance(sorted, target)

	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
