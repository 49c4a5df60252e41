package kademlia

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

func testPeer(seed byte, addr string, seen time.Time) types.PeerInfo {
	var id types.NodeID
	id[0] = 0x80
	id[31] = seed
	return types.PeerInfo{
		ID:       id,
		Addr:     netip.MustParseAddrPort(addr),
		LastSeen: seen,
	}
}

// TestBucket_AddFront 测试前端插入与容量上限
func TestBucket_AddFront(t *testing.T) {
	bucket := NewBucket(3)
	now := time.Now()

	require.True(t, bucket.AddFront(testPeer(1, "10.0.1.1:4001", now), 3))
	require.True(t, bucket.AddFront(testPeer(2, "10.0.2.1:4001", now), 3))
	require.True(t, bucket.AddFront(testPeer(3, "10.0.3.1:4001", now), 3))

	assert.Equal(t, 3, bucket.Len())
	assert.True(t, bucket.IsFull(3))

	// 最近加入的在前端
	peers := bucket.Peers()
	assert.Equal(t, byte(3), peers[0].ID[31])
	assert.Equal(t, byte(1), peers[2].ID[31])

	// 满桶静默失败
	assert.False(t, bucket.AddFront(testPeer(4, "10.0.4.1:4001", now), 3))
	assert.Equal(t, 3, bucket.Len())

	t.Log("✅ 前端插入与容量上限正确")
}

// TestBucket_Touch 测试活跃度刷新
func TestBucket_Touch(t *testing.T) {
	bucket := NewBucket(3)
	t0 := time.Now()

	bucket.AddFront(testPeer(1, "10.0.1.1:4001", t0), 3)
	bucket.AddFront(testPeer(2, "10.0.2.1:4001", t0), 3)

	// 此时 peer1 在尾部
	target := testPeer(1, "10.0.1.1:4001", t0)
	t1 := t0.Add(5 * time.Second)
	require.True(t, bucket.Touch(target.ID, t1))

	peers := bucket.Peers()
	assert.Equal(t, target.ID, peers[0].ID, "touch 后应移到前端")
	assert.Equal(t, t1, peers[0].LastSeen, "touch 应更新 LastSeen")

	// 不存在的节点
	assert.False(t, bucket.Touch(types.GenerateNodeID(), t1))

	t.Log("✅ Touch 移动到前端并刷新时间")
}

// TestBucket_Remove 测试无条件移除
func TestBucket_Remove(t *testing.T) {
	bucket := NewBucket(3)
	now := time.Now()

	peer := testPeer(1, "10.0.1.1:4001", now)
	bucket.AddFront(peer, 3)

	assert.True(t, bucket.Remove(peer.ID))
	assert.Equal(t, 0, bucket.Len())
	assert.False(t, bucket.Remove(peer.ID), "重复移除返回 false")

	t.Log("✅ 移除正确")
}

// TestBucket_OldestPeer 测试最旧节点选择与决胜规则
func TestBucket_OldestPeer(t *testing.T) {
	t.Run("按 LastSeen 选择", func(t *testing.T) {
		bucket := NewBucket(3)
		t0 := time.Now()

		bucket.AddFront(testPeer(1, "10.0.1.1:4001", t0.Add(2*time.Second)), 3)
		bucket.AddFront(testPeer(2, "10.0.2.1:4001", t0), 3)
		bucket.AddFront(testPeer(3, "10.0.3.1:4001", t0.Add(1*time.Second)), 3)

		oldest, ok := bucket.OldestPeer()
		require.True(t, ok)
		assert.Equal(t, byte(2), oldest.ID[31])
	})

	t.Run("时间相同按 NodeID 字典序决胜", func(t *testing.T) {
		bucket := NewBucket(3)
		t0 := time.Now()

		// seed 越小 NodeID 字典序越小
		bucket.AddFront(testPeer(9, "10.0.1.1:4001", t0), 3)
		bucket.AddFront(testPeer(4, "10.0.2.1:4001", t0), 3)
		bucket.AddFront(testPeer(7, "10.0.3.1:4001", t0), 3)

		oldest, ok := bucket.OldestPeer()
		require.True(t, ok)
		assert.Equal(t, byte(4), oldest.ID[31], "同时间戳取字典序最小的 NodeID")
	})

	t.Run("空桶", func(t *testing.T) {
		bucket := NewBucket(3)
		_, ok := bucket.OldestPeer()
		assert.False(t, ok)
	})

	t.Log("✅ 最旧节点选择确定性正确")
}

// TestBucket_SubnetCount 测试子网计数
func TestBucket_SubnetCount(t *testing.T) {
	bucket := NewBucket(5)
	now := time.Now()

	bucket.AddFront(testPeer(1, "192.168.1.10:4001", now), 5)
	bucket.AddFront(testPeer(2, "192.168.1.20:4001", now), 5)
	bucket.AddFront(testPeer(3, "192.168.2.10:4001", now), 5)

	assert.Equal(t, 2, bucket.SubnetCount(netip.MustParseAddr("192.168.1.99"), 24))
	assert.Equal(t, 1, bucket.SubnetCount(netip.MustParseAddr("192.168.2.99"), 24))
	assert.Equal(t, 0, bucket.SubnetCount(netip.MustParseAddr("10.1.1.1"), 24))

	t.Log("✅ 子网计数正确")
}

// TestBucket_Pending 测试驱逐挑战槽位
func TestBucket_Pending(t *testing.T) {
	bucket := NewBucket(3)
	now := time.Now()

	assert.False(t, bucket.HasPendingChallenge())
	assert.Nil(t, bucket.Pending())

	challenged := types.GenerateNodeID()
	pending := &PendingInsertion{
		Candidate:       testPeer(1, "10.0.1.1:4001", now),
		ChallengedPeer:  challenged,
		ChallengeSentAt: now,
		Deadline:        now.Add(10 * time.Second),
	}
	bucket.SetPending(pending)

	assert.True(t, bucket.HasPendingChallenge())
	assert.Equal(t, challenged, bucket.Pending().ChallengedPeer)
	assert.False(t, pending.Expired(now))
	assert.True(t, pending.Expired(now.Add(10*time.Second)), "截止时刻即视为过期")

	bucket.ClearPending()
	assert.False(t, bucket.HasPendingChallenge())

	t.Log("✅ 挑战槽位正确")
}
