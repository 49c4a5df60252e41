package kademlia

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// TestBanList_Ban 测试封禁与时间窗口
func TestBanList_Ban(t *testing.T) {
	bans := NewBanList()
	t0 := time.Now()
	id := types.GenerateNodeID()

	bans.Ban(id, t0.Add(100*time.Second), "flooding")

	assert.True(t, bans.IsBanned(id, t0))
	assert.True(t, bans.IsBanned(id, t0.Add(99*time.Second)))
	assert.False(t, bans.IsBanned(id, t0.Add(100*time.Second)), "截止时刻封禁即失效")
	assert.False(t, bans.IsBanned(types.GenerateNodeID(), t0))

	entry, ok := bans.Get(id)
	require.True(t, ok)
	assert.Equal(t, "flooding", entry.Reason)

	t.Log("✅ 封禁时间窗口正确")
}

// TestBanList_Idempotent 测试重复封禁覆盖
func TestBanList_Idempotent(t *testing.T) {
	bans := NewBanList()
	t0 := time.Now()
	id := types.GenerateNodeID()

	bans.Ban(id, t0.Add(10*time.Second), "first")
	bans.Ban(id, t0.Add(100*time.Second), "second")

	assert.Equal(t, 1, bans.Len())
	assert.True(t, bans.IsBanned(id, t0.Add(50*time.Second)))

	entry, _ := bans.Get(id)
	assert.Equal(t, "second", entry.Reason)

	t.Log("✅ 重复封禁覆盖原记录")
}

// TestBanList_ExpireBefore 测试过期回收
func TestBanList_ExpireBefore(t *testing.T) {
	bans := NewBanList()
	t0 := time.Now()

	short := types.GenerateNodeID()
	long := types.GenerateNodeID()
	bans.Ban(short, t0.Add(10*time.Second), "short")
	bans.Ban(long, t0.Add(100*time.Second), "long")

	assert.Equal(t, 1, bans.ExpireBefore(t0.Add(10*time.Second)))
	assert.Equal(t, 1, bans.Len())

	_, ok := bans.Get(short)
	assert.False(t, ok)
	_, ok = bans.Get(long)
	assert.True(t, ok)

	t.Log("✅ 封禁过期回收正确")
}
