package types

import (
	"fmt"
	"net/netip"
	"time"
)

// ============================================================================
//                              PeerInfo - 节点信息
// ============================================================================

// PeerInfo 路由表中一个对端节点的记录
//
// 在发现时创建；LastSeen 在 touch/晋升/挑战存活时更新；
// 随节点被移除、驱逐或封禁而销毁。
type PeerInfo struct {
	// ID 节点 ID
	ID NodeID

	// Addr 节点的网络地址（IPv4 或 IPv6 + 端口）
	Addr netip.AddrPort

	// LastSeen 最后一次活跃的时间
	LastSeen time.Time

	// Reputation 信誉分（本地记账，随挑战存活递增）
	Reputation int
}

// NewPeerInfo 创建节点记录
func NewPeerInfo(id NodeID, addr netip.AddrPort, now time.Time) PeerInfo {
	return PeerInfo{
		ID:       id,
		Addr:     addr,
		LastSeen: now,
	}
}

// Touch 更新最后活跃时间
func (p *PeerInfo) Touch(now time.Time) {
	p.LastSeen = now
}

// IP 返回节点地址的 IP 部分（去除 4-in-6 映射）
func (p PeerInfo) IP() netip.Addr {
	return p.Addr.Addr().Unmap()
}

// String 返回节点记录的可读表示
func (p PeerInfo) String() string {
	return fmt.Sprintf("%s@%s", p.ID.ShortString(), p.Addr)
}
